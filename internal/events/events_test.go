package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func strPtr(s string) *string { return &s }

func sampleEvent() CompanyEvent {
	return CompanyEvent{
		ID:         "ev-1",
		Kind:       KindCompanyUpdated,
		CompanyID:  "acme",
		Updates:    CompanyFields{Name: strPtr("Acme II")},
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC),
	}
}

func TestCodecIsDeterministic(t *testing.T) {
	ev := sampleEvent()

	a, err := Encode(ev)
	require.NoError(t, err)
	b, err := Encode(ev)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	decoded, err := Decode(a)
	require.NoError(t, err)
	assert.Equal(t, ev.CompanyID, decoded.CompanyID)
	require.NotNil(t, decoded.Updates.Name)
	assert.Equal(t, "Acme II", *decoded.Updates.Name)
	assert.Nil(t, decoded.Updates.Email)
	assert.True(t, ev.OccurredAt.Equal(decoded.OccurredAt))
	assert.Equal(t, ev.Key(), decoded.Key())

	_, err = Decode([]byte("not cbor"))
	assert.Error(t, err)
}

func TestCompanyFieldsEmpty(t *testing.T) {
	assert.True(t, CompanyFields{}.Empty())
	assert.False(t, CompanyFields{Email: strPtr("x@y.z")}.Empty())
}

func TestMemoryBusDelivers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewMemoryBus(4, zap.New(core))

	var calls atomic.Int32
	bus.Subscribe(KindCompanyUpdated, func(_ context.Context, ev CompanyEvent) error {
		calls.Add(1)
		return nil
	})
	bus.Subscribe(KindCompanyDeleted, func(context.Context, CompanyEvent) error {
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = bus.Run(ctx)
		close(done)
	}()

	require.NoError(t, bus.Publish(ctx, sampleEvent()))
	require.NoError(t, bus.Publish(ctx, CompanyEvent{Kind: KindCompanyDeleted, CompanyID: "acme"}))

	assert.Eventually(t, func() bool {
		return calls.Load() == 1 && logs.Len() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestMemoryBusPublishRespectsContext(t *testing.T) {
	bus := NewMemoryBus(1, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, bus.Publish(ctx, sampleEvent()))
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, sampleEvent()), context.Canceled)
}

func newMockBus(t *testing.T) (*RedisBus, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	bus := NewRedisBus(client, RedisBusConfig{
		Stream:    "helpdesk.company",
		Group:     "propagator",
		Consumer:  "c1",
		Block:     time.Second,
		DedupeTTL: time.Hour,
	}, zaptest.NewLogger(t))
	return bus, mock
}

func streamMessage(t *testing.T, id string, ev CompanyEvent) redis.XMessage {
	payload, err := Encode(ev)
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{"kind": string(ev.Kind), "payload": string(payload)}}
}

func TestRedisBusPublish(t *testing.T) {
	bus, mock := newMockBus(t)
	ev := sampleEvent()
	payload, err := Encode(ev)
	require.NoError(t, err)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "helpdesk.company",
		Values: []interface{}{"kind", "company.updated", "payload", string(payload)},
	}).SetVal("1-0")

	require.NoError(t, bus.Publish(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBusHandlesNewMessage(t *testing.T) {
	bus, mock := newMockBus(t)
	ev := sampleEvent()
	var got []CompanyEvent
	bus.Subscribe(KindCompanyUpdated, func(_ context.Context, e CompanyEvent) error {
		got = append(got, e)
		return nil
	})

	key := "helpdesk.company:processed:" + ev.Key()
	mock.ExpectExists(key).SetVal(0)
	mock.ExpectSet(key, 1, time.Hour).SetVal("OK")
	mock.ExpectXAck("helpdesk.company", "propagator", "1-0").SetVal(1)

	require.NoError(t, bus.handle(context.Background(), streamMessage(t, "1-0", ev)))
	require.Len(t, got, 1)
	assert.Equal(t, "acme", got[0].CompanyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBusSkipsProcessedMessage(t *testing.T) {
	bus, mock := newMockBus(t)
	ev := sampleEvent()
	called := false
	bus.Subscribe(KindCompanyUpdated, func(context.Context, CompanyEvent) error {
		called = true
		return nil
	})

	mock.ExpectExists("helpdesk.company:processed:" + ev.Key()).SetVal(1)
	mock.ExpectXAck("helpdesk.company", "propagator", "2-0").SetVal(1)

	require.NoError(t, bus.handle(context.Background(), streamMessage(t, "2-0", ev)))
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBusLeavesFailedMessagePending(t *testing.T) {
	bus, mock := newMockBus(t)
	ev := sampleEvent()
	bus.Subscribe(KindCompanyUpdated, func(context.Context, CompanyEvent) error {
		return errors.New("db down")
	})

	mock.ExpectExists("helpdesk.company:processed:" + ev.Key()).SetVal(0)

	err := bus.handle(context.Background(), streamMessage(t, "3-0", ev))
	assert.EqualError(t, err, "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBusAcksMalformedMessage(t *testing.T) {
	bus, mock := newMockBus(t)
	mock.ExpectXAck("helpdesk.company", "propagator", "4-0").SetVal(1)

	msg := redis.XMessage{ID: "4-0", Values: map[string]interface{}{"kind": "company.updated"}}
	require.NoError(t, bus.handle(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBusPoll(t *testing.T) {
	bus, mock := newMockBus(t)
	ev := sampleEvent()
	handled := 0
	bus.Subscribe(KindCompanyUpdated, func(context.Context, CompanyEvent) error {
		handled++
		return nil
	})

	readArgs := &redis.XReadGroupArgs{
		Group:    "propagator",
		Consumer: "c1",
		Streams:  []string{"helpdesk.company", ">"},
		Count:    16,
		Block:    time.Second,
	}
	key := "helpdesk.company:processed:" + ev.Key()
	mock.ExpectXReadGroup(readArgs).SetVal([]redis.XStream{{
		Stream:   "helpdesk.company",
		Messages: []redis.XMessage{streamMessage(t, "5-0", ev)},
	}})
	mock.ExpectExists(key).SetVal(0)
	mock.ExpectSet(key, 1, time.Hour).SetVal("OK")
	mock.ExpectXAck("helpdesk.company", "propagator", "5-0").SetVal(1)
	mock.ExpectXReadGroup(readArgs).RedisNil()

	require.NoError(t, bus.poll(context.Background()))
	require.NoError(t, bus.poll(context.Background()))
	assert.Equal(t, 1, handled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBusEnsureGroup(t *testing.T) {
	bus, mock := newMockBus(t)

	mock.ExpectXGroupCreateMkStream("helpdesk.company", "propagator", "0").SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))
	assert.NoError(t, bus.ensureGroup(context.Background()))

	mock.ExpectXGroupCreateMkStream("helpdesk.company", "propagator", "0").SetErr(errors.New("NOAUTH"))
	assert.Error(t, bus.ensureGroup(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
