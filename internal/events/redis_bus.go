package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBusConfig tunes the stream consumer.
type RedisBusConfig struct {
	Stream   string
	Group    string
	Consumer string
	// Block bounds how long one read waits for new messages.
	Block time.Duration
	// ReclaimIdle is how long a delivered but unacknowledged message waits before another
	// consumer takes it over. Zero disables reclaiming.
	ReclaimIdle time.Duration
	// DedupeTTL is how long processed message keys are remembered.
	DedupeTTL time.Duration
	BatchSize int64
}

// RedisBus delivers messages through a Redis stream consumer group. A message is
// acknowledged only after its handlers succeed, so delivery is at-least-once.
type RedisBus struct {
	handlerSet
	client redis.Cmdable
	cfg    RedisBusConfig
	logger *zap.Logger
}

var _ Bus = (*RedisBus)(nil)

// NewRedisBus builds a bus on client.
func NewRedisBus(client redis.Cmdable, cfg RedisBusConfig, logger *zap.Logger) *RedisBus {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 7 * 24 * time.Hour
	}
	return &RedisBus{client: client, cfg: cfg, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, ev CompanyEvent) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.cfg.Stream,
		Values: []interface{}{"kind", string(ev.Kind), "payload", string(payload)},
	}).Err()
}

func (b *RedisBus) Run(ctx context.Context) error {
	if err := b.ensureGroup(ctx); err != nil {
		return err
	}
	b.logger.Info("company event consumer started",
		zap.String("stream", b.cfg.Stream),
		zap.String("group", b.cfg.Group),
		zap.String("consumer", b.cfg.Consumer))

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := b.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Warn("company event poll failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
	}
}

func (b *RedisBus) ensureGroup(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, b.cfg.Stream, b.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", b.cfg.Group, err)
	}
	return nil
}

// poll reclaims stale pending messages, then reads new ones.
func (b *RedisBus) poll(ctx context.Context) error {
	if b.cfg.ReclaimIdle > 0 {
		claimed, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   b.cfg.Stream,
			Group:    b.cfg.Group,
			Consumer: b.cfg.Consumer,
			MinIdle:  b.cfg.ReclaimIdle,
			Start:    "0-0",
			Count:    b.cfg.BatchSize,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("reclaim: %w", err)
		}
		b.handleAll(ctx, claimed)
	}

	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    b.cfg.Group,
		Consumer: b.cfg.Consumer,
		Streams:  []string{b.cfg.Stream, ">"},
		Count:    b.cfg.BatchSize,
		Block:    b.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read group: %w", err)
	}
	for _, s := range streams {
		b.handleAll(ctx, s.Messages)
	}
	return nil
}

func (b *RedisBus) handleAll(ctx context.Context, msgs []redis.XMessage) {
	for _, msg := range msgs {
		if err := b.handle(ctx, msg); err != nil {
			b.logger.Error("company event left pending",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
}

// handle processes one message. It returns an error, leaving the message pending, when
// a handler or Redis fails.
func (b *RedisBus) handle(ctx context.Context, msg redis.XMessage) error {
	ev, err := decodeMessage(msg)
	if err != nil {
		// Unreadable messages would be redelivered forever.
		b.logger.Error("dropping malformed company event", zap.String("message_id", msg.ID), zap.Error(err))
		return b.ack(ctx, msg.ID)
	}

	key := b.dedupeKey(ev)
	seen, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check processed: %w", err)
	}
	if seen == 0 {
		if err := b.dispatch(ctx, ev); err != nil {
			return err
		}
		if err := b.client.Set(ctx, key, 1, b.cfg.DedupeTTL).Err(); err != nil {
			return fmt.Errorf("mark processed: %w", err)
		}
	} else {
		b.logger.Debug("skipping processed company event", zap.String("key", key))
	}
	return b.ack(ctx, msg.ID)
}

func (b *RedisBus) ack(ctx context.Context, id string) error {
	return b.client.XAck(ctx, b.cfg.Stream, b.cfg.Group, id).Err()
}

func (b *RedisBus) dedupeKey(ev CompanyEvent) string {
	return b.cfg.Stream + ":processed:" + ev.Key()
}

func decodeMessage(msg redis.XMessage) (CompanyEvent, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return CompanyEvent{}, errors.New("payload field missing")
	}
	return Decode([]byte(raw))
}
