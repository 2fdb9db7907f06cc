package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler processes one company change. Handlers must be idempotent: buses may redeliver.
type Handler func(context.Context, CompanyEvent) error

// Bus carries company change messages from publishers to subscribers.
type Bus interface {
	Publish(ctx context.Context, ev CompanyEvent) error
	Subscribe(kind Kind, handler Handler)
	// Run delivers messages until ctx is cancelled.
	Run(ctx context.Context) error
}

type handlerSet struct {
	mu        sync.RWMutex
	listeners map[Kind][]Handler
}

func (h *handlerSet) Subscribe(kind Kind, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners == nil {
		h.listeners = make(map[Kind][]Handler)
	}
	h.listeners[kind] = append(h.listeners[kind], handler)
}

// dispatch invokes every handler for ev and returns the first failure.
func (h *handlerSet) dispatch(ctx context.Context, ev CompanyEvent) error {
	h.mu.RLock()
	handlers := append([]Handler{}, h.listeners[ev.Kind]...)
	h.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MemoryBus is an in-process queue. Messages are lost on crash; failed handlers are logged.
type MemoryBus struct {
	handlerSet
	queue  chan CompanyEvent
	logger *zap.Logger
}

var _ Bus = (*MemoryBus)(nil)

// NewMemoryBus creates a bus holding up to size undelivered messages.
func NewMemoryBus(size int, logger *zap.Logger) *MemoryBus {
	if size <= 0 {
		size = 256
	}
	return &MemoryBus{queue: make(chan CompanyEvent, size), logger: logger}
}

// Publish enqueues ev, waiting for room while ctx allows.
func (b *MemoryBus) Publish(ctx context.Context, ev CompanyEvent) error {
	select {
	case b.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryBus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.queue:
			if err := b.dispatch(ctx, ev); err != nil {
				b.logger.Error("company event handler failed",
					zap.String("kind", string(ev.Kind)),
					zap.String("company_id", ev.CompanyID),
					zap.Error(err))
			}
		}
	}
}
