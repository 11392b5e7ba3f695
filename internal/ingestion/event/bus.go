package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
)

var (
	ErrBusClosed = errors.New("dead-letter bus is closed")
	// ErrBusFull is returned instead of blocking the ingestion that
	// publishes. The row stays recorded as a job failure.
	ErrBusFull = errors.New("dead-letter bus is full")
)

// Bus is an in-process dead-letter queue for rows the warehouse rejected.
type Bus struct {
	mu     sync.RWMutex
	closed bool
	queue  chan entity.RowFailedEvent

	published atomic.Int64
	dropped   atomic.Int64
}

// NewBus returns a bus holding up to capacity undelivered events.
func NewBus(capacity int) *Bus {
	return &Bus{queue: make(chan entity.RowFailedEvent, max(capacity, 1))}
}

func (b *Bus) Publish(ctx context.Context, ev entity.RowFailedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- ev:
		b.published.Add(1)
		return nil
	default:
		b.dropped.Add(1)
		return ErrBusFull
	}
}

// Events is closed by Close once the bus stops accepting events.
func (b *Bus) Events() <-chan entity.RowFailedEvent {
	return b.queue
}

// Counts returns how many events were queued and how many were dropped.
func (b *Bus) Counts() (published, dropped int64) {
	return b.published.Load(), b.dropped.Load()
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.queue)
	}
}
