package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
)

type Handler interface {
	Handle(ctx context.Context, ev entity.RowFailedEvent) error
}

type ConsumerConfig struct {
	// Workers defaults to 4.
	Workers int
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	// BaseBackoff doubles after every failed attempt, up to MaxBackoff.
	// Defaults to 100ms.
	BaseBackoff time.Duration
	// MaxBackoff defaults to 30s.
	MaxBackoff time.Duration
	// DedupWindow is how many recent event IDs are remembered. Defaults to 10000.
	DedupWindow int
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.Workers < 1 {
		c.Workers = 4
	}
	c.MaxRetries = max(c.MaxRetries, 0)
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.DedupWindow < 1 {
		c.DedupWindow = 10000
	}
	return c
}

// RetryConsumer drains the dead-letter bus, handing each event to the
// handler until it succeeds or the retries run out. An event ID seen again
// within the dedup window is skipped.
type RetryConsumer struct {
	bus     *Bus
	handler Handler
	cfg     ConsumerConfig
	seen    *recentIDs
	wg      sync.WaitGroup

	// ends in-flight backoffs on a forced stop
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRetryConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *RetryConsumer {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &RetryConsumer{
		bus:     bus,
		handler: handler,
		cfg:     cfg,
		seen:    newRecentIDs(cfg.DedupWindow),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *RetryConsumer) Start() {
	for range c.cfg.Workers {
		c.wg.Go(func() {
			for ev := range c.bus.Events() {
				c.deliver(ev)
			}
		})
	}
}

// Stop closes the bus and waits until queued events are handled. If ctx
// ends first, pending backoffs are abandoned.
func (c *RetryConsumer) Stop(ctx context.Context) error {
	c.bus.Close()

	drained := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = ctx.Err()
	}

	c.cancel()
	<-drained

	if published, dropped := c.bus.Counts(); dropped > 0 {
		slog.Warn("dead-letter events dropped while the bus was full", "published", published, "dropped", dropped)
	}

	return err
}

func (c *RetryConsumer) deliver(ev entity.RowFailedEvent) {
	if c.handler == nil {
		return
	}
	if ev.EventID != "" && !c.seen.add(ev.EventID) {
		slog.Info("skip duplicate row failed event", "event_id", ev.EventID, "job_id", ev.JobID)
		return
	}

	wait := c.cfg.BaseBackoff
	for attempt := 1; ; attempt++ {
		err := c.handler.Handle(c.ctx, ev)
		if err == nil {
			return
		}

		if attempt > c.cfg.MaxRetries {
			slog.Error("giving up on failed row",
				"event_id", ev.EventID,
				"job_id", ev.JobID,
				"line", ev.Failure.Line,
				"attempts", attempt,
				"error", err,
			)
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
			return
		}
		wait = min(wait*2, c.cfg.MaxBackoff)
	}
}

// recentIDs remembers the last n IDs added.
type recentIDs struct {
	mu   sync.Mutex
	set  map[string]struct{}
	ring []string
	next int
}

func newRecentIDs(n int) *recentIDs {
	return &recentIDs{set: make(map[string]struct{}, n), ring: make([]string, n)}
}

// add reports false when id is already remembered.
func (r *recentIDs) add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.set[id]; ok {
		return false
	}

	if old := r.ring[r.next]; old != "" {
		delete(r.set, old)
	}
	r.ring[r.next] = id
	r.next = (r.next + 1) % len(r.ring)
	r.set[id] = struct{}{}

	return true
}
