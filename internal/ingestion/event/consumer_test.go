package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/shandysiswandi/goweave/internal/csvrow"
	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type handlerFunc func(ctx context.Context, event entity.RowFailedEvent) error

func (h handlerFunc) Handle(ctx context.Context, event entity.RowFailedEvent) error {
	return h(ctx, event)
}

func TestRetryConsumerRetriesAndIdempotent(t *testing.T) {
	bus := NewBus(10)

	var attempts int32
	done := make(chan struct{})
	handler := handlerFunc(func(ctx context.Context, event entity.RowFailedEvent) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("temporary failure")
		}
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})

	consumer := NewRetryConsumer(bus, handler, ConsumerConfig{
		Workers:     1,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	})
	consumer.Start()

	event := entity.RowFailedEvent{EventID: "evt-1", JobID: "job-1"}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish duplicate: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler")
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryConsumerGivesUp(t *testing.T) {
	bus := NewBus(1)

	var attempts int32
	consumer := NewRetryConsumer(bus, handlerFunc(func(ctx context.Context, event entity.RowFailedEvent) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("always")
	}), ConsumerConfig{Workers: 1, MaxRetries: 1, BaseBackoff: time.Millisecond})
	consumer.Start()

	if err := bus.Publish(context.Background(), entity.RowFailedEvent{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}

	if err := bus.Publish(context.Background(), entity.RowFailedEvent{EventID: "evt-3"}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1)

	if err := bus.Publish(context.Background(), entity.RowFailedEvent{EventID: "a"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(context.Background(), entity.RowFailedEvent{EventID: "b"}); !errors.Is(err, ErrBusFull) {
		t.Fatalf("expected ErrBusFull, got %v", err)
	}
	if published, dropped := bus.Counts(); published != 1 || dropped != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", published, dropped)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bus.Publish(ctx, entity.RowFailedEvent{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	bus.Close()
	bus.Close()
}

func TestRecentIDsWindow(t *testing.T) {
	r := newRecentIDs(2)

	if !r.add("a") || !r.add("b") {
		t.Fatal("fresh ids rejected")
	}
	if r.add("a") {
		t.Fatal("duplicate accepted")
	}
	if !r.add("c") {
		t.Fatal("fresh id rejected")
	}
	// "a" fell out of the window
	if !r.add("a") {
		t.Fatal("expired id rejected")
	}
}

func TestRetryConsumerForcedStop(t *testing.T) {
	bus := NewBus(4)
	started := make(chan struct{})
	var once atomic.Bool

	consumer := NewRetryConsumer(bus, handlerFunc(func(context.Context, entity.RowFailedEvent) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		return errors.New("down")
	}), ConsumerConfig{Workers: 1, MaxRetries: 5, BaseBackoff: time.Hour})
	consumer.Start()

	if err := bus.Publish(context.Background(), entity.RowFailedEvent{EventID: "slow"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := consumer.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestReinserter(t *testing.T) {
	ref := warehouse.TableRef{Dataset: "ds", Table: "t"}
	mem := warehouse.NewMemory(false, ref)
	mem.Reject = func(row csvrow.Row) string {
		if row["id"] == "bad" {
			return "still bad"
		}
		return ""
	}

	var recovered int32
	h := Reinserter{Inserter: mem, OnRecovered: func(context.Context, entity.RowFailedEvent) {
		atomic.AddInt32(&recovered, 1)
	}}

	ok := entity.RowFailedEvent{EventID: "e1", Table: "ds.t", Failure: entity.FailedRow{Line: 1, Row: map[string]string{"id": "1"}}}
	if err := h.Handle(context.Background(), ok); err != nil {
		t.Fatalf("handle: %v", err)
	}

	bad := entity.RowFailedEvent{EventID: "e2", Table: "ds.t", Failure: entity.FailedRow{Line: 2, Row: map[string]string{"id": "bad"}}}
	if err := h.Handle(context.Background(), bad); err == nil {
		t.Fatal("expected error for rejected row")
	}

	if err := h.Handle(context.Background(), entity.RowFailedEvent{Table: "nodots"}); err == nil {
		t.Fatal("expected error for bad table id")
	}

	if recovered != 1 {
		t.Fatalf("expected 1 recovered row, got %d", recovered)
	}
	if n := len(mem.Rows(ref)); n != 1 {
		t.Fatalf("expected 1 stored row, got %d", n)
	}
}

func TestLogHandler(t *testing.T) {
	if err := (LogHandler{}).Handle(context.Background(), entity.RowFailedEvent{}); err == nil {
		t.Fatal("expected error for missing event id")
	}
	if err := (LogHandler{}).Handle(context.Background(), entity.RowFailedEvent{EventID: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
