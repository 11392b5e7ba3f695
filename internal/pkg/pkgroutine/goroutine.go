package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 10

// DefaultWorkers sizes a pool for blocking I/O calls: min(32, NumCPU+4).
func DefaultWorkers() int {
	return min(32, runtime.NumCPU()+4)
}

// PanicError is collected in place of the error a task would have returned
// when it panicked instead.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("goroutine panicked: %v", p.Value)
}

// Manager is a bounded pool of goroutines. Errors returned by tasks are kept
// until Wait.
type Manager struct {
	slots   chan struct{}
	wg      sync.WaitGroup
	running atomic.Int64

	mu   sync.Mutex
	errs []error
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = DefaultMaxGoroutine
	}

	return &Manager{slots: make(chan struct{}, limit)}
}

// Go runs task on its own goroutine and reports whether it started. It
// blocks while all slots are taken; if ctx ends first the task is dropped
// and Go returns false, leaving any cleanup the task owns to the caller.
func (m *Manager) Go(ctx context.Context, task func(ctx context.Context) error) bool {
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "goroutine canceled before start", "because", ctx.Err())
		return false
	}

	if err := ctx.Err(); err != nil {
		<-m.slots
		slog.WarnContext(ctx, "goroutine canceled before start", "because", err)
		return false
	}

	m.running.Add(1)
	m.wg.Go(func() {
		defer func() {
			m.running.Add(-1)
			<-m.slots
		}()

		if err := m.call(ctx, task); err != nil {
			m.record(err)
		}
	})

	return true
}

func (m *Manager) call(ctx context.Context, task func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			perr := &PanicError{Value: rvr, Stack: debug.Stack()}
			slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(perr.Stack))
			err = perr
		}
	}()

	return task(ctx)
}

func (m *Manager) record(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}

// Running reports how many tasks have started and not yet returned.
func (m *Manager) Running() int {
	return int(m.running.Load())
}

func (m *Manager) Limit() int {
	return cap(m.slots)
}

// Wait blocks until every started task returns. The collected errors are
// joined and cleared, so the manager can be reused.
func (m *Manager) Wait() error {
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	err := errors.Join(m.errs...)
	m.errs = nil

	return err
}
