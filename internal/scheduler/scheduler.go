// Package scheduler drives periodic rendering. It calls a render function
// at a fixed interval, one invocation at a time, until stopped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// RenderFunc renders whatever is dirty. It is never called concurrently
// with itself.
type RenderFunc func(ctx context.Context) error

// Stats holds cumulative scheduler statistics.
type Stats struct {
	Ticks  int64
	Errors int64
	Panics int64
}

// Scheduler runs a RenderFunc on its own goroutine.
type Scheduler struct {
	interval time.Duration
	fn       RenderFunc
	logger   *slog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	ticks  atomic.Int64
	errs   atomic.Int64
	panics atomic.Int64
}

// Start launches the loop. A zero interval yields to the Go scheduler
// between invocations instead of sleeping.
func Start(ctx context.Context, interval time.Duration, fn RenderFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if interval < 0 {
		interval = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		interval: interval,
		fn:       fn,
		logger:   logger,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Close stops the loop and waits for an in-progress invocation to return.
// It is safe to call Close multiple times.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(s.cancel)
	<-s.done
	return nil
}

// Done is closed when the loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Stats returns a snapshot of the scheduler statistics.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:  s.ticks.Load(),
		Errors: s.errs.Load(),
		Panics: s.panics.Load(),
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	var timer *time.Timer
	if s.interval > 0 {
		timer = time.NewTimer(s.interval)
		defer timer.Stop()
	}

	for {
		if timer != nil {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		} else {
			runtime.Gosched()
		}
		if ctx.Err() != nil {
			return
		}

		s.tick(ctx)

		if timer != nil {
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.ticks.Add(1)
	err := s.invoke(ctx)
	if err == nil {
		return
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	s.errs.Add(1)
	s.logger.Warn("render failed", "error", err)
}

func (s *Scheduler) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.panics.Add(1)
			s.logger.Error("render panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = nil
		}
	}()
	return s.fn(ctx)
}
