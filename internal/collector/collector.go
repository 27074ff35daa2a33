// Package collector pulls items from a Source and accumulates them with
// stable IDs, publishing its progress on the session bus.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/runger/sift/internal/event"
	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

// NotifyEvery is how many pulled items trigger one collector-changed event.
const NotifyEvery = 20

// Status is the lifecycle state of a Collector.
type Status int

const (
	StatusIdle      Status = iota // Start not called yet
	StatusActive                  // Pulling from the source
	StatusSucceeded               // Source exhausted or threshold reached
	StatusFailed                  // Source returned an error
	StatusCancelled               // Stopped by cancellation
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Done reports whether the collector has terminated.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// ProducerError wraps an error returned by the source.
type ProducerError struct {
	Count int // Items collected before the error
	Err   error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("source failed after %d items: %v", e.Count, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// Options configures a Collector.
type Options struct {
	Threshold int // Stop after this many items (0 = unbounded)
	Logger    *slog.Logger
}

// Collector accumulates the items of one session.
type Collector struct {
	source    extension.Source
	bus       *event.Bus
	threshold int
	logger    *slog.Logger

	mu        sync.RWMutex
	items     []item.Item
	status    Status
	truncated bool
	err       error

	startMu sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Collector. Nothing is pulled until Start.
func New(source extension.Source, bus *event.Bus, opts Options) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{
		source:    source,
		bus:       bus,
		threshold: opts.Threshold,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins pulling on a new goroutine. Only the first call has an
// effect, and Start after Close does nothing.
func (c *Collector) Start(ctx context.Context) {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	c.setStatus(StatusActive)
	go c.run(ctx)
}

// Close cancels a running pull loop and waits for it to exit.
// It is safe to call Close multiple times.
func (c *Collector) Close() error {
	c.startMu.Lock()
	if c.closed {
		c.startMu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	if c.cancel != nil {
		c.cancel()
	}
	c.startMu.Unlock()

	if started {
		<-c.done
	}
	return nil
}

// Done is closed when the pull loop has terminated and its final events
// have been published.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Items returns the collected items. The returned slice is never modified
// afterwards and may be read while collection continues.
func (c *Collector) Items() []item.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[:len(c.items):len(c.items)]
}

// Len returns the number of collected items.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Status returns the current lifecycle state.
func (c *Collector) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Truncated reports whether collection stopped at the threshold.
func (c *Collector) Truncated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.truncated
}

// Err returns the producer error of a failed collector.
func (c *Collector) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Collector) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	defer c.bus.Publish(event.CollectorCompleted, nil)

	err := c.pull(ctx)
	switch {
	case err == nil:
		c.setStatus(StatusSucceeded)
		c.logger.Debug("collector succeeded", "items", c.Len(), "truncated", c.Truncated())
		c.bus.Publish(event.CollectorSucceeded, nil)

	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		// Cancellation is not a failure.
		c.setStatus(StatusCancelled)
		c.logger.Debug("collector cancelled", "items", c.Len())

	default:
		perr := &ProducerError{Count: c.Len(), Err: err}
		c.mu.Lock()
		c.status = StatusFailed
		c.err = perr
		c.mu.Unlock()
		c.logger.Warn("collector failed", "items", perr.Count, "error", err)
		c.bus.Publish(event.CollectorFailed, nil)
	}
}

func (c *Collector) pull(ctx context.Context) error {
	n := 0
	for src, err := range c.source.Stream(ctx) {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		it := item.Promote(n, src)
		c.mu.Lock()
		c.items = append(c.items, it)
		c.mu.Unlock()
		n++

		if n%NotifyEvery == 0 {
			c.bus.Publish(event.CollectorChanged, n)
		}
		if c.threshold > 0 && n >= c.threshold {
			c.mu.Lock()
			c.truncated = true
			c.mu.Unlock()
			return nil
		}
	}
	return ctx.Err()
}
