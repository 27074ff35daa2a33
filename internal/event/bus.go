// Package event provides the synchronous publish/subscribe bus that connects
// the picker pipelines to their consumers.
//
// A Bus is constructed per picker session and passed to the components that
// publish or subscribe. Delivery is synchronous, in registration order, on the
// publisher's goroutine. Handler panics are recovered and logged so one
// misbehaving subscriber cannot break the publisher.
package event

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler receives the payload of a published event.
type Handler func(payload any)

// Bus is a topic-keyed registry of handlers.
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic][]*Subscription
	logger *slog.Logger

	published atomic.Uint64
	panics    atomic.Uint64
}

// NewBus creates an empty bus. A nil logger discards bus diagnostics.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		subs:   make(map[Topic][]*Subscription),
		logger: logger,
	}
}

// Subscribe registers h for topic. The handler is invoked until the returned
// subscription is closed.
func (b *Bus) Subscribe(topic Topic, h Handler) *Subscription {
	s := &Subscription{bus: b, topic: topic, handler: h}
	s.active.Store(true)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()
	return s
}

// Publish delivers payload to every active subscriber of topic, in
// registration order, before returning.
func (b *Bus) Publish(topic Topic, payload any) {
	b.published.Add(1)

	b.mu.Lock()
	subs := b.subs[topic]
	b.mu.Unlock()

	// subs is never mutated in place (see remove), so iterating the snapshot
	// without the lock is safe.
	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		b.deliver(s, payload)
	}
}

func (b *Bus) deliver(s *Subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Error("event handler panicked",
				"topic", string(s.topic),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.handler(payload)
}

// SubscriberCount returns the number of active subscriptions for topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

// Stats returns the number of publishes and recovered handler panics.
func (b *Bus) Stats() (published, panics uint64) {
	return b.published.Load(), b.panics.Load()
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.subs[s.topic]
	next := make([]*Subscription, 0, len(cur))
	for _, other := range cur {
		if other != s {
			next = append(next, other)
		}
	}
	if len(next) == 0 {
		delete(b.subs, s.topic)
		return
	}
	b.subs[s.topic] = next
}

// Subscription is a registered handler. Close releases it.
type Subscription struct {
	bus     *Bus
	topic   Topic
	handler Handler
	active  atomic.Bool
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() Topic { return s.topic }

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool { return s.active.Load() }

// Close stops delivery to the handler. A publish already in progress skips
// the handler unless its invocation had started before Close.
// It is safe to call Close multiple times, including from the handler.
func (s *Subscription) Close() error {
	if s.active.Swap(false) {
		s.bus.remove(s)
	}
	return nil
}

// On subscribes a typed handler. A payload of another type is logged and
// dropped. For topics without payload use OnSignal.
func On[T any](b *Bus, topic Topic, fn func(T)) *Subscription {
	return b.Subscribe(topic, func(payload any) {
		v, ok := payload.(T)
		if !ok {
			b.logger.Warn("event payload type mismatch",
				"topic", string(topic),
				"payload", fmt.Sprintf("%T", payload),
			)
			return
		}
		fn(v)
	})
}

// OnSignal subscribes a handler that ignores the payload.
func OnSignal(b *Bus, topic Topic, fn func()) *Subscription {
	return b.Subscribe(topic, func(any) { fn() })
}
