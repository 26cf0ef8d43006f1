// Package bus is a typed in-process event bus for the watch loop.
//
// Delivery is synchronous with backpressure: Publish returns once every
// matching subscriber has accepted the event or the context ends. Nothing is
// persisted.
package bus

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
)

// Bus routes events to subscribers keyed by the event's Go type.
type Bus struct {
	mu     sync.RWMutex
	topics map[reflect.Type]map[uint64]*subscription
	seq    atomic.Uint64
	closed atomic.Bool
	once   sync.Once
}

type subscription struct {
	deliver func(ctx context.Context, evt any) error
	stop    func()
}

// New returns an open bus.
func New() *Bus {
	return &Bus{topics: make(map[reflect.Type]map[uint64]*subscription)}
}

// Subscribe registers a channel for events of type T. When T is an interface
// every published value implementing it is delivered. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	topic := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	var closeOnce sync.Once
	closeCh := func() { closeOnce.Do(func() { close(ch) }) }

	if b.closed.Load() {
		closeCh()
		return ch, func() {}
	}

	id := b.seq.Add(1)
	sub := &subscription{
		deliver: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return serrors.InternalError("event type mismatch", nil).
					WithContext("expected", topic.String()).
					WithContext("actual", reflect.TypeOf(evt).String())
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return serrors.Wrap(ctx.Err(), serrors.CategoryRuntime, serrors.SeverityError, "publish canceled").
					WithContext("event", topic.String())
			}
		},
		stop: closeCh,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		closeCh()
		return ch, func() {}
	}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[uint64]*subscription)
	}
	b.topics[topic][id] = sub

	var unsubOnce sync.Once
	return ch, func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			if subs, ok := b.topics[topic]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(b.topics, topic)
				}
			}
			b.mu.Unlock()
			closeCh()
		})
	}
}

// Subscribers reports how many live subscriptions exist for T.
func Subscribers[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[reflect.TypeFor[T]()])
}

// Publish delivers evt to every matching subscriber in turn.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return serrors.ValidationError("event cannot be nil")
	}
	if b.closed.Load() {
		return serrors.New(serrors.CategoryRuntime, serrors.SeverityError, "event bus is closed")
	}

	kind := reflect.TypeOf(evt)

	b.mu.RLock()
	var targets []*subscription
	for topic, subs := range b.topics {
		if topic != kind && (topic.Kind() != reflect.Interface || !kind.Implements(topic)) {
			continue
		}
		for _, s := range subs {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := s.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the bus closed and closes every subscription channel.
func (b *Bus) Close() {
	b.once.Do(func() {
		b.closed.Store(true)

		b.mu.Lock()
		var subs []*subscription
		for _, topic := range b.topics {
			for _, s := range topic {
				subs = append(subs, s)
			}
		}
		b.topics = make(map[reflect.Type]map[uint64]*subscription)
		b.mu.Unlock()

		for _, s := range subs {
			s.stop()
		}
	})
}
