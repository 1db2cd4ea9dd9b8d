// Package notify delivers the payload-free "state changed" signal for a user
// to every interested view: in-process observers, open change streams, and
// other instances through Redis.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/api/metrics"
)

// Forwarder publishes a local notification to other instances.
type Forwarder interface {
	Publish(ctx context.Context, userID string)
}

type observer struct {
	mu     sync.Mutex
	fn     func(userID string)
	active bool
}

// Broadcaster fans out change notifications. Delivery to observers is
// synchronous; streams receive a coalesced signal.
type Broadcaster struct {
	mu        sync.RWMutex
	observers map[uint64]*observer
	nextID    uint64
	streams   map[string]map[string]*Subscription
	forwarder Forwarder
	closed    bool
	log       zerolog.Logger
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		observers: make(map[uint64]*observer),
		streams:   make(map[string]map[string]*Subscription),
		log:       log,
	}
}

// SetForwarder makes every local Notify also go to f.
func (b *Broadcaster) SetForwarder(f Forwarder) {
	b.mu.Lock()
	b.forwarder = f
	b.mu.Unlock()
}

// Observe registers fn for every notification. Once cancel returns, fn is
// never called again. fn must not call cancel itself.
func (b *Broadcaster) Observe(fn func(userID string)) (cancel func()) {
	o := &observer{fn: fn, active: true}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.observers[id] = o
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.observers, id)
			b.mu.Unlock()

			o.mu.Lock()
			o.active = false
			o.mu.Unlock()
		})
	}
}

// Subscription is an open change stream of one user. C receives at most one
// pending signal; further notifications coalesce into it.
type Subscription struct {
	ID     string
	UserID string
	C      <-chan struct{}

	c     chan struct{}
	done  chan struct{}
	close func()
}

// Done is closed when the subscription ends, either through Close or
// because the broadcaster shut down.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() { s.close() }

// Stream opens a change stream for userID.
func (b *Broadcaster) Stream(userID string) *Subscription {
	c := make(chan struct{}, 1)
	sub := &Subscription{
		ID:     uuid.NewString(),
		UserID: userID,
		C:      c,
		c:      c,
		done:   make(chan struct{}),
	}

	var once sync.Once
	sub.close = func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.streams[userID]; subs != nil {
				delete(subs, sub.ID)
				if len(subs) == 0 {
					delete(b.streams, userID)
				}
			}
			b.mu.Unlock()
			close(sub.done)
		})
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub
	}
	if b.streams[userID] == nil {
		b.streams[userID] = make(map[string]*Subscription)
	}
	b.streams[userID][sub.ID] = sub
	b.mu.Unlock()

	return sub
}

// Notify delivers a notification for userID locally and forwards it to
// other instances.
func (b *Broadcaster) Notify(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	b.Deliver(userID)

	b.mu.RLock()
	f := b.forwarder
	b.mu.RUnlock()
	if f != nil {
		f.Publish(ctx, userID)
	}
	metrics.NotificationsTotal.WithLabelValues("local").Inc()
}

// Deliver hands a notification to local observers and streams only.
func (b *Broadcaster) Deliver(userID string) {
	b.mu.RLock()
	observers := make([]*observer, 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	streams := make([]*Subscription, 0, len(b.streams[userID]))
	for _, s := range b.streams[userID] {
		streams = append(streams, s)
	}
	b.mu.RUnlock()

	for _, o := range observers {
		o.mu.Lock()
		if o.active {
			o.fn(userID)
		}
		o.mu.Unlock()
	}

	for _, s := range streams {
		select {
		case s.c <- struct{}{}:
		default:
		}
	}

	b.log.Debug().Str("user_id", userID).Int("observers", len(observers)).Int("streams", len(streams)).Msg("change delivered")
}

// Close ends every open stream. Later Stream calls return closed
// subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	b.closed = true
	var all []*Subscription
	for _, subs := range b.streams {
		for _, s := range subs {
			all = append(all, s)
		}
	}
	b.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
