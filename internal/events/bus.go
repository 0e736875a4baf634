// Package events is the in-process notification hub for cart and session
// changes. Subscribers receive events on buffered channels; publishing never
// blocks on a slow subscriber.
package events

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

type Topic string

const (
	TopicCartUpdated    Topic = "cart.updated"
	TopicSessionChanged Topic = "session.changed"
	TopicOrderPlaced    Topic = "order.placed"
)

type Event struct {
	Topic     Topic     `json:"topic"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Filter selects which events a subscriber receives. A nil filter receives
// everything.
type Filter func(Event) bool

func ForSession(sessionID string) Filter {
	return func(e Event) bool { return e.SessionID == sessionID }
}

func CartUpdated(sessionID string, count int) Event {
	return Event{
		Topic:     TopicCartUpdated,
		SessionID: sessionID,
		Payload:   domain.CartUpdatedEvent{SessionID: sessionID, Count: count},
		At:        time.Now().UTC(),
	}
}

func SessionChanged(sessionID string, authenticated bool) Event {
	return Event{
		Topic:     TopicSessionChanged,
		SessionID: sessionID,
		Payload:   domain.SessionChangedEvent{SessionID: sessionID, Authenticated: authenticated},
		At:        time.Now().UTC(),
	}
}

func OrderPlaced(evt domain.OrderPlacedEvent) Event {
	return Event{
		Topic:     TopicOrderPlaced,
		SessionID: evt.SessionID,
		Payload:   evt,
		At:        evt.PlacedAt,
	}
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
	logg   *logger.Logger
	onDrop func(Topic)
}

func NewBus(logg *logger.Logger) *Bus {
	return &Bus{subs: make(map[uint64]*subscriber), logg: logg}
}

// OnDrop registers a callback for events a full subscriber missed.
func (b *Bus) OnDrop(fn func(Topic)) {
	b.mu.Lock()
	b.onDrop = fn
	b.mu.Unlock()
}

// Subscribe returns the event channel and a cancel func. The channel is closed
// by cancel or by Close.
func (b *Bus) Subscribe(filter Filter, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{ch: ch, filter: filter}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
	return ch, cancel
}

func (b *Bus) Publish(ctx context.Context, evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			if b.logg != nil {
				b.logg.Warn(b.logg.WithFields(ctx, map[string]any{
					"topic":      string(evt.Topic),
					"session_id": evt.SessionID,
				}), "events.subscriber_full")
			}
			if b.onDrop != nil {
				b.onDrop(evt.Topic)
			}
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

var _ Publisher = (*Bus)(nil)
