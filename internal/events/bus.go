package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"mediaq/internal/logging"
)

// Type tags an event on the wire.
type Type string

const (
	// QueueUpdate carries a full queue snapshot.
	QueueUpdate Type = "queueUpdate"
	// Progress carries a job's latest download percentage.
	Progress Type = "progress"
	// JobCompleted is published once when a worker exits successfully.
	JobCompleted Type = "jobCompleted"
	// JobError is published once when a job fails to spawn or exits non-zero.
	JobError Type = "jobError"
)

// Event is a single typed message delivered to subscribers.
type Event struct {
	Seq     uint64
	Type    Type
	Payload any
}

const defaultBuffer = 256

// Bus registers subscribers and fans published events out to them.
type Bus struct {
	mu      sync.Mutex
	subs    map[*Subscriber]struct{}
	buffer  int
	nextSeq uint64
	nextID  atomic.Uint64
	logger  *slog.Logger
}

// NewBus constructs a bus whose subscribers buffer up to buffer pending events.
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
		logger: logging.NewComponentLogger(logger, "event-bus"),
	}
}

// Subscribe registers a new subscriber. The initial events are queued ahead of
// anything published afterwards so the subscriber never starts from an empty
// state.
func (b *Bus) Subscribe(initial ...Event) *Subscriber {
	size := b.buffer
	if len(initial) > size {
		size = len(initial)
	}
	sub := &Subscriber{
		id:     b.nextID.Add(1),
		ch:     make(chan Event, size),
		closed: make(chan struct{}),
	}

	b.mu.Lock()
	for _, ev := range initial {
		b.nextSeq++
		ev.Seq = b.nextSeq
		sub.ch <- ev
	}
	b.subs[sub] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug("subscriber connected",
		logging.Int("subscriber", int(sub.id)),
		logging.Int("subscribers", count),
		logging.String(logging.FieldEventType, "subscriber_connected"),
	)
	return sub
}

// Unsubscribe removes sub from the bus. It is safe to call more than once and
// after the bus has already dropped the subscriber.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	_, present := b.subs[sub]
	delete(b.subs, sub)
	sub.close()
	b.mu.Unlock()

	if present {
		b.logger.Debug("subscriber disconnected",
			logging.Int("subscriber", int(sub.id)),
			logging.String(logging.FieldEventType, "subscriber_disconnected"),
		)
	}
}

// Publish delivers an event to every registered subscriber without blocking.
// Subscribers that cannot accept the event are removed.
func (b *Bus) Publish(eventType Type, payload any) {
	b.mu.Lock()
	b.nextSeq++
	ev := Event{Seq: b.nextSeq, Type: eventType, Payload: payload}
	var dropped []*Subscriber
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(b.subs, sub)
			sub.dropped.Store(true)
			sub.close()
			dropped = append(dropped, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range dropped {
		logging.WarnWithContext(b.logger, "subscriber dropped; event buffer full", "subscriber_dropped",
			logging.Int("subscriber", int(sub.id)),
			logging.String("event", string(eventType)),
			logging.String(logging.FieldErrorHint, "client is not reading the event stream fast enough"),
			logging.String(logging.FieldImpact, "subscriber must reconnect to receive updates"),
		)
	}
}

// Len reports the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close disconnects every subscriber.
func (b *Bus) Close() {
	b.mu.Lock()
	for sub := range b.subs {
		delete(b.subs, sub)
		sub.close()
	}
	b.mu.Unlock()
}

// Subscriber receives events from a Bus.
type Subscriber struct {
	id      uint64
	ch      chan Event
	closed  chan struct{}
	once    sync.Once
	dropped atomic.Bool
}

// Events returns the delivery channel. It is closed when the subscriber is
// unsubscribed, dropped, or the bus closes.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Done is closed together with the events channel.
func (s *Subscriber) Done() <-chan struct{} {
	return s.closed
}

// Dropped reports whether the bus removed the subscriber because its buffer
// overflowed.
func (s *Subscriber) Dropped() bool {
	return s.dropped.Load()
}

// close must be called with the owning bus lock held so no send races it.
func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.ch)
		close(s.closed)
	})
}
