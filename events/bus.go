package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// potSubscriptionBuffer bounds how far a slow pot subscriber may lag before
// events are dropped for it
const potSubscriptionBuffer = 32

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages in-process event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	pots     map[uuid.UUID]map[uint64]chan Event
	nextSub  uint64
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		pots:     make(map[uuid.UUID]map[uint64]chan Event),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribePot returns a channel receiving every event of one pot until ctx
// is cancelled, at which point the channel is closed.
func (b *Bus) SubscribePot(ctx context.Context, potID uuid.UUID) (<-chan Event, error) {
	ch := make(chan Event, potSubscriptionBuffer)

	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	if b.pots[potID] == nil {
		b.pots[potID] = make(map[uint64]chan Event)
	}
	b.pots[potID][id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.pots[potID], id)
		if len(b.pots[potID]) == 0 {
			delete(b.pots, potID)
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Publish emits the event and never fails, so the bus can stand in for a
// broker-backed publisher
func (b *Bus) Publish(event Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// Emit publishes an event to all registered handlers and pot subscribers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	for _, ch := range b.pots[event.PotKey()] {
		select {
		case ch <- event:
		default:
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"pot_id":    event.PotKey(),
			}).Warn("Pot subscriber is lagging, dropping event")
		}
	}
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow consumer never blocks a commit
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publisher is anything events can be handed to
type Publisher interface {
	Publish(event Event) error
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits.
type TransactionalBus struct {
	mu      sync.Mutex
	real    Publisher
	pending []Event
}

// NewTransactionalBus wraps real, which receives events on Flush
func NewTransactionalBus(real Publisher) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes the event until Flush
func (b *TransactionalBus) Publish(e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
	return nil
}

// Flush hands every pending event to the real publisher. Called after a
// successful commit; publish failures are logged and do not stop the flush.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	log.WithFields(log.Fields{
		"pendingEventCount": len(pending),
	}).Debug("Flushing pending events from transactional bus")

	for _, ev := range pending {
		if err := b.real.Publish(ev); err != nil {
			log.WithFields(log.Fields{
				"eventType": ev.Type(),
				"pot_id":    ev.PotKey(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}
	return nil
}

// Discard drops pending events, called after a rollback
func (b *TransactionalBus) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) > 0 {
		log.WithField("discardedEventCount", len(b.pending)).Debug("Discarding pending events")
	}
	b.pending = nil
}
