package events

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event names published by the storefront.
const (
	CartChanged     = "cart:changed"
	WishlistChanged = "wishlist:changed"
	OrderPlaced     = "order:placed"
)

// Actions carried by cart and wishlist events.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionSync   = "sync"
)

// Payload is the event body. Add carries the affected ids and the
// inserted row; Remove carries ids only; Sync carries the full current
// set after a refetch.
type Payload struct {
	Action     string
	ProductIDs []uuid.UUID
	Rows       interface{}
}

// Handler receives published events.
type Handler func(Payload)

type subscription struct {
	id int
	fn Handler
}

// Bus is an in-process publish/subscribe registry. Handlers for an event
// run synchronously in registration order; a panicking handler is logged
// and does not stop the others. There is no queue and no replay: a
// subscriber that was not registered when an event fired simply missed it.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string][]subscription
}

// New constructs an empty Bus. The bus is handed to services through
// their constructors so tests can build a fresh one per case.
func New() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// On registers a handler for an event and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) On(event string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscription{id: id, fn: fn})

	return func() {
		b.off(event, id)
	}
}

func (b *Bus) off(event string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[event]
	for i, s := range subs {
		if s.id == id {
			b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit synchronously invokes a snapshot of the handlers currently
// registered for the event. Handlers registered or removed during
// delivery take effect on the next Emit.
func (b *Bus) Emit(event string, payload Payload) {
	b.mu.Lock()
	snapshot := make([]subscription, len(b.handlers[event]))
	copy(snapshot, b.handlers[event])
	b.mu.Unlock()

	for _, s := range snapshot {
		b.invoke(event, s, payload)
	}
}

func (b *Bus) invoke(event string, s subscription, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Events] handler for %s panicked: %v", event, r)
		}
	}()
	s.fn(payload)
}
