// Package events provides the in-process pub/sub used to fan out the
// day-closing summary to the notifiers and the report writer without
// coupling the till service to any of them.
package events

import (
	"sync"
	"time"

	"cantine/internal/models"
)

// TypeDayClosed is published once per successful close operation.
const TypeDayClosed = "day_closed"

// DayClosed is the payload of a TypeDayClosed event.
type DayClosed struct {
	DateISO  string
	Totals   models.Totals
	ClosedAt time.Time
}

// Handler reacts to a day-closed event. Errors are the handler's own
// problem; the close operation never sees them.
type Handler func(e DayClosed) error

// Bus is an in-process pub/sub for closing events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], h)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(eventType string, e DayClosed) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[eventType]...)
	b.mu.RUnlock()

	if e.ClosedAt.IsZero() {
		e.ClosedAt = time.Now()
	}

	for _, h := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = h(e)
	}
}
