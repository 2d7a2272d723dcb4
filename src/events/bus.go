package events

import (
	"sync"
	"time"
)

// EventType identifies published event categories.
type EventType string

const (
	// EventCommandExecuted is emitted after a command completes.
	EventCommandExecuted EventType = "command_executed"
	// EventDocumentChanged is emitted whenever a document's markup is replaced.
	EventDocumentChanged EventType = "document_changed"
)

// Event captures domain happenings for observers.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Command   string
	Raw       string
	File      string
	Content   string
	Metadata  map[string]string
}

// Listener consumes published events. Handle runs synchronously on the publisher's goroutine.
type Listener interface {
	Handle(Event)
}

// Bus is a simple observer dispatcher.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener.
func (b *Bus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Listeners reports how many listeners are subscribed.
func (b *Bus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish sends an event to listeners in subscription order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range b.listeners {
		l.Handle(event)
	}
}
