package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"richdoc/src/events"
)

// Autosaver debounces document changes and writes the latest markup under a fixed key.
type Autosaver struct {
	// writeMu orders writes so an older snapshot never lands after a newer one.
	writeMu sync.Mutex
	mu      sync.Mutex
	store   Store
	key     string
	delay   time.Duration
	timer   *time.Timer
	pending *string
	saves   int
}

// NewAutosaver builds an Autosaver. It starts saving once subscribed to a bus.
func NewAutosaver(store Store, key string, delay time.Duration) *Autosaver {
	return &Autosaver{store: store, key: key, delay: delay}
}

// Key returns the storage key.
func (a *Autosaver) Key() string {
	return a.key
}

// Handle schedules a save for every document change.
func (a *Autosaver) Handle(evt events.Event) {
	if evt.Type != events.EventDocumentChanged {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	content := evt.Content
	a.pending = &content
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

// Pending reports whether a change is waiting to be written.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Saves reports how many writes reached the store.
func (a *Autosaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

// Flush writes pending content immediately.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	if pending == nil {
		return nil
	}
	_, written, err := a.store.Put(ctx, a.key, *pending)
	if err != nil {
		return err
	}
	if written {
		a.mu.Lock()
		a.saves++
		a.mu.Unlock()
	}
	return nil
}

// Stop cancels any pending save.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}

// Restore returns the markup last saved under the key.
func (a *Autosaver) Restore(ctx context.Context) (string, error) {
	entry, err := a.store.Get(ctx, a.key)
	if err != nil {
		return "", err
	}
	return entry.Markup, nil
}

func (a *Autosaver) fire() {
	if err := a.Flush(context.Background()); err != nil {
		slog.Warn("autosave failed", "key", a.key, "error", err)
		return
	}
	slog.Debug("autosaved", "key", a.key)
}
