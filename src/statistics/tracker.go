package statistics

import (
	"fmt"
	"sync"
	"time"
)

// Clock abstracts time retrieval for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Tracker follows each open document through a session: how long it was the active
// document and how its size moved since it was opened.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session
	active   string
	started  time.Time
	clock    Clock
}

type session struct {
	elapsed  time.Duration
	opened   Counts
	current  Counts
	observed bool
}

// Session is a snapshot of one document's activity.
type Session struct {
	Active  time.Duration
	Opened  Counts
	Current Counts
}

// WordsAdded is the change in word count since the document was opened.
func (s Session) WordsAdded() int {
	return s.Current.Words - s.Opened.Words
}

// String renders the session the way editor-list shows it, e.g. "3m, 120 words (+4)".
func (s Session) String() string {
	out := fmt.Sprintf("%s, %d words", FormatDuration(s.Active), s.Current.Words)
	if delta := s.WordsAdded(); delta != 0 {
		out += fmt.Sprintf(" (%+d)", delta)
	}
	return out
}

// NewTracker constructs a tracker with a real clock.
func NewTracker() *Tracker {
	return &Tracker{
		sessions: map[string]*session{},
		clock:    realClock{},
	}
}

// WithClock swaps the underlying clock (primarily for tests).
func (t *Tracker) WithClock(clock Clock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if clock == nil {
		t.clock = realClock{}
		return
	}
	t.clock = clock
}

// Switch moves the active-time clock from prev to next.
func (t *Tracker) Switch(prev, next string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	if prev != "" && t.active == prev {
		t.sessionLocked(prev).elapsed += now.Sub(t.started)
	}
	if next == "" {
		t.active = ""
		return
	}
	t.sessionLocked(next)
	t.active = next
	t.started = now
}

// Observe records the current size of a document. The first observation is the baseline
// WordsAdded is measured from.
func (t *Tracker) Observe(path string, counts Counts) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.sessionLocked(path)
	if !s.observed {
		s.opened = counts
		s.observed = true
	}
	s.current = counts
}

// Close ends the session of a document.
func (t *Tracker) Close(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == path {
		t.active = ""
	}
	delete(t.sessions, path)
}

// StopAll flushes the active timer without ending any session.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == "" {
		return
	}
	t.sessionLocked(t.active).elapsed += t.clock.Now().Sub(t.started)
	t.active = ""
}

// Duration reports the accumulated active time of the document.
func (t *Tracker) Duration(path string) time.Duration {
	return t.Session(path).Active
}

// Session returns a snapshot of the document's session. Unknown documents yield the zero value.
func (t *Tracker) Session(path string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[path]
	if !ok {
		return Session{}
	}
	snap := Session{Active: s.elapsed, Opened: s.opened, Current: s.current}
	if path == t.active {
		snap.Active += t.clock.Now().Sub(t.started)
	}
	return snap
}

func (t *Tracker) sessionLocked(path string) *session {
	s, ok := t.sessions[path]
	if !ok {
		s = &session{}
		t.sessions[path] = s
	}
	return s
}

// FormatDuration renders a duration in the coarsest useful units.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	seconds := int(d / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		remMinutes := minutes % 60
		if remMinutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, remMinutes)
	}
	days := hours / 24
	remHours := hours % 24
	if remHours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, remHours)
}
