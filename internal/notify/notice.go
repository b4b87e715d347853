// Package notify holds short-lived user notices. A newer notice always
// supersedes an older one, and a scheduled clear only removes the notice
// it was scheduled for.
package notify

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is how long a notice stays visible.
const DefaultTTL = 3 * time.Second

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// MarshalText lets Level appear as a string in JSON.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the names written by MarshalText.
func (l *Level) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*l = LevelInfo
	case "success":
		*l = LevelSuccess
	case "warn":
		*l = LevelWarn
	case "error":
		*l = LevelError
	default:
		return fmt.Errorf("unknown notice level %q", text)
	}
	return nil
}

// Notice is a single message. ID is the token a scheduled clear must
// present to remove it.
type Notice struct {
	ID        uint64    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	PostedAt  time.Time `json:"postedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var lastID atomic.Uint64

// New creates a notice with a fresh ID.
func New(level Level, msg string, ttl time.Duration) Notice {
	now := time.Now()
	return Notice{
		ID:        lastID.Add(1),
		Level:     level,
		Message:   msg,
		PostedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Board keeps the current notice and its expiry timer. Safe for
// concurrent use.
type Board struct {
	ttl time.Duration

	mu      sync.Mutex
	current *Notice
	timer   *time.Timer

	// OnChange, when set, is called after every post or clear with the
	// notice now showing (ok=false once cleared). It runs without the
	// board lock held.
	OnChange func(n Notice, ok bool)
}

// NewBoard returns a board whose notices last ttl (DefaultTTL if <= 0).
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl}
}

// Post replaces the current notice and schedules its clear.
func (b *Board) Post(level Level, msg string) Notice {
	n := New(level, msg, b.ttl)

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.current = &n
	id := n.ID
	b.timer = time.AfterFunc(b.ttl, func() { b.Expire(id) })
	b.mu.Unlock()

	b.changed(n, true)
	return n
}

// Expire clears the current notice only if its ID matches. It reports
// whether anything was cleared.
func (b *Board) Expire(id uint64) bool {
	b.mu.Lock()
	if b.current == nil || b.current.ID != id {
		b.mu.Unlock()
		return false
	}
	b.current = nil
	b.timer = nil
	b.mu.Unlock()

	b.changed(Notice{}, false)
	return true
}

// Dismiss clears whatever is showing.
func (b *Board) Dismiss() {
	b.mu.Lock()
	if b.current == nil {
		b.mu.Unlock()
		return
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.current = nil
	b.mu.Unlock()

	b.changed(Notice{}, false)
}

// Current returns the visible notice, if any.
func (b *Board) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Stop cancels any pending clear without changing the current notice.
func (b *Board) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Board) changed(n Notice, ok bool) {
	if b.OnChange != nil {
		b.OnChange(n, ok)
	}
}
