// Package notify shows user-facing toasts on the console.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// DefaultDuration is how long a toast stays active when no duration is given.
const DefaultDuration = 3 * time.Second

// Notifier is what other components use to raise a toast.
type Notifier interface {
	Show(text string, kind Kind, d time.Duration) int64
}

type Toast struct {
	ID        int64
	Text      string
	Kind      Kind
	Duration  time.Duration
	CreatedAt time.Time
}

// Center keeps the active toasts and prints each one as it is shown.
type Center struct {
	mu     sync.Mutex
	out    io.Writer
	log    *slog.Logger
	nextID int64
	active []Toast
	timers map[int64]*time.Timer
}

var _ Notifier = (*Center)(nil)

func NewCenter(out io.Writer, log *slog.Logger) *Center {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Center{out: out, log: log, timers: make(map[int64]*time.Timer)}
}

// Show adds a toast and schedules its dismissal. It returns the toast id.
func (c *Center) Show(text string, kind Kind, d time.Duration) int64 {
	if d <= 0 {
		d = DefaultDuration
	}
	c.mu.Lock()
	c.nextID++
	t := Toast{ID: c.nextID, Text: text, Kind: kind, Duration: d, CreatedAt: time.Now()}
	c.active = append(c.active, t)
	c.timers[t.ID] = time.AfterFunc(d, func() { c.Close(t.ID) })
	fmt.Fprintf(c.out, "[%s] %s\n", kind, text)
	c.mu.Unlock()

	c.log.Debug("toast shown", "id", t.ID, "kind", kind, "text", text)
	return t.ID
}

func (c *Center) Close(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tm, ok := c.timers[id]; ok {
		tm.Stop()
		delete(c.timers, id)
	}
	for i, t := range c.active {
		if t.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return
		}
	}
}

// Active returns a copy of the toasts not yet dismissed.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, len(c.active))
	copy(out, c.active)
	return out
}
