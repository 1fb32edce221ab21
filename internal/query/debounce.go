package query

import (
	"strings"
	"sync"
	"time"
)

type DebounceState int

const (
	DebounceIdle DebounceState = iota
	DebouncePending
	DebounceFired
)

func (s DebounceState) String() string {
	switch s {
	case DebouncePending:
		return "pending"
	case DebounceFired:
		return "fired"
	}
	return "idle"
}

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer turns raw keystrokes into search terms. A trimmed value is
// emitted once no input arrived for the interval, and only when it differs
// from the last emitted term. Flush emits immediately.
type Debouncer struct {
	interval time.Duration
	clock    Clock
	emit     func(term string)

	mu      sync.Mutex
	raw     string
	pending string
	term    string
	state   DebounceState
	timer   Timer
	gen     uint64
}

type DebounceOption func(*Debouncer)

func WithClock(c Clock) DebounceOption {
	return func(d *Debouncer) { d.clock = c }
}

func NewDebouncer(interval time.Duration, emit func(term string), opts ...DebounceOption) *Debouncer {
	d := &Debouncer{interval: interval, clock: realClock{}, emit: emit}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Input records a keystroke value and restarts the quiet interval.
func (d *Debouncer) Input(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.raw = raw
	d.stop()
	d.pending = strings.TrimSpace(raw)
	d.state = DebouncePending
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.interval, func() { d.fire(gen) })
}

// Flush emits the current raw value now and cancels the pending timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	d.stop()
	d.pending = strings.TrimSpace(d.raw)
	term, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.emit(term)
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.state != DebouncePending {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	term, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.emit(term)
	}
}

// take must be called with d.mu held.
func (d *Debouncer) take() (string, bool) {
	d.state = DebounceFired
	if d.pending == d.term {
		return "", false
	}
	d.term = d.pending
	return d.term, true
}

// stop must be called with d.mu held.
func (d *Debouncer) stop() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Raw is the value as typed.
func (d *Debouncer) Raw() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Term is the last emitted value.
func (d *Debouncer) Term() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.term
}

func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
