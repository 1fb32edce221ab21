package query

import (
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	rest := c.timers[:0]
	for _, t := range c.timers {
		if t.at <= c.now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		if !t.stopped {
			t.f()
		}
	}
}

type emitted struct {
	mu    sync.Mutex
	terms []string
}

func (e *emitted) add(term string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.terms = append(e.terms, term)
}

func (e *emitted) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.terms...)
}

const quiet = 500 * time.Millisecond

func newTestDebouncer() (*Debouncer, *fakeClock, *emitted) {
	clock := &fakeClock{}
	out := &emitted{}
	return NewDebouncer(quiet, out.add, WithClock(clock)), clock, out
}

func TestDebounceOnlyFinalValue(t *testing.T) {
	d, clock, out := newTestDebouncer()

	for _, v := range []string{"A", "Ad", "Adm", "Admin", "Admin ", "Admin R", "Admin Role"} {
		d.Input(v)
		clock.Advance(quiet / 2)
	}
	if got := out.all(); len(got) != 0 {
		t.Fatalf("intermediate keystrokes emitted: %v", got)
	}
	if d.State() != DebouncePending {
		t.Fatalf("state = %v", d.State())
	}

	clock.Advance(quiet)
	if got := out.all(); len(got) != 1 || got[0] != "Admin Role" {
		t.Fatalf("emitted = %v", got)
	}
	if d.State() != DebounceFired || d.Term() != "Admin Role" {
		t.Fatalf("state = %v, term = %q", d.State(), d.Term())
	}
}

func TestDebounceSuppressesDuplicates(t *testing.T) {
	d, clock, out := newTestDebouncer()

	d.Input("roles")
	clock.Advance(quiet)
	d.Input("roles  ")
	clock.Advance(quiet)
	d.Input("   ")
	clock.Advance(quiet)
	d.Input("")
	clock.Advance(quiet)

	if got := out.all(); len(got) != 2 || got[0] != "roles" || got[1] != "" {
		t.Fatalf("emitted = %v", got)
	}
}

func TestDebounceInitialEmptyIsNotEmitted(t *testing.T) {
	d, clock, out := newTestDebouncer()
	d.Input("  ")
	clock.Advance(quiet)
	if got := out.all(); len(got) != 0 {
		t.Fatalf("emitted = %v", got)
	}
}

func TestFlushBypassesInterval(t *testing.T) {
	d, clock, out := newTestDebouncer()

	d.Input(" admin ")
	d.Flush()
	if got := out.all(); len(got) != 1 || got[0] != "admin" {
		t.Fatalf("emitted after flush = %v", got)
	}

	clock.Advance(2 * quiet)
	if got := out.all(); len(got) != 1 {
		t.Fatalf("cancelled timer still fired: %v", got)
	}

	d.Flush()
	if got := out.all(); len(got) != 1 {
		t.Fatalf("repeated flush emitted a duplicate: %v", got)
	}
}

func TestRawAndTermTrackedSeparately(t *testing.T) {
	d, clock, _ := newTestDebouncer()
	d.Input("Admin")
	clock.Advance(quiet)
	d.Input("Admin Ro")

	if d.Raw() != "Admin Ro" {
		t.Fatalf("Raw() = %q", d.Raw())
	}
	if d.Term() != "Admin" {
		t.Fatalf("Term() = %q", d.Term())
	}
}

func TestDebounceRealClock(t *testing.T) {
	got := make(chan string, 1)
	d := NewDebouncer(10*time.Millisecond, func(term string) { got <- term })
	d.Input("x")
	select {
	case term := <-got:
		if term != "x" {
			t.Fatalf("term = %q", term)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
}
