package draft

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{c: c, at: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d and runs due callbacks in order, outside
// the clock lock so callbacks may schedule new timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at != due[j].at {
				return due[i].at < due[j].at
			}
			return due[i].seq < due[j].seq
		})
		next := due[0]
		next.fired = true
		if next.at > c.now {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
	}
}

// pending counts live timers.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type storeCall struct {
	Op     string
	ID     string
	Fields models.Fields
}

// fakeStore records calls. During, when set, runs inside each call.
type fakeStore struct {
	mu      sync.Mutex
	calls   []storeCall
	ctxErrs []error
	Err     error
	During  func()
}

func (s *fakeStore) do(ctx context.Context, op, id string, f models.Fields) error {
	s.mu.Lock()
	s.calls = append(s.calls, storeCall{Op: op, ID: id, Fields: f.Clone()})
	during, err := s.During, s.Err
	s.mu.Unlock()

	if during != nil {
		during()
	}

	s.mu.Lock()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.mu.Unlock()
	return err
}

func (s *fakeStore) Create(ctx context.Context, id string, f models.Fields) error {
	return s.do(ctx, "create", id, f)
}

func (s *fakeStore) Update(ctx context.Context, id string, f models.Fields) error {
	return s.do(ctx, "update", id, f)
}

// CtxErrs returns the context error each call saw when it finished.
func (s *fakeStore) CtxErrs() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.ctxErrs...)
}

// blockFirstCall makes the first store call wait until release is closed.
// entered is closed once that call has started.
func (s *fakeStore) blockFirstCall() (entered, release chan struct{}) {
	entered, release = make(chan struct{}), make(chan struct{})
	var once sync.Once
	s.During = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	return entered, release
}

func (s *fakeStore) Calls() []storeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storeCall(nil), s.calls...)
}

// fakeSource is a session with a fixed identity and a settable profile.
type fakeSource struct {
	mu         sync.Mutex
	identity   *models.Identity
	profile    *models.Profile
	refreshes  int
	RefreshErr error
}

func (f *fakeSource) Identity() *models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity.Clone()
}

func (f *fakeSource) Profile() *models.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile.Clone()
}

func (f *fakeSource) RefreshProfile(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.RefreshErr
}
