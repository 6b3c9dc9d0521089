package app

import (
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type emitted struct {
	Event   string
	Payload any
}

// recConn records everything emitted to it.
type recConn struct {
	id domain.ConnectionID

	mu      sync.Mutex
	events  []emitted
	closed  int
	emitErr error
}

func newRecConn(id string) *recConn { return &recConn{id: domain.ConnectionID(id)} }

func (c *recConn) ID() domain.ConnectionID { return c.id }

func (c *recConn) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emitErr != nil {
		return c.emitErr
	}
	c.events = append(c.events, emitted{Event: event, Payload: payload})
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func (c *recConn) Events() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.events...)
}

func (c *recConn) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Messages returns the payloads of every "message" event.
func (c *recConn) Messages() []domain.ChatMessage {
	var out []domain.ChatMessage
	for _, e := range c.Events() {
		if e.Event == domain.EventMessage {
			out = append(out, e.Payload.(domain.ChatMessage))
		}
	}
	return out
}

type manualTimer struct {
	s       *manualScheduler
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	live := !t.stopped && !t.fired
	t.stopped = true
	return live
}

// Trigger runs the callback even if the timer was stopped, like a
// callback that was already queued when Stop was called.
func (t *manualTimer) Trigger() {
	t.s.mu.Lock()
	t.fired = true
	t.s.mu.Unlock()
	t.f()
}

// manualScheduler fires timers only when told to.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) core.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) All() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*manualTimer(nil), s.timers...)
}

func (s *manualScheduler) Live() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// FireLive triggers every timer that is still pending.
func (s *manualScheduler) FireLive() {
	for _, t := range s.Live() {
		t.Trigger()
	}
}

func newTestRoom(opts Options) (*RoomManager, *manualScheduler) {
	sched := &manualScheduler{}
	opts.Scheduler = sched
	opts.Now = func() time.Time { return testNow }
	m := NewRoomManager(opts)
	m.Start()
	return m, sched
}
