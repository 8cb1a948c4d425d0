// Package outbox owns optimistic local event state and the debounced
// writes that persist it. Every event gets a small outbox entry
// {pendingPatch, timer, lastKnownGood}; rollback on a failed write is a
// plain data operation on that entry, never a UI concern.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/tutur3u/timegrid/internal/grid"
	"github.com/tutur3u/timegrid/internal/metrics"
)

// DefaultWindow is how long rapid successive patches for one event are
// coalesced before a single outbound write is sent.
const DefaultWindow = 250 * time.Millisecond

// Status is the sync state a host may surface for one event.
type Status int

const (
	StatusIdle Status = iota
	StatusSyncing
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSyncing:
		return "syncing"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Patch is a partial event mutation. Nil fields are left untouched.
type Patch struct {
	StartAt *time.Time
	EndAt   *time.Time
	Color   *grid.Color
	Locked  *bool
	Title   *string
}

// merge overlays q on top of p; the latest non-nil field wins.
func (p Patch) merge(q Patch) Patch {
	if q.StartAt != nil {
		p.StartAt = q.StartAt
	}
	if q.EndAt != nil {
		p.EndAt = q.EndAt
	}
	if q.Color != nil {
		p.Color = q.Color
	}
	if q.Locked != nil {
		p.Locked = q.Locked
	}
	if q.Title != nil {
		p.Title = q.Title
	}
	return p
}

// applyTo produces the optimistic event the patch describes. The result is
// normalized, so an inverted range can never enter local state.
func (p Patch) applyTo(ev grid.Event) grid.Event {
	if p.StartAt != nil {
		ev.StartAt = *p.StartAt
	}
	if p.EndAt != nil {
		ev.EndAt = *p.EndAt
	}
	if p.Color != nil {
		ev.Color = *p.Color
	}
	if p.Locked != nil {
		ev.Locked = *p.Locked
	}
	if p.Title != nil {
		ev.Title = *p.Title
	}
	return ev.Normalized()
}

// Remote is the persistence collaborator the coordinator writes through.
// Calls are expected to be slow and may fail; the coordinator never blocks
// interaction on them.
type Remote interface {
	AddEvent(ctx context.Context, start, end time.Time) (grid.Event, error)
	UpdateEvent(ctx context.Context, id string, patch Patch) error
	DeleteEvent(ctx context.Context, id string) error
}

type entry struct {
	pending       *Patch
	timer         *time.Timer
	lastKnownGood grid.Event
	inFlight      bool
}

// Coordinator tracks optimistic event state and flushes coalesced patches
// to the remote store. For a single event id, writes reach the remote in
// the order their patches were coalesced; writes for different events are
// unordered relative to each other.
type Coordinator struct {
	mu      sync.Mutex
	remote  Remote
	window  time.Duration
	notify  func(id string, st Status)
	events  map[string]grid.Event
	entries map[string]*entry
	closed  bool
}

// New builds a coordinator around the remote. window <= 0 selects
// DefaultWindow; notify may be nil when the host has no status indicator.
func New(remote Remote, window time.Duration, notify func(id string, st Status)) *Coordinator {
	if window <= 0 {
		window = DefaultWindow
	}
	if notify == nil {
		notify = func(string, Status) {}
	}
	return &Coordinator{
		remote:  remote,
		window:  window,
		notify:  notify,
		events:  make(map[string]grid.Event),
		entries: make(map[string]*entry),
	}
}

// Load seeds local state with the server's events. Each becomes its own
// last known good value.
func (c *Coordinator) Load(events []grid.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range events {
		ev = ev.Normalized()
		c.events[ev.ID] = ev
		c.entries[ev.ID] = &entry{lastKnownGood: ev}
	}
}

// Event returns the current optimistic view of one event.
func (c *Coordinator) Event(id string) (grid.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.events[id]
	return ev, ok
}

// Events returns the current optimistic view of all events.
func (c *Coordinator) Events() []grid.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]grid.Event, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev)
	}
	return out
}

// ScheduleUpdate applies the patch to local state immediately and schedules
// a coalesced remote write. Successive calls within the window fold into
// one write carrying only the latest value per field.
func (c *Coordinator) ScheduleUpdate(id string, patch Patch) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ev, ok := c.events[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	e := c.entries[id]
	if e == nil {
		e = &entry{lastKnownGood: ev}
		c.entries[id] = e
	}

	merged := Patch{}
	if e.pending != nil {
		merged = *e.pending
	}
	merged = merged.merge(patch)
	e.pending = &merged
	c.events[id] = merged.applyTo(e.lastKnownGood)

	if e.timer == nil && !e.inFlight {
		e.timer = time.AfterFunc(c.window, func() { c.flush(id) })
	}
	c.mu.Unlock()

	c.notify(id, StatusSyncing)
}

// Flush sends any pending patch for the event right away instead of waiting
// out the window. Hosts call it when a gesture ends.
func (c *Coordinator) Flush(id string) {
	c.mu.Lock()
	if e := c.entries[id]; e != nil && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	c.mu.Unlock()
	c.flush(id)
}

func (c *Coordinator) flush(id string) {
	c.mu.Lock()
	e := c.entries[id]
	if e == nil || c.closed {
		c.mu.Unlock()
		return
	}
	e.timer = nil
	if e.pending == nil || e.inFlight {
		// An in-flight write reschedules on completion.
		c.mu.Unlock()
		return
	}
	patch := *e.pending
	e.pending = nil
	e.inFlight = true
	c.mu.Unlock()

	go func() {
		err := c.remote.UpdateEvent(context.Background(), id, patch)

		c.mu.Lock()
		if c.closed {
			// Torn down mid-flight: the result is ignored.
			c.mu.Unlock()
			return
		}
		e.inFlight = false
		status := StatusSuccess
		if err != nil {
			// Roll back to the last value the server confirmed, keeping any
			// patches that arrived since on top. The error state never
			// blocks interaction; the next mutation retries.
			c.events[id] = e.lastKnownGood
			if e.pending != nil {
				c.events[id] = e.pending.applyTo(e.lastKnownGood)
			}
			status = StatusError
		} else {
			e.lastKnownGood = patch.applyTo(e.lastKnownGood)
		}
		repending := e.pending != nil
		if repending {
			e.timer = time.AfterFunc(c.window, func() { c.flush(id) })
		}
		c.mu.Unlock()

		metrics.CountSyncOutcome(outcomeLabel(status))
		c.notify(id, status)
	}()
}

func outcomeLabel(s Status) string {
	if s == StatusError {
		return "error"
	}
	return "success"
}

// Add creates an event through the remote and, on success, adopts it into
// local state.
func (c *Coordinator) Add(ctx context.Context, start, end time.Time) (grid.Event, error) {
	ev, err := c.remote.AddEvent(ctx, start, end)
	if err != nil {
		return grid.Event{}, err
	}
	ev = ev.Normalized()

	c.mu.Lock()
	if !c.closed {
		c.events[ev.ID] = ev
		c.entries[ev.ID] = &entry{lastKnownGood: ev}
	}
	c.mu.Unlock()
	return ev, nil
}

// Delete removes the event optimistically and issues the remote delete in
// the background, restoring local state if the remote rejects it.
func (c *Coordinator) Delete(id string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ev, ok := c.events[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	if e := c.entries[id]; e != nil && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
		e.pending = nil
	}
	delete(c.events, id)
	c.mu.Unlock()

	c.notify(id, StatusSyncing)

	go func() {
		err := c.remote.DeleteEvent(context.Background(), id)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		status := StatusSuccess
		if err != nil {
			c.events[id] = ev
			status = StatusError
		} else {
			delete(c.entries, id)
		}
		c.mu.Unlock()

		metrics.CountSyncOutcome(outcomeLabel(status))
		c.notify(id, status)
	}()
}

// Close tears the coordinator down: pending timers are cleared and results
// of in-flight calls are ignored when they resolve.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.pending = nil
	}
}
