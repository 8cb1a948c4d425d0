// Package interaction turns raw pointer samples into calendar event
// mutations. The controller is a tagged-union state machine
// (Idle | Creating | Moving | Resizing) with no notion of a real input
// device: the host renderer feeds it pixel coordinates relative to the day
// grid and renders the previews it returns.
package interaction

import (
	"errors"
	"math"
	"time"

	"github.com/tutur3u/timegrid/internal/grid"
)

// State identifies the controller's current mode.
type State int

const (
	Idle State = iota
	Creating
	Moving
	Resizing
)

func (s State) String() string {
	switch s {
	case Creating:
		return "creating"
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Action tells the host what a pointer transition resolved to.
type Action int

const (
	// ActionNone: nothing to render or persist.
	ActionNone Action = iota
	// ActionPreview: render the tentative range in Result, persist nothing.
	ActionPreview
	// ActionOpenEditor: the gesture was a plain click on an event.
	ActionOpenEditor
	// ActionCreate: commit a new event with the Result range.
	ActionCreate
	// ActionUpdate: patch the original event to the Result range and lock it.
	ActionUpdate
	// ActionDiscard: the gesture was abandoned; nothing changes.
	ActionDiscard
)

// Pointer is one pointer sample in grid pixels: X from the left edge of the
// first day column, Y from 00:00 of the day row.
type Pointer struct {
	X float64
	Y float64
}

// Result carries the outcome of a transition.
type Result struct {
	Action  Action
	EventID string // original event id for updates, empty for creates
	Start   time.Time
	End     time.Time
	Locked  bool // true when the action must set the locked flag
}

// Config parameterizes one controller. Zero values fall back to the
// defaults the calendar grid has always used.
type Config struct {
	Geometry *grid.Geometry
	Dates    []time.Time // visible day columns, left to right
	ColWidth float64

	DragThreshold float64       // px of movement before a press becomes a drag
	Snap          time.Duration // grid graduation
	MinCreate     time.Duration // drags shorter than this are discarded
	MinDuration   time.Duration // committed events never get shorter
}

const (
	defaultDragThreshold = 5.0
	defaultMinCreate     = 5 * time.Minute
	defaultMinDuration   = 15 * time.Minute
)

var (
	ErrBusy          = errors.New("interaction: gesture already in progress")
	ErrLocked        = errors.New("interaction: event is locked")
	ErrNotResizable  = errors.New("interaction: middle segments cannot be resized")
	ErrNoDates       = errors.New("interaction: no visible dates")
	ErrOutsideColumn = errors.New("interaction: pointer outside day columns")
)

// Controller owns the interaction state for one grid surface.
type Controller struct {
	cfg   Config
	state State

	origin  Pointer
	moved   bool
	event   grid.Event
	segment grid.Segment
	// anchor is the snapped instant where a create gesture started, or the
	// event's original start for a move.
	anchor  time.Time
	preview Result
}

// NewController validates the configuration and returns an idle controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Geometry == nil {
		return nil, errors.New("interaction: geometry is required")
	}
	if len(cfg.Dates) == 0 {
		return nil, ErrNoDates
	}
	if cfg.ColWidth <= 0 {
		return nil, errors.New("interaction: column width must be positive")
	}
	if cfg.DragThreshold <= 0 {
		cfg.DragThreshold = defaultDragThreshold
	}
	if cfg.Snap <= 0 {
		cfg.Snap = grid.DefaultSnap
	}
	if cfg.MinCreate <= 0 {
		cfg.MinCreate = defaultMinCreate
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = defaultMinDuration
	}
	return &Controller{cfg: cfg}, nil
}

// State returns the current mode.
func (c *Controller) State() State {
	return c.state
}

// PressEmpty begins a create-by-drag gesture on an empty cell.
func (c *Controller) PressEmpty(p Pointer) error {
	if c.state != Idle {
		return ErrBusy
	}
	day, err := c.dayAt(p.X)
	if err != nil {
		return err
	}
	c.state = Creating
	c.origin = p
	c.moved = false
	c.anchor = grid.Snap(c.cfg.Geometry.InstantAt(day, p.Y), c.cfg.Snap)
	c.preview = Result{Action: ActionPreview, Start: c.anchor, End: c.anchor.Add(c.cfg.MinDuration)}
	return nil
}

// PressEvent begins a potential move on an event body. The gesture only
// becomes a drag once the pointer travels past the threshold; a release
// before that is a click and opens the editor instead. Locked events never
// enter Moving.
func (c *Controller) PressEvent(ev grid.Event, seg grid.Segment, p Pointer) error {
	if c.state != Idle {
		return ErrBusy
	}
	if ev.Locked {
		return ErrLocked
	}
	c.state = Moving
	c.origin = p
	c.moved = false
	c.event = ev.Normalized()
	c.segment = seg
	c.anchor = c.event.StartAt
	return nil
}

// PressHandle begins a resize on an event's bottom handle. Middle segments
// of a multi-day event expose no adjustable boundary.
func (c *Controller) PressHandle(ev grid.Event, seg grid.Segment, p Pointer) error {
	if c.state != Idle {
		return ErrBusy
	}
	if ev.Locked {
		return ErrLocked
	}
	if !seg.Resizable() {
		return ErrNotResizable
	}
	c.state = Resizing
	c.origin = p
	c.moved = false
	c.event = ev.Normalized()
	c.segment = seg
	return nil
}

// Move advances the active gesture with a new pointer sample and returns
// the preview to render. Outside an active gesture it is a no-op.
func (c *Controller) Move(p Pointer) Result {
	switch c.state {
	case Creating:
		c.moved = true
		c.preview = c.createRange(p)
		return c.preview
	case Moving:
		if !c.moved && c.distance(p) < c.cfg.DragThreshold {
			return Result{Action: ActionNone}
		}
		c.moved = true
		c.preview = c.moveRange(p)
		return c.preview
	case Resizing:
		c.moved = true
		c.preview = c.resizeRange(p)
		return c.preview
	default:
		return Result{Action: ActionNone}
	}
}

// Release ends the active gesture and returns the committing action:
// a create, an update, an editor open for plain clicks, or a discard.
func (c *Controller) Release(p Pointer) Result {
	defer c.reset()

	switch c.state {
	case Creating:
		r := c.createRange(p)
		if r.End.Sub(r.Start) < c.cfg.MinCreate {
			return Result{Action: ActionDiscard}
		}
		if r.End.Sub(r.Start) < c.cfg.MinDuration {
			r.End = r.Start.Add(c.cfg.MinDuration)
		}
		r.Action = ActionCreate
		return r
	case Moving:
		if !c.moved && c.distance(p) < c.cfg.DragThreshold {
			return Result{Action: ActionOpenEditor, EventID: c.event.ID}
		}
		r := c.moveRange(p)
		r.Action = ActionUpdate
		r.Locked = true
		return r
	case Resizing:
		if !c.moved && c.distance(p) < c.cfg.DragThreshold {
			return Result{Action: ActionDiscard}
		}
		r := c.resizeRange(p)
		r.Action = ActionUpdate
		r.Locked = true
		return r
	default:
		return Result{Action: ActionNone}
	}
}

// Cancel abandons the active gesture without emitting any write. Hosts call
// it on Escape, lost pointer capture, or unmount.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.moved = false
	c.event = grid.Event{}
	c.segment = grid.Segment{}
	c.preview = Result{}
}

func (c *Controller) distance(p Pointer) float64 {
	return math.Max(math.Abs(p.X-c.origin.X), math.Abs(p.Y-c.origin.Y))
}

// dayAt maps a horizontal pixel offset onto a visible day column.
func (c *Controller) dayAt(x float64) (time.Time, error) {
	idx := int(math.Floor(x / c.cfg.ColWidth))
	if idx < 0 || idx >= len(c.cfg.Dates) {
		return time.Time{}, ErrOutsideColumn
	}
	return c.cfg.Geometry.StartOfDay(c.cfg.Dates[idx]), nil
}

// createRange computes the tentative range for a create gesture. Dragging
// upward from the anchor is allowed; start and end swap so the range stays
// ordered.
func (c *Controller) createRange(p Pointer) Result {
	day := c.cfg.Geometry.StartOfDay(c.anchor)
	cursor := grid.Snap(c.cfg.Geometry.InstantAt(day, p.Y), c.cfg.Snap)

	start, end := c.anchor, cursor
	if end.Before(start) {
		start, end = end, start
	}
	return Result{Action: ActionPreview, Start: start, End: end}
}

// moveRange translates the event by the pointer delta: vertical movement
// snaps to the time grid, horizontal movement to whole day columns. The
// duration never changes.
func (c *Controller) moveRange(p Pointer) Result {
	dayDelta := int(math.Round((p.X - c.origin.X) / c.cfg.ColWidth))

	geo := c.cfg.Geometry
	origStart := c.event.StartAt.In(geo.Location())
	newTop := geo.TimeToOffset(float64(origStart.Hour())+float64(origStart.Minute())/60) + (p.Y - c.origin.Y)
	if limit := geo.DayHeight() - grid.MinEventHeight; newTop > limit {
		newTop = limit
	}

	day := geo.StartOfDay(c.event.StartAt).AddDate(0, 0, dayDelta)
	start := grid.Snap(geo.InstantAt(day, newTop), c.cfg.Snap)
	end := start.Add(c.event.EndAt.Sub(c.event.StartAt))

	return Result{Action: ActionPreview, EventID: c.event.ID, Start: start, End: end}
}

// resizeRange recomputes the event's end from the pointer position within
// the grabbed segment's day. Only the end boundary moves; a resize that
// would invert the range clamps to the minimum duration instead.
func (c *Controller) resizeRange(p Pointer) Result {
	geo := c.cfg.Geometry
	day := geo.StartOfDay(c.segment.Day)
	end := grid.Snap(geo.InstantAt(day, p.Y), c.cfg.Snap)

	if floor := c.event.StartAt.Add(c.cfg.MinDuration); end.Before(floor) {
		end = floor
	}
	return Result{Action: ActionPreview, EventID: c.event.ID, Start: c.event.StartAt, End: end}
}
