package interaction

import (
	"testing"
	"time"

	"github.com/tutur3u/timegrid/internal/grid"
)

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func testController(t *testing.T) *Controller {
	t.Helper()
	geo, err := grid.NewGeometry("UTC")
	if err != nil {
		t.Fatalf("geometry: %v", err)
	}
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = utc(2025, 3, 10, 0, 0).AddDate(0, 0, i)
	}
	c, err := NewController(Config{Geometry: geo, Dates: dates, ColWidth: 200})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	return c
}

func yFor(hours float64) float64 {
	return hours * grid.DefaultHourHeight
}

func TestCreate_DragProducesSnappedRange(t *testing.T) {
	c := testController(t)

	if err := c.PressEmpty(Pointer{X: 10, Y: yFor(9)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	if c.State() != Creating {
		t.Fatalf("state = %v, want creating", c.State())
	}

	preview := c.Move(Pointer{X: 10, Y: yFor(10.52)})
	if preview.Action != ActionPreview {
		t.Fatalf("move action = %v, want preview", preview.Action)
	}

	got := c.Release(Pointer{X: 10, Y: yFor(10.52)})
	if got.Action != ActionCreate {
		t.Fatalf("release action = %v, want create", got.Action)
	}
	if !got.Start.Equal(utc(2025, 3, 10, 9, 0)) {
		t.Errorf("start = %v, want 09:00", got.Start)
	}
	// 10.52 hours is 10:31, snapping to 10:30.
	if !got.End.Equal(utc(2025, 3, 10, 10, 30)) {
		t.Errorf("end = %v, want 10:30", got.End)
	}
	if c.State() != Idle {
		t.Errorf("state after release = %v, want idle", c.State())
	}
}

func TestCreate_ShortDragDiscarded(t *testing.T) {
	c := testController(t)

	if err := c.PressEmpty(Pointer{X: 10, Y: yFor(9)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	c.Move(Pointer{X: 10, Y: yFor(9.02)})
	got := c.Release(Pointer{X: 10, Y: yFor(9.02)})
	if got.Action != ActionDiscard {
		t.Errorf("action = %v, want discard for sub-5-minute drag", got.Action)
	}
}

func TestCreate_ReversedDragSwapsEndpoints(t *testing.T) {
	c := testController(t)

	if err := c.PressEmpty(Pointer{X: 10, Y: yFor(10)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	got := c.Release(Pointer{X: 10, Y: yFor(9)})
	if got.Action != ActionCreate {
		t.Fatalf("action = %v, want create", got.Action)
	}
	if !got.Start.Equal(utc(2025, 3, 10, 9, 0)) || !got.End.Equal(utc(2025, 3, 10, 10, 0)) {
		t.Errorf("range = %v-%v, want 09:00-10:00", got.Start, got.End)
	}
}

func TestCreate_MinimumDurationFloor(t *testing.T) {
	c := testController(t)
	c.cfg.MinCreate = 5 * time.Minute
	c.cfg.Snap = 5 * time.Minute

	if err := c.PressEmpty(Pointer{X: 10, Y: yFor(9)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	// 10 minutes dragged: past the discard threshold, under the floor.
	got := c.Release(Pointer{X: 10, Y: yFor(9) + grid.DefaultHourHeight/6})
	if got.Action != ActionCreate {
		t.Fatalf("action = %v, want create", got.Action)
	}
	if want := 15 * time.Minute; got.End.Sub(got.Start) != want {
		t.Errorf("duration = %v, want floored to %v", got.End.Sub(got.Start), want)
	}
}

func TestMove_ClickUnderThresholdOpensEditor(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 0)}

	if err := c.PressEvent(ev, grid.Segment{}, Pointer{X: 50, Y: yFor(9.25)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	if r := c.Move(Pointer{X: 52, Y: yFor(9.25) + 3}); r.Action != ActionNone {
		t.Errorf("sub-threshold move action = %v, want none", r.Action)
	}
	got := c.Release(Pointer{X: 52, Y: yFor(9.25) + 3})
	if got.Action != ActionOpenEditor || got.EventID != "e1" {
		t.Errorf("got %+v, want open editor for e1", got)
	}
}

func TestMove_DragDownOneHour(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 30)}

	if err := c.PressEvent(ev, grid.Segment{}, Pointer{X: 50, Y: yFor(9.25)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	c.Move(Pointer{X: 50, Y: yFor(10.25)})
	got := c.Release(Pointer{X: 50, Y: yFor(10.25)})

	if got.Action != ActionUpdate {
		t.Fatalf("action = %v, want update", got.Action)
	}
	if !got.Start.Equal(utc(2025, 3, 10, 10, 0)) || !got.End.Equal(utc(2025, 3, 10, 11, 30)) {
		t.Errorf("range = %v-%v, want 10:00-11:30", got.Start, got.End)
	}
	if !got.Locked {
		t.Error("moving an event must lock it")
	}
	if got.EventID != "e1" {
		t.Errorf("event id = %q, want e1", got.EventID)
	}
}

func TestMove_HorizontalSnapsToDayColumns(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 0)}

	if err := c.PressEvent(ev, grid.Segment{}, Pointer{X: 50, Y: yFor(9.25)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	// 1.4 columns right rounds to one whole day.
	got := c.Release(Pointer{X: 50 + 280, Y: yFor(9.25)})
	if got.Action != ActionUpdate {
		t.Fatalf("action = %v, want update", got.Action)
	}
	if !got.Start.Equal(utc(2025, 3, 11, 9, 0)) {
		t.Errorf("start = %v, want next day 09:00", got.Start)
	}
	if got.End.Sub(got.Start) != time.Hour {
		t.Errorf("duration changed to %v", got.End.Sub(got.Start))
	}
}

func TestMove_LockedEventRejected(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", Locked: true, StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 0)}
	if err := c.PressEvent(ev, grid.Segment{}, Pointer{}); err != ErrLocked {
		t.Errorf("err = %v, want ErrLocked", err)
	}
	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
}

func TestResize_ExtendsEnd(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 0)}
	seg := grid.Segment{OriginalID: "e1", SegmentID: "e1", Day: utc(2025, 3, 10, 0, 0), Start: ev.StartAt, End: ev.EndAt}

	if err := c.PressHandle(ev, seg, Pointer{X: 50, Y: yFor(10)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	c.Move(Pointer{X: 50, Y: yFor(11.5)})
	got := c.Release(Pointer{X: 50, Y: yFor(11.5)})

	if got.Action != ActionUpdate {
		t.Fatalf("action = %v, want update", got.Action)
	}
	if !got.Start.Equal(ev.StartAt) {
		t.Errorf("start moved to %v; resize only adjusts the end", got.Start)
	}
	if !got.End.Equal(utc(2025, 3, 10, 11, 30)) {
		t.Errorf("end = %v, want 11:30", got.End)
	}
	if !got.Locked {
		t.Error("resizing an event must lock it")
	}
}

func TestResize_InversionClampsToMinimum(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 0)}
	seg := grid.Segment{OriginalID: "e1", SegmentID: "e1", Day: utc(2025, 3, 10, 0, 0), Start: ev.StartAt, End: ev.EndAt}

	if err := c.PressHandle(ev, seg, Pointer{X: 50, Y: yFor(10)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	// Dragging the bottom handle above the event's start.
	got := func() Result { c.Move(Pointer{X: 50, Y: yFor(8)}); return c.Release(Pointer{X: 50, Y: yFor(8)}) }()
	if got.Action != ActionUpdate {
		t.Fatalf("action = %v, want update", got.Action)
	}
	if want := utc(2025, 3, 10, 9, 15); !got.End.Equal(want) {
		t.Errorf("end = %v, want clamped to %v", got.End, want)
	}
}

func TestResize_MiddleSegmentRejected(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", StartAt: utc(2025, 3, 9, 22, 0), EndAt: utc(2025, 3, 12, 2, 0)}
	seg := grid.Segment{OriginalID: "e1", MultiDay: true, Position: grid.PositionMiddle}

	if err := c.PressHandle(ev, seg, Pointer{}); err != ErrNotResizable {
		t.Errorf("err = %v, want ErrNotResizable", err)
	}
}

func TestCancel_DiscardsPreview(t *testing.T) {
	c := testController(t)
	ev := grid.Event{ID: "e1", StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 0)}

	if err := c.PressEvent(ev, grid.Segment{}, Pointer{X: 50, Y: yFor(9)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	c.Move(Pointer{X: 50, Y: yFor(12)})
	c.Cancel()

	if c.State() != Idle {
		t.Errorf("state = %v, want idle after cancel", c.State())
	}
	if got := c.Release(Pointer{X: 50, Y: yFor(12)}); got.Action != ActionNone {
		t.Errorf("release after cancel = %v, want none", got.Action)
	}
}

func TestPress_RejectsConcurrentGesture(t *testing.T) {
	c := testController(t)
	if err := c.PressEmpty(Pointer{X: 10, Y: yFor(9)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	if err := c.PressEmpty(Pointer{X: 10, Y: yFor(10)}); err != ErrBusy {
		t.Errorf("second press err = %v, want ErrBusy", err)
	}
}

func TestPressEmpty_OutsideColumns(t *testing.T) {
	c := testController(t)
	if err := c.PressEmpty(Pointer{X: 7 * 200, Y: yFor(9)}); err != ErrOutsideColumn {
		t.Errorf("err = %v, want ErrOutsideColumn", err)
	}
}
