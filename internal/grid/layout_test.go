package grid

import (
	"testing"
	"time"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(mustGeometry(t, "UTC"))
	e.Now = func() time.Time { return utc(2025, 3, 10, 12, 0) }
	return e
}

func TestLayout_BasicRect(t *testing.T) {
	e := testEngine(t)
	seg := daySegment("e1", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 30))
	seg.Day = utc(2025, 3, 10, 0, 0)

	rect := e.Layout(seg, ColumnInfo{GroupSize: 1}, 0, 200)

	if rect.Top != 9*DefaultHourHeight {
		t.Errorf("top = %v, want %v", rect.Top, 9*DefaultHourHeight)
	}
	if rect.Height != 1.5*DefaultHourHeight {
		t.Errorf("height = %v, want %v", rect.Height, 1.5*DefaultHourHeight)
	}
	if rect.Width != 200-2*columnMargin {
		t.Errorf("width = %v, want near full column", rect.Width)
	}
	if rect.Left != columnMargin {
		t.Errorf("left = %v, want %v", rect.Left, columnMargin)
	}
	if rect.ZIndex != baseZIndex {
		t.Errorf("z-index = %d, want %d", rect.ZIndex, baseZIndex)
	}
}

func TestLayout_MinimumHeight(t *testing.T) {
	e := testEngine(t)
	seg := daySegment("tiny", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 9, 5))
	rect := e.Layout(seg, ColumnInfo{GroupSize: 1}, 0, 200)
	if rect.Height != MinEventHeight {
		t.Errorf("height = %v, want floor %v", rect.Height, MinEventHeight)
	}
}

func TestLayout_StackedColumnsIndent(t *testing.T) {
	e := testEngine(t)
	seg := daySegment("e1", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0))

	base := e.Layout(seg, ColumnInfo{GroupSize: 2, Column: 0}, 0, 200)
	stacked := e.Layout(seg, ColumnInfo{GroupSize: 2, Column: 1}, 0, 200)

	if base.Width != 200-2*columnMargin {
		t.Errorf("base column width = %v, want full", base.Width)
	}
	if stacked.Left <= base.Left {
		t.Errorf("stacked left %v not indented past base %v", stacked.Left, base.Left)
	}
	if stacked.Width >= base.Width {
		t.Errorf("stacked width %v not narrower than base %v", stacked.Width, base.Width)
	}
	if stacked.ZIndex <= base.ZIndex {
		t.Errorf("stacked z-index %d not above base %d", stacked.ZIndex, base.ZIndex)
	}
}

func TestLayout_WidthFloor(t *testing.T) {
	e := testEngine(t)
	seg := daySegment("e1", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0))
	rect := e.Layout(seg, ColumnInfo{GroupSize: MaxColumns, Column: MaxColumns - 1}, 0, 200)
	base := 200 - 2*columnMargin
	if rect.Width < base*minWidthFactor {
		t.Errorf("width %v below readable floor %v", rect.Width, base*minWidthFactor)
	}
}

func TestLayout_MultiDayTruncation(t *testing.T) {
	e := testEngine(t)
	geo := e.geo
	seg := NewSegmenter(geo)
	ev := Event{ID: "e1", StartAt: utc(2025, 3, 10, 22, 0), EndAt: utc(2025, 3, 12, 2, 0)}
	segs := seg.Split(ev, weekDates(utc(2025, 3, 10, 0, 0), 3))

	wantTop := []float64{22 * DefaultHourHeight, 0, 0}
	wantHeight := []float64{2 * DefaultHourHeight, 24 * DefaultHourHeight, 2 * DefaultHourHeight}
	for i, s := range segs {
		rect := e.Layout(s, ColumnInfo{GroupSize: 1}, i, 200)
		if rect.Top != wantTop[i] {
			t.Errorf("segment %d top = %v, want %v", i, rect.Top, wantTop[i])
		}
		if rect.Height != wantHeight[i] {
			t.Errorf("segment %d height = %v, want %v", i, rect.Height, wantHeight[i])
		}
		if rect.Left != float64(i)*200+columnMargin {
			t.Errorf("segment %d left = %v, want day column %d", i, rect.Left, i)
		}
	}
}

func TestLayout_PastEvents(t *testing.T) {
	e := testEngine(t) // now = 12:00
	past := daySegment("old", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0))
	future := daySegment("new", utc(2025, 3, 10, 14, 0), utc(2025, 3, 10, 15, 0))

	if rect := e.Layout(past, ColumnInfo{GroupSize: 1}, 0, 200); !rect.Past {
		t.Error("finished event not marked past")
	}
	if rect := e.Layout(future, ColumnInfo{GroupSize: 1}, 0, 200); rect.Past {
		t.Error("upcoming event marked past")
	}
}

func TestLayoutRange_FullPipeline(t *testing.T) {
	e := testEngine(t)
	events := []Event{
		{ID: "a", StartAt: utc(2025, 3, 10, 9, 0), EndAt: utc(2025, 3, 10, 10, 0)},
		{ID: "b", StartAt: utc(2025, 3, 10, 9, 30), EndAt: utc(2025, 3, 10, 10, 30)},
		{ID: "span", StartAt: utc(2025, 3, 11, 22, 0), EndAt: utc(2025, 3, 12, 2, 0)},
		{ID: "bad"}, // malformed, must be skipped without failing the pass
	}
	rects := e.LayoutRange(events, weekDates(utc(2025, 3, 10, 0, 0), 3), 200)

	if len(rects) != 4 {
		t.Fatalf("expected 4 rects (2 overlapping + 2 span segments), got %d", len(rects))
	}

	byID := make(map[string]Rect)
	for _, r := range rects {
		byID[r.SegmentID] = r
	}
	if byID["a"].ZIndex == byID["b"].ZIndex {
		t.Error("overlapping events share a z-index")
	}
	if byID["span:2025-03-11"].Position != PositionStart {
		t.Errorf("span first segment position = %q", byID["span:2025-03-11"].Position)
	}
	if byID["span:2025-03-12"].Position != PositionEnd {
		t.Errorf("span second segment position = %q", byID["span:2025-03-12"].Position)
	}
}
