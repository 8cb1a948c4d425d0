package grid

import "time"

// Layout width policy: the base column keeps (near) full width while each
// stacked lane is indented and narrowed, so the common two-event overlap
// still reads clearly. Values are fractions of the day column width.
const (
	columnMargin   = 4.0  // px gap on each side of a day column
	stackIndent    = 0.12 // per-lane left indent fraction
	minWidthFactor = 0.30 // stacked lanes never shrink below this fraction
	baseZIndex     = 10
)

// Rect is the pixel geometry for one rendered segment. Rects are recomputed
// on every pass and owned by the rendering host; nothing stores them.
type Rect struct {
	SegmentID  string      `json:"segment_id"`
	OriginalID string      `json:"original_id"`
	Day        time.Time   `json:"day"`
	Position   DayPosition `json:"day_position,omitempty"`
	Top        float64     `json:"top"`
	Height     float64     `json:"height"`
	Left       float64     `json:"left"`
	Width      float64     `json:"width"`
	ZIndex     int         `json:"z_index"`
	Past       bool        `json:"past"`
	Clipped    bool        `json:"clipped,omitempty"`
	Color      Color       `json:"color"`
	Locked     bool        `json:"locked"`
	Title      string      `json:"title,omitempty"`
}

// Engine turns segments plus column assignments into absolute pixel
// rectangles. Now is injectable so past-event dimming is testable.
type Engine struct {
	geo *Geometry
	Now func() time.Time
}

// NewEngine returns a layout engine using geo for all conversions.
func NewEngine(geo *Geometry) *Engine {
	return &Engine{geo: geo, Now: time.Now}
}

// Layout computes the rectangle for one segment given its lane assignment,
// the index of its day column and the column's pixel width.
func (e *Engine) Layout(seg Segment, col ColumnInfo, dayIndex int, colWidth float64) Rect {
	top := 0.0
	if !seg.MultiDay || seg.Position == PositionStart {
		start := seg.Start.In(e.geo.Location())
		frac := float64(start.Hour()) + float64(start.Minute())/60
		top = e.geo.TimeToOffset(frac)
	}

	height := seg.Duration().Hours() * e.geo.HourHeight
	if height < MinEventHeight {
		height = MinEventHeight
	}
	if limit := e.geo.DayHeight() - top; height > limit {
		height = limit
	}

	base := colWidth - 2*columnMargin
	left := float64(dayIndex)*colWidth + columnMargin
	width := base
	if col.GroupSize > 1 && col.Column > 0 {
		indent := float64(col.Column) * stackIndent * base
		width = base - indent
		if floor := base * minWidthFactor; width < floor {
			indent = base - floor
			width = floor
		}
		left += indent
	}

	return Rect{
		SegmentID:  seg.SegmentID,
		OriginalID: seg.OriginalID,
		Day:        seg.Day,
		Position:   seg.Position,
		Top:        top,
		Height:     height,
		Left:       left,
		Width:      width,
		ZIndex:     baseZIndex + col.Column,
		Past:       seg.End.Before(e.Now()),
		Clipped:    col.Clipped,
		Color:      seg.Event.Color,
		Locked:     seg.Event.Locked,
		Title:      seg.Event.Title,
	}
}

// LayoutRange runs the whole pipeline for a visible date range: segment
// every event, resolve overlaps per day, then emit rectangles in day order.
// Individual malformed events are skipped; the pass never fails as a whole.
func (e *Engine) LayoutRange(events []Event, visible []time.Time, colWidth float64) []Rect {
	seg := NewSegmenter(e.geo)
	byDay := seg.SplitAll(events, visible)

	var rects []Rect
	for dayIndex, date := range visible {
		day := e.geo.StartOfDay(date)
		daySegs := byDay[dayKey(day)]
		if len(daySegs) == 0 {
			continue
		}
		columns := AssignColumns(daySegs)
		for _, s := range daySegs {
			rects = append(rects, e.Layout(s, columns[s.SegmentID], dayIndex, colWidth))
		}
	}
	return rects
}
