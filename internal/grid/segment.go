package grid

import "time"

// DayPosition tags which slice of a multi-day event a segment represents.
type DayPosition string

const (
	PositionStart  DayPosition = "start"
	PositionMiddle DayPosition = "middle"
	PositionEnd    DayPosition = "end"
)

// Segment is the portion of an event that falls within one calendar day.
// Segments are derived on every layout pass and never mutated or persisted;
// any mutation triggered through a segment targets the original event via
// OriginalID.
type Segment struct {
	OriginalID string
	SegmentID  string
	Day        time.Time // midnight of the segment's day, display timezone
	Start      time.Time
	End        time.Time
	MultiDay   bool
	Position   DayPosition
	Event      Event
}

// Duration returns the segment's in-day duration.
func (s Segment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Resizable reports whether the bottom handle may adjust this segment.
// Middle slices of a multi-day event have neither boundary on screen.
func (s Segment) Resizable() bool {
	return !s.MultiDay || s.Position != PositionMiddle
}

// Segmenter decomposes events into per-day segments for a visible date
// range.
type Segmenter struct {
	geo *Geometry
}

// NewSegmenter returns a segmenter bound to the display timezone in geo.
func NewSegmenter(geo *Geometry) *Segmenter {
	return &Segmenter{geo: geo}
}

// Split decomposes one event into segments, one per visible day the event
// touches. A single-day event yields exactly one segment equal to the
// original; an event spanning N days yields one segment per day with the
// first running to end of day, the last from start of day, and the rest a
// full 24 hours. Events with an inverted range are corrected first via
// Normalized, so splitting is safe on malformed input.
func (s *Segmenter) Split(ev Event, visible []time.Time) []Segment {
	if ev.StartAt.IsZero() || ev.EndAt.IsZero() {
		return nil
	}
	ev = ev.Normalized()

	start := ev.StartAt.In(s.geo.Location())
	end := ev.EndAt.In(s.geo.Location())

	visibleSet := make(map[string]time.Time, len(visible))
	for _, d := range visible {
		day := s.geo.StartOfDay(d)
		visibleSet[dayKey(day)] = day
	}

	// An event ending exactly at midnight belongs to the previous day.
	lastDay := s.geo.StartOfDay(end.Add(-time.Nanosecond))
	firstDay := s.geo.StartOfDay(start)

	if lastDay.Equal(firstDay) {
		day, ok := visibleSet[dayKey(firstDay)]
		if !ok {
			return nil
		}
		return []Segment{{
			OriginalID: ev.ID,
			SegmentID:  ev.ID,
			Day:        day,
			Start:      start,
			End:        end,
			Event:      ev,
		}}
	}

	var segs []Segment
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		visibleDay, ok := visibleSet[dayKey(day)]
		if !ok {
			continue
		}
		seg := Segment{
			OriginalID: ev.ID,
			SegmentID:  ev.ID + ":" + dayKey(day),
			Day:        visibleDay,
			MultiDay:   true,
			Event:      ev,
		}
		switch {
		case day.Equal(firstDay):
			seg.Position = PositionStart
			seg.Start = start
			seg.End = day.AddDate(0, 0, 1)
		case day.Equal(lastDay):
			seg.Position = PositionEnd
			seg.Start = day
			seg.End = end
		default:
			seg.Position = PositionMiddle
			seg.Start = day
			seg.End = day.AddDate(0, 0, 1)
		}
		segs = append(segs, seg)
	}
	return segs
}

// SplitAll segments every event and buckets the results per visible day,
// preserving the input event order within each bucket. Malformed events are
// skipped rather than failing the whole pass.
func (s *Segmenter) SplitAll(events []Event, visible []time.Time) map[string][]Segment {
	byDay := make(map[string][]Segment)
	for _, ev := range events {
		for _, seg := range s.Split(ev, visible) {
			key := dayKey(seg.Day)
			byDay[key] = append(byDay[key], seg)
		}
	}
	return byDay
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
