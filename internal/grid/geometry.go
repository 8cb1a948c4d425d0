package grid

import (
	"fmt"
	"math"
	"time"
)

// Grid dimensions shared by the layout and interaction code. HourHeight is
// in pixels; a day column is always 24 hours tall.
const (
	DefaultHourHeight = 80.0
	HoursPerDay       = 24
	MinEventHeight    = 16.0

	// DefaultSnap is the grid graduation used when rounding times.
	DefaultSnap = 15 * time.Minute
)

// Geometry converts between wall-clock time in a display timezone and
// vertical pixel offsets on a day column. It is pure: the host renderer
// supplies column geometry, nothing here touches a display.
type Geometry struct {
	HourHeight float64
	loc        *time.Location
}

// NewGeometry resolves the display timezone and returns a converter.
// The zone "auto" (or "") means the runtime's local timezone; anything else
// must be a valid IANA name.
func NewGeometry(timezone string) (*Geometry, error) {
	loc := time.Local
	if timezone != "" && timezone != "auto" {
		parsed, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("resolve timezone %q: %w", timezone, err)
		}
		loc = parsed
	}
	return &Geometry{HourHeight: DefaultHourHeight, loc: loc}, nil
}

// Location returns the active display timezone.
func (g *Geometry) Location() *time.Location {
	return g.loc
}

// DayHeight returns the pixel height of a full day column.
func (g *Geometry) DayHeight() float64 {
	return g.HourHeight * HoursPerDay
}

// TimeToOffset maps a fractional hour of day onto a vertical pixel offset.
func (g *Geometry) TimeToOffset(hours float64) float64 {
	return hours * g.HourHeight
}

// OffsetToTime inverts TimeToOffset, clamping the result to [0, 24).
func (g *Geometry) OffsetToTime(px float64) (hour, minute int) {
	h := px / g.HourHeight
	if h < 0 {
		h = 0
	}
	if h >= HoursPerDay {
		h = HoursPerDay - 1.0/60
	}
	hour = int(h)
	minute = int(math.Round((h - float64(hour)) * 60))
	if minute == 60 {
		hour++
		minute = 0
	}
	if hour >= HoursPerDay {
		hour, minute = HoursPerDay-1, 59
	}
	return hour, minute
}

// InstantAt combines a calendar day with a vertical pixel offset into an
// instant in the display timezone.
func (g *Geometry) InstantAt(day time.Time, px float64) time.Time {
	hour, minute := g.OffsetToTime(px)
	d := day.In(g.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, g.loc)
}

// HourFraction returns the instant's hour of day as a fraction, in the
// display timezone.
func (g *Geometry) HourFraction(t time.Time) float64 {
	local := t.In(g.loc)
	return float64(local.Hour()) + float64(local.Minute())/60
}

// StartOfDay truncates an instant to midnight in the display timezone.
func (g *Geometry) StartOfDay(t time.Time) time.Time {
	local := t.In(g.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc)
}

// SameDay reports whether two instants fall on the same calendar day in the
// display timezone.
func (g *Geometry) SameDay(a, b time.Time) bool {
	la, lb := a.In(g.loc), b.In(g.loc)
	return la.Year() == lb.Year() && la.Month() == lb.Month() && la.Day() == lb.Day()
}

// Snap rounds an instant to the nearest multiple of the graduation using
// round-half-up: remainders under half the graduation round down, everything
// else rounds up. Snapping is idempotent.
func Snap(t time.Time, graduation time.Duration) time.Time {
	if graduation <= 0 {
		graduation = DefaultSnap
	}
	snapped := t.Truncate(graduation)
	if rem := t.Sub(snapped); rem*2 >= graduation {
		snapped = snapped.Add(graduation)
	}
	return snapped
}
