package grid

import "time"

// Color is one of the fixed palette values an event may carry.
type Color string

const (
	ColorBlue   Color = "BLUE"
	ColorRed    Color = "RED"
	ColorGreen  Color = "GREEN"
	ColorYellow Color = "YELLOW"
	ColorOrange Color = "ORANGE"
	ColorPurple Color = "PURPLE"
	ColorPink   Color = "PINK"
	ColorIndigo Color = "INDIGO"
	ColorCyan   Color = "CYAN"
	ColorGray   Color = "GRAY"
)

// Colors lists the palette in display order.
var Colors = []Color{
	ColorBlue, ColorRed, ColorGreen, ColorYellow, ColorOrange,
	ColorPurple, ColorPink, ColorIndigo, ColorCyan, ColorGray,
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// Event is the engine's view of a calendar event. Instants are stored in
// UTC and converted to the display timezone during layout.
type Event struct {
	ID               string
	Title            string
	StartAt          time.Time
	EndAt            time.Time
	Color            Color
	Locked           bool
	GoogleCalendarID string
}

// Normalized returns a copy of the event with an inverted or zero-length
// time range corrected to a one hour duration. Applying it twice yields the
// same result.
func (e Event) Normalized() Event {
	if !e.EndAt.After(e.StartAt) {
		e.EndAt = e.StartAt.Add(time.Hour)
	}
	if e.Color == "" {
		e.Color = ColorBlue
	}
	return e
}
