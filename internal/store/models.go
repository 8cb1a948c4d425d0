package store

import "time"

// Calendar groups events and carries the display timezone used when laying
// out its grid.
type Calendar struct {
	ID        string
	Name      string
	Color     *string
	Timezone  string
	CreatedAt time.Time
}

// Event is the persisted form of a calendar event. StartAt and EndAt form a
// half-open interval [StartAt, EndAt).
type Event struct {
	ID               string
	CalendarID       string
	Title            string
	StartAt          time.Time
	EndAt            time.Time
	Color            string
	Locked           bool
	GoogleCalendarID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EventPatch is a partial update. Nil fields are left untouched.
type EventPatch struct {
	Title   *string
	StartAt *time.Time
	EndAt   *time.Time
	Color   *string
	Locked  *bool
}

// IsEmpty reports whether the patch would change nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.StartAt == nil && p.EndAt == nil && p.Color == nil && p.Locked == nil
}
