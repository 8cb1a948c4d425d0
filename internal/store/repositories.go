package store

import (
	"context"
	"time"
)

// CalendarRepository handles calendar lifecycle.
type CalendarRepository interface {
	GetByID(ctx context.Context, id string) (*Calendar, error)
	List(ctx context.Context) ([]Calendar, error)
	Create(ctx context.Context, cal Calendar) (*Calendar, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// EventRepository handles event storage. ListForRange returns events whose
// [start, end) interval overlaps the requested half-open window, which is
// what the segmenter needs to build a multi-day view.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	ListForRange(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error)
	ListForCalendar(ctx context.Context, calendarID string) ([]Event, error)
	Create(ctx context.Context, event Event) (*Event, error)
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	Delete(ctx context.Context, id string) error
}
