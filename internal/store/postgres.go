package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const calendarColumns = `id, name, color, timezone, created_at`

const eventColumns = `id, calendar_id, title, start_at, end_at, color, locked, google_calendar_id, created_at, updated_at`

// calendarRepo implements CalendarRepository.
type calendarRepo struct {
	pool Querier
}

func (r *calendarRepo) GetByID(ctx context.Context, id string) (*Calendar, error) {
	defer observeDB(ctx, "db.calendar_get")()
	q := `SELECT ` + calendarColumns + ` FROM calendars WHERE id=$1`
	var cal Calendar
	err := r.pool.QueryRow(ctx, q, id).Scan(&cal.ID, &cal.Name, &cal.Color, &cal.Timezone, &cal.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar %s: %w", id, err)
	}
	return &cal, nil
}

func (r *calendarRepo) List(ctx context.Context) ([]Calendar, error) {
	defer observeDB(ctx, "db.calendar_list")()
	q := `SELECT ` + calendarColumns + ` FROM calendars ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	defer rows.Close()

	var cals []Calendar
	for rows.Next() {
		var cal Calendar
		if err := rows.Scan(&cal.ID, &cal.Name, &cal.Color, &cal.Timezone, &cal.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calendar: %w", err)
		}
		cals = append(cals, cal)
	}
	return cals, rows.Err()
}

func (r *calendarRepo) Create(ctx context.Context, cal Calendar) (*Calendar, error) {
	defer observeDB(ctx, "db.calendar_create")()
	if cal.Timezone == "" {
		cal.Timezone = "auto"
	}
	if cal.ID == "" {
		cal.ID = uuid.NewString()
	}
	q := `INSERT INTO calendars (id, name, color, timezone) VALUES ($1, $2, $3, $4)
RETURNING ` + calendarColumns
	var out Calendar
	err := r.pool.QueryRow(ctx, q, cal.ID, cal.Name, cal.Color, cal.Timezone).
		Scan(&out.ID, &out.Name, &out.Color, &out.Timezone, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}
	return &out, nil
}

func (r *calendarRepo) Rename(ctx context.Context, id, name string) error {
	defer observeDB(ctx, "db.calendar_rename")()
	tag, err := r.pool.Exec(ctx, `UPDATE calendars SET name=$2 WHERE id=$1`, id, name)
	if err != nil {
		return fmt.Errorf("rename calendar %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *calendarRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.calendar_delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM calendars WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete calendar %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// eventRepo implements EventRepository.
type eventRepo struct {
	pool Querier
}

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	err := row.Scan(&ev.ID, &ev.CalendarID, &ev.Title, &ev.StartAt, &ev.EndAt,
		&ev.Color, &ev.Locked, &ev.GoogleCalendarID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*Event, error) {
	defer observeDB(ctx, "db.event_get")()
	q := `SELECT ` + eventColumns + ` FROM events WHERE id=$1`
	ev, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

func (r *eventRepo) ListForRange(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	defer observeDB(ctx, "db.event_list_range")()
	// Half-open overlap: an event intersects [from, to) when it starts
	// before the window ends and ends after the window starts.
	q := `SELECT ` + eventColumns + ` FROM events
WHERE calendar_id=$1 AND start_at < $3 AND end_at > $2
ORDER BY start_at, id`
	rows, err := r.pool.Query(ctx, q, calendarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.CalendarID, &ev.Title, &ev.StartAt, &ev.EndAt,
			&ev.Color, &ev.Locked, &ev.GoogleCalendarID, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *eventRepo) ListForCalendar(ctx context.Context, calendarID string) ([]Event, error) {
	defer observeDB(ctx, "db.event_list_calendar")()
	q := `SELECT ` + eventColumns + ` FROM events WHERE calendar_id=$1 ORDER BY start_at, id`
	rows, err := r.pool.Query(ctx, q, calendarID)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.CalendarID, &ev.Title, &ev.StartAt, &ev.EndAt,
			&ev.Color, &ev.Locked, &ev.GoogleCalendarID, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *eventRepo) Create(ctx context.Context, event Event) (*Event, error) {
	defer observeDB(ctx, "db.event_create")()
	if event.Color == "" {
		event.Color = "BLUE"
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	q := `INSERT INTO events (id, calendar_id, title, start_at, end_at, color, locked, google_calendar_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + eventColumns
	ev, err := scanEvent(r.pool.QueryRow(ctx, q,
		event.ID, event.CalendarID, event.Title, event.StartAt, event.EndAt,
		event.Color, event.Locked, event.GoogleCalendarID))
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

func (r *eventRepo) Update(ctx context.Context, id string, patch EventPatch) (*Event, error) {
	defer observeDB(ctx, "db.event_update")()
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{"updated_at=NOW()"}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.StartAt != nil {
		add("start_at", *patch.StartAt)
	}
	if patch.EndAt != nil {
		add("end_at", *patch.EndAt)
	}
	if patch.Color != nil {
		add("color", *patch.Color)
	}
	if patch.Locked != nil {
		add("locked", *patch.Locked)
	}

	q := `UPDATE events SET ` + strings.Join(sets, ", ") +
		` WHERE id=$1 RETURNING ` + eventColumns
	ev, err := scanEvent(r.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update event %s: %w", id, err)
	}
	return ev, nil
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.event_delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
