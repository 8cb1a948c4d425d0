package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tutur3u/timegrid/internal/config"
	"github.com/tutur3u/timegrid/internal/grid"
	httperrors "github.com/tutur3u/timegrid/internal/http/errors"
	"github.com/tutur3u/timegrid/internal/ics"
	"github.com/tutur3u/timegrid/internal/metrics"
	"github.com/tutur3u/timegrid/internal/store"
)

const (
	dateFormat     = "2006-01-02"
	maxVisibleDays = 62
)

// Handler serves the JSON API for calendars, events and layout passes.
type Handler struct {
	cfg       *config.Config
	calendars store.CalendarRepository
	events    store.EventRepository
}

func NewHandler(cfg *config.Config, calendars store.CalendarRepository, events store.EventRepository) *Handler {
	return &Handler{cfg: cfg, calendars: calendars, events: events}
}

type eventJSON struct {
	ID               string    `json:"id"`
	CalendarID       string    `json:"calendar_id"`
	Title            string    `json:"title"`
	StartAt          time.Time `json:"start_at"`
	EndAt            time.Time `json:"end_at"`
	Color            string    `json:"color"`
	Locked           bool      `json:"locked"`
	GoogleCalendarID *string   `json:"google_calendar_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toEventJSON(ev *store.Event) eventJSON {
	return eventJSON{
		ID:               ev.ID,
		CalendarID:       ev.CalendarID,
		Title:            ev.Title,
		StartAt:          ev.StartAt,
		EndAt:            ev.EndAt,
		Color:            ev.Color,
		Locked:           ev.Locked,
		GoogleCalendarID: ev.GoogleCalendarID,
		UpdatedAt:        ev.UpdatedAt,
	}
}

func toGridEvent(ev store.Event) grid.Event {
	ge := grid.Event{
		ID:      ev.ID,
		Title:   ev.Title,
		StartAt: ev.StartAt,
		EndAt:   ev.EndAt,
		Color:   grid.Color(ev.Color),
		Locked:  ev.Locked,
	}
	if ev.GoogleCalendarID != nil {
		ge.GoogleCalendarID = *ev.GoogleCalendarID
	}
	return ge
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GetLayout runs the full segmenter, overlap and layout pass for the visible
// date range and returns pixel rectangles the renderer can paint directly.
//
// Query parameters: from/to (YYYY-MM-DD, inclusive, default today..today+6),
// width (day column width in px, required) and height (day column height in
// px, defaults to the configured hour height times 24).
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	calendarID := chi.URLParam(r, "calendarID")

	cal, err := h.calendars.GetByID(ctx, calendarID)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r, "calendar not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "load calendar")
		return
	}

	width, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64)
	if err != nil || width <= 0 {
		httperrors.BadRequestError(w, r, fmt.Errorf("width=%q", r.URL.Query().Get("width")), "width must be a positive number of pixels")
		return
	}

	timezone := cal.Timezone
	if timezone == "" || timezone == "auto" {
		timezone = h.cfg.Display.Timezone
	}
	geo, err := grid.NewGeometry(timezone)
	if err != nil {
		httperrors.BadRequestError(w, r, err, "unknown calendar timezone")
		return
	}
	geo.HourHeight = h.cfg.Grid.HourHeight
	if raw := r.URL.Query().Get("height"); raw != "" {
		height, err := strconv.ParseFloat(raw, 64)
		if err != nil || height <= 0 {
			httperrors.BadRequestError(w, r, fmt.Errorf("height=%q", raw), "height must be a positive number of pixels")
			return
		}
		geo.HourHeight = height / grid.HoursPerDay
	}

	loc := geo.Location()
	now := time.Now().In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 6)

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.ParseInLocation(dateFormat, raw, loc)
		if err != nil {
			httperrors.BadRequestError(w, r, err, "from must be formatted YYYY-MM-DD")
			return
		}
		to = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.ParseInLocation(dateFormat, raw, loc)
		if err != nil {
			httperrors.BadRequestError(w, r, err, "to must be formatted YYYY-MM-DD")
			return
		}
	}
	if to.Before(from) {
		httperrors.BadRequestError(w, r, fmt.Errorf("from=%s to=%s", from, to), "to must not precede from")
		return
	}

	var visible []time.Time
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if len(visible) >= maxVisibleDays {
			httperrors.BadRequestError(w, r, fmt.Errorf("range exceeds %d days", maxVisibleDays), "requested range is too large")
			return
		}
		visible = append(visible, day)
	}

	events, err := h.events.ListForRange(ctx, calendarID, from, to.AddDate(0, 0, 1))
	if err != nil {
		httperrors.InternalError(w, r, err, "list events")
		return
	}

	gridEvents := make([]grid.Event, 0, len(events))
	for _, ev := range events {
		gridEvents = append(gridEvents, toGridEvent(ev))
	}

	start := time.Now()
	engine := grid.NewEngine(geo)
	rects := engine.LayoutRange(gridEvents, visible, width)
	metrics.ObserveLayout(ctx, len(rects), start)

	days := make([]string, len(visible))
	for i, day := range visible {
		days[i] = day.Format(dateFormat)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timezone":    loc.String(),
		"hour_height": geo.HourHeight,
		"col_width":   width,
		"days":        days,
		"rects":       rects,
	})
}

type calendarJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Color    *string `json:"color,omitempty"`
	Timezone string  `json:"timezone"`
}

func toCalendarJSON(cal *store.Calendar) calendarJSON {
	return calendarJSON{ID: cal.ID, Name: cal.Name, Color: cal.Color, Timezone: cal.Timezone}
}

// ListCalendars returns every calendar.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := h.calendars.List(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "list calendars")
		return
	}

	out := make([]calendarJSON, 0, len(cals))
	for i := range cals {
		out = append(out, toCalendarJSON(&cals[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type createCalendarRequest struct {
	Name     string  `json:"name"`
	Color    *string `json:"color"`
	Timezone string  `json:"timezone"`
}

// CreateCalendar inserts a calendar. The timezone must resolve, or be
// "auto"/empty for the server's local zone.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req createCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid JSON body")
		return
	}
	if req.Name == "" {
		httperrors.BadRequestError(w, r, errors.New("name missing"), "name is required")
		return
	}
	if _, err := grid.NewGeometry(req.Timezone); err != nil {
		httperrors.BadRequestError(w, r, err, "unknown timezone")
		return
	}

	cal, err := h.calendars.Create(r.Context(), store.Calendar{
		Name:     req.Name,
		Color:    req.Color,
		Timezone: req.Timezone,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create calendar")
		return
	}

	writeJSON(w, http.StatusCreated, toCalendarJSON(cal))
}

// RenameCalendar updates a calendar's name.
func (h *Handler) RenameCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "calendarID")

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid JSON body")
		return
	}
	if req.Name == "" {
		httperrors.BadRequestError(w, r, errors.New("name missing"), "name is required")
		return
	}

	err := h.calendars.Rename(r.Context(), id, req.Name)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r, "calendar not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "rename calendar")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCalendar removes a calendar and, via the schema, its events.
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "calendarID")

	err := h.calendars.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r, "calendar not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete calendar")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type createEventRequest struct {
	Title            string     `json:"title"`
	StartAt          *time.Time `json:"start_at"`
	EndAt            *time.Time `json:"end_at"`
	Color            string     `json:"color"`
	Locked           bool       `json:"locked"`
	GoogleCalendarID *string    `json:"google_calendar_id"`
}

// CreateEvent inserts a new event. A missing or inverted end time is
// corrected to one hour after the start before the row is written.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	calendarID := chi.URLParam(r, "calendarID")

	if _, err := h.calendars.GetByID(ctx, calendarID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperrors.NotFoundError(w, r, "calendar not found")
			return
		}
		httperrors.InternalError(w, r, err, "load calendar")
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid JSON body")
		return
	}
	if req.StartAt == nil {
		httperrors.BadRequestError(w, r, errors.New("start_at missing"), "start_at is required")
		return
	}
	if req.Color != "" && !grid.Color(req.Color).Valid() {
		httperrors.BadRequestError(w, r, fmt.Errorf("color=%q", req.Color), "unknown color")
		return
	}

	ge := grid.Event{
		Title:   req.Title,
		StartAt: *req.StartAt,
		Color:   grid.Color(req.Color),
	}
	if req.EndAt != nil {
		ge.EndAt = *req.EndAt
	}
	ge = ge.Normalized()

	ev, err := h.events.Create(ctx, store.Event{
		CalendarID:       calendarID,
		Title:            ge.Title,
		StartAt:          ge.StartAt,
		EndAt:            ge.EndAt,
		Color:            string(ge.Color),
		Locked:           req.Locked,
		GoogleCalendarID: req.GoogleCalendarID,
	})
	if err != nil {
		httperrors.InternalError(w, r, err, "create event")
		return
	}

	writeJSON(w, http.StatusCreated, toEventJSON(ev))
}

type patchEventRequest struct {
	Title   *string    `json:"title"`
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
	Color   *string    `json:"color"`
	Locked  *bool      `json:"locked"`
}

// UpdateEvent applies a partial patch. The prospective time range is checked
// against the current row so a patch can never persist end <= start.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	current, err := h.events.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r, "event not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "load event")
		return
	}

	var req patchEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid JSON body")
		return
	}
	if req.Color != nil && !grid.Color(*req.Color).Valid() {
		httperrors.BadRequestError(w, r, fmt.Errorf("color=%q", *req.Color), "unknown color")
		return
	}

	start := current.StartAt
	end := current.EndAt
	if req.StartAt != nil {
		start = *req.StartAt
	}
	if req.EndAt != nil {
		end = *req.EndAt
	}
	if !end.After(start) {
		corrected := start.Add(time.Hour)
		req.EndAt = &corrected
		if req.StartAt == nil {
			req.StartAt = &start
		}
	}

	ev, err := h.events.Update(ctx, id, store.EventPatch{
		Title:   req.Title,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Color:   req.Color,
		Locked:  req.Locked,
	})
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r, "event not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "update event")
		return
	}

	writeJSON(w, http.StatusOK, toEventJSON(ev))
}

// DeleteEvent removes an event by id.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.events.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r, "event not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "delete event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportICS streams the calendar as an iCalendar document.
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	calendarID := chi.URLParam(r, "calendarID")

	cal, err := h.calendars.GetByID(ctx, calendarID)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFoundError(w, r, "calendar not found")
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "load calendar")
		return
	}

	events, err := h.events.ListForCalendar(ctx, calendarID)
	if err != nil {
		httperrors.InternalError(w, r, err, "list events")
		return
	}

	doc := ics.Calendar{Name: cal.Name}
	for _, ev := range events {
		doc.Events = append(doc.Events, ics.Event{
			UID:     ev.ID,
			Summary: ev.Title,
			Start:   ev.StartAt,
			End:     ev.EndAt,
			Updated: ev.UpdatedAt,
		})
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cal.Name+".ics"))
	if err := doc.Write(w); err != nil {
		httperrors.LogError(r, "write ics export", err)
	}
}
