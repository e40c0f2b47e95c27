package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-schedule-api/core/config"
	"go-schedule-api/core/constants"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/core/logger"
	"go-schedule-api/core/queue"
	"go-schedule-api/modules/calendar/dto"
	scheduleDto "go-schedule-api/modules/schedule/dto"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

var tracer = otel.Tracer("go-schedule-api/modules/calendar/service")

// EventReader is the part of the schedule service the calendar needs.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*scheduleDto.EventSnapshot, *appErrors.AppError)
}

type CalendarServiceInterface interface {
	ExportICS(ctx context.Context, eventID uuid.UUID) (string, *appErrors.AppError)
	Publish(ctx context.Context, payload queue.CalendarPublishPayload) (*dto.GoogleEventResponse, error)
	HandlePublishTask(ctx context.Context, task *asynq.Task) error
}

// APIError is a non-success reply from the Calendar API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google calendar api: status %d: %s", e.StatusCode, e.Body)
}

type Option func(*CalendarService)

// WithHTTPClient replaces the transport used for Google Calendar calls.
func WithHTTPClient(client *http.Client) Option {
	return func(s *CalendarService) { s.httpClient = client }
}

// WithAPIBase points the publisher at another Calendar API root.
func WithAPIBase(base string) Option {
	return func(s *CalendarService) { s.apiBase = strings.TrimRight(base, "/") }
}

func WithClock(now func() time.Time) Option {
	return func(s *CalendarService) { s.now = now }
}

type CalendarService struct {
	events     EventReader
	calendarID string
	location   *time.Location
	httpClient *http.Client
	apiBase    string
	now        func() time.Time
}

func NewCalendarService(events EventReader, cfg config.GoogleConfig, opts ...Option) *CalendarService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		if cfg.Timezone != "" {
			logger.Warn("CalendarService:LoadLocation", "timezone", cfg.Timezone, "error", err)
		}
		loc = time.UTC
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	s := &CalendarService{
		events:     events,
		calendarID: calendarID,
		location:   loc,
		httpClient: &http.Client{Timeout: constants.CalendarHTTPTimeout},
		apiBase:    constants.GoogleCalendarAPIBase,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// slotWindow resolves a slot's wall-clock date and time in the configured zone.
func (s *CalendarService) slotWindow(date, clock string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(constants.SlotDateLayout+" "+constants.SlotTimeLayout, date+" "+clock, s.location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(constants.CalendarEventDuration), nil
}

// ExportICS renders the confirmed slot of an event as an iCalendar file.
func (s *CalendarService) ExportICS(ctx context.Context, eventID uuid.UUID) (string, *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "CalendarService.ExportICS")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID.String()))

	snapshot, appErr := s.events.GetEvent(ctx, eventID)
	if appErr != nil {
		span.RecordError(appErr)
		return "", appErr
	}
	slot := snapshot.ConfirmedSlot()
	if slot == nil {
		return "", appErrors.NotFound("Event has no confirmed date")
	}

	start, end, err := s.slotWindow(slot.Date, slot.Time)
	if err != nil {
		logger.Error("CalendarService:ExportICS:SlotWindow", "error", err, "event_id", eventID, "slot_id", slot.ID)
		return "", appErrors.Integrity("stored slot has an unreadable date", err)
	}

	entry := dto.ICSEntry{
		UID:     fmt.Sprintf("%s-%d@go-schedule-api", snapshot.ID, slot.ID),
		Summary: snapshot.Name,
		Start:   start,
		End:     end,
	}
	if snapshot.Memo != nil {
		entry.Description = *snapshot.Memo
	}
	return FormatICS(snapshot.Name, []dto.ICSEntry{entry}, s.now()), nil
}

// Publish inserts the confirmed slot into the organizer's Google Calendar using the
// access token they supplied.
func (s *CalendarService) Publish(ctx context.Context, payload queue.CalendarPublishPayload) (*dto.GoogleEventResponse, error) {
	ctx, span := tracer.Start(ctx, "CalendarService.Publish")
	defer span.End()

	if payload.AccessToken == "" {
		return nil, fmt.Errorf("calendar publish for event %s: missing access token", payload.EventID)
	}
	start, end, err := s.slotWindow(payload.Date, payload.Time)
	if err != nil {
		return nil, fmt.Errorf("calendar publish for event %s: %w", payload.EventID, err)
	}

	event := dto.GoogleEvent{
		Summary:     payload.Name,
		Description: payload.Memo,
		Start:       dto.GoogleEventTime{DateTime: start.Format(time.RFC3339), TimeZone: s.location.String()},
		End:         dto.GoogleEventTime{DateTime: end.Format(time.RFC3339), TimeZone: s.location.String()},
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", s.apiBase, url.PathEscape(s.calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	// oauth2 wraps our base client so the token is attached to every request
	clientCtx := context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	client := oauth2.NewClient(clientCtx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: payload.AccessToken}))

	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("calendar publish for event %s: %w", payload.EventID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		err := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		span.RecordError(err)
		return nil, err
	}

	var result dto.GoogleEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode google calendar response: %w", err)
	}
	logger.Info("CalendarService:Publish", "event_id", payload.EventID, "google_event_id", result.ID)
	return &result, nil
}

// HandlePublishTask is the queue handler for calendar publish tasks. Rejections from
// Google other than 5xx are not retried.
func (s *CalendarService) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.CalendarPublishPayload
	if err := queue.Decode(task, &payload); err != nil {
		return err
	}
	if _, err := s.Publish(ctx, payload); err != nil {
		logger.Error("CalendarService:HandlePublishTask", "error", err, "event_id", payload.EventID)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
