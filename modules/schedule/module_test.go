package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-schedule-api/core/cache"
	"go-schedule-api/core/constants"
	"go-schedule-api/core/controller"
	"go-schedule-api/core/middleware"
	"go-schedule-api/core/validator"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/repository"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = controller.HTTPErrorHandler
	Init(e, middleware.NewMiddleware(), Deps{
		Repo:  repository.NewMemoryRepository(),
		Cache: cache.NewNoopCache(),
	})
	return e
}

func do(t *testing.T, e *echo.Echo, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func createEvent(t *testing.T, e *echo.Echo) dto.CreateEventResponse {
	t.Helper()
	status, env := do(t, e, http.MethodPost, "/api/v1/events", map[string]any{
		"name": "Team Lunch",
		"slots": []map[string]string{
			{"date": "2025-06-01", "time": "12:00"},
			{"date": "2025-06-02", "time": "12:00"},
		},
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("create event status = %d, message = %q", status, env.Message)
	}
	var created dto.CreateEventResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return created
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	e := newTestServer(t)
	created := createEvent(t, e)
	if created.OwnerToken == "" || len(created.Event.Slots) != 2 {
		t.Fatalf("unexpected create response: %+v", created)
	}
	base := "/api/v1/events/" + created.Event.ID.String()
	first, second := created.Event.Slots[0].ID, created.Event.Slots[1].ID

	status, env := do(t, e, http.MethodPost, base+"/participants", map[string]any{
		"name": "Aki",
		"responses": []map[string]any{
			{"slot_id": first, "status": "ATTEND"},
			{"slot_id": second, "status": "ABSENT"},
		},
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("submit status = %d, message = %q", status, env.Message)
	}

	status, env = do(t, e, http.MethodGet, base, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	var snap dto.EventSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Summary.MaxAttend != 1 || len(snap.Summary.HighlightedSlotIDs) != 1 || snap.Summary.HighlightedSlotIDs[0] != first {
		t.Errorf("summary = %+v, want slot %d highlighted with 1 attendee", snap.Summary, first)
	}

	confirm := map[string]any{"action": "confirm", "slot_id": second}
	status, _ = do(t, e, http.MethodPut, base+"/confirmation", confirm, nil)
	if status != http.StatusForbidden {
		t.Errorf("confirm without owner token status = %d, want 403", status)
	}

	owner := map[string]string{constants.HeaderOwnerToken: created.OwnerToken}
	status, env = do(t, e, http.MethodPut, base+"/confirmation", confirm, owner)
	if status != http.StatusOK {
		t.Fatalf("confirm status = %d, message = %q", status, env.Message)
	}
	var conf dto.ConfirmationResponse
	if err := json.Unmarshal(env.Data, &conf); err != nil {
		t.Fatalf("decode confirmation: %v", err)
	}
	if conf.State != dto.StateConfirmed || conf.Slot == nil || conf.Slot.ID != second {
		t.Errorf("confirmation = %+v, want slot %d confirmed", conf, second)
	}

	status, _ = do(t, e, http.MethodDelete, base, nil, owner)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	status, _ = do(t, e, http.MethodGet, base, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestRejectedRequests(t *testing.T) {
	e := newTestServer(t)
	created := createEvent(t, e)
	base := "/api/v1/events/" + created.Event.ID.String()
	owner := map[string]string{constants.HeaderOwnerToken: created.OwnerToken}

	tt := []struct {
		name       string
		method     string
		path       string
		body       any
		headers    map[string]string
		wantStatus int
	}{
		{name: "malformed event id", method: http.MethodGet, path: "/api/v1/events/not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "malformed slot id", method: http.MethodGet, path: base + "/slots/abc/stats", wantStatus: http.StatusBadRequest},
		{name: "missing slots", method: http.MethodPost, path: "/api/v1/events", body: map[string]any{"name": "x"}, wantStatus: http.StatusBadRequest},
		{name: "bad slot time", method: http.MethodPost, path: "/api/v1/events", body: map[string]any{
			"name": "x", "slots": []map[string]string{{"date": "2025-06-01", "time": "25:00"}},
		}, wantStatus: http.StatusBadRequest},
		{name: "bad status", method: http.MethodPost, path: base + "/participants", body: map[string]any{
			"name": "Aki", "responses": []map[string]any{{"slot_id": created.Event.Slots[0].ID, "status": "MAYBE"}},
		}, wantStatus: http.StatusBadRequest},
		{name: "unknown slot in responses", method: http.MethodPost, path: base + "/participants", body: map[string]any{
			"name": "Aki", "responses": []map[string]any{{"slot_id": 99999, "status": "ATTEND"}},
		}, wantStatus: http.StatusNotFound},
		{name: "confirm without slot", method: http.MethodPut, path: base + "/confirmation", body: map[string]any{"action": "confirm"}, headers: owner, wantStatus: http.StatusBadRequest},
		{name: "unknown action", method: http.MethodPut, path: base + "/confirmation", body: map[string]any{"action": "maybe"}, headers: owner, wantStatus: http.StatusBadRequest},
		{name: "wrong owner token", method: http.MethodDelete, path: base, headers: map[string]string{constants.HeaderOwnerToken: "nope"}, wantStatus: http.StatusForbidden},
		{name: "mine without bearer", method: http.MethodGet, path: "/api/v1/events/mine", wantStatus: http.StatusUnauthorized},
		{name: "unknown participant", method: http.MethodGet, path: fmt.Sprintf("%s/participants/%d/responses", base, 4242), wantStatus: http.StatusNotFound},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			status, env := do(t, e, tc.method, tc.path, tc.body, tc.headers)
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d (message %q)", status, tc.wantStatus, env.Message)
			}
		})
	}
}
