package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-schedule-api/core/errors"

	"github.com/labstack/echo/v4"
)

func TestErrorResponseStatus(t *testing.T) {
	tt := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   errors.ErrorCode
	}{
		{name: "validation", err: errors.Validation("name is required"), wantStatus: http.StatusBadRequest, wantCode: errors.ErrInvalidInput},
		{name: "not found", err: errors.NotFound("event not found"), wantStatus: http.StatusNotFound, wantCode: errors.ErrNotFound},
		{name: "conflict", err: errors.Conflict("slot has responses"), wantStatus: http.StatusConflict, wantCode: errors.ErrConflict},
		{name: "forbidden", err: errors.Forbidden("not owner"), wantStatus: http.StatusForbidden, wantCode: errors.ErrForbidden},
		{name: "integrity", err: errors.Integrity("commit failed", fmt.Errorf("db down")), wantStatus: http.StatusInternalServerError, wantCode: errors.ErrInternalServer},
		{name: "wrapped app error", err: fmt.Errorf("outer: %w", errors.NotFound("slot")), wantStatus: http.StatusNotFound, wantCode: errors.ErrNotFound},
		{name: "plain error", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError, wantCode: errors.ErrInternalServer},
	}

	e := echo.New()
	h := NewBaseController()
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			if err := h.ErrorResponse(c, tc.err); err != nil {
				t.Fatalf("ErrorResponse() error = %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tc.wantCode {
				t.Errorf("code = %d, want %d", body.Code, tc.wantCode)
			}
		})
	}
}

func TestHTTPErrorHandlerUnknownRoute(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != errors.ErrNotFound {
		t.Errorf("code = %d, want %d", body.Code, errors.ErrNotFound)
	}
}
