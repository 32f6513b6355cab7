package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/booking"
	"github.com/Znbmels/keremet/internal/schedule"
	"github.com/Znbmels/keremet/pkg/logging"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonError(rec, "oops", http.StatusTeapot)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode json response: %v", err)
	}
	if body["error"] != "oops" {
		t.Fatalf("unexpected error message %q", body["error"])
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rec, http.StatusCreated, payload)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode json response: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	logger := logging.Default()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"session expired", apiclient.ErrSessionExpired, http.StatusUnauthorized},
		{"wrapped session expired", fmt.Errorf("booking: confirm: %w", apiclient.ErrSessionExpired), http.StatusUnauthorized},
		{"upstream status passes through", &apiclient.APIError{StatusCode: http.StatusUnprocessableEntity, Detail: "bad payload"}, http.StatusUnprocessableEntity},
		{"stale slots", booking.ErrSlotsStale, http.StatusConflict},
		{"superseded", booking.ErrSuperseded, http.StatusConflict},
		{"invalid workflow state", booking.ErrInvalidState, http.StatusBadRequest},
		{"booked slot delete", schedule.ErrSlotBooked, http.StatusConflict},
		{"inverted interval", schedule.ErrInvalidInterval, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			domainError(rec, logger, tc.err)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
