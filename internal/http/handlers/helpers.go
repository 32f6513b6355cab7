package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/booking"
	"github.com/Znbmels/keremet/internal/ratings"
	"github.com/Znbmels/keremet/internal/schedule"
	"github.com/Znbmels/keremet/pkg/logging"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
}

// domainError translates a service or upstream failure into an HTTP
// response. Upstream API errors keep their original status; workflow
// rule violations become 400 or 409 depending on whether retrying the
// same request could ever succeed.
func domainError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, apiclient.ErrSessionExpired):
		jsonError(w, "session expired, sign in again", http.StatusUnauthorized)
	case errors.As(err, &apiErr):
		jsonError(w, apiErr.Message(), apiErr.StatusCode)
	case errors.Is(err, booking.ErrSuperseded),
		errors.Is(err, booking.ErrSlotsStale),
		errors.Is(err, booking.ErrSlotNotSelectable),
		errors.Is(err, booking.ErrConfirmInFlight),
		errors.Is(err, schedule.ErrSlotBooked):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrNoSlotSelected),
		errors.Is(err, schedule.ErrEmptyInterval),
		errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, schedule.ErrBadTransition),
		errors.Is(err, ratings.ErrNotRatable),
		errors.Is(err, ratings.ErrScoreOutOfRange):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("request failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
