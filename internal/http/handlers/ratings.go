package handlers

import (
	"net/http"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/internal/ratings"
	"github.com/Znbmels/keremet/pkg/logging"
)

// RatingsHandler lets patients rate completed appointments.
type RatingsHandler struct {
	client  *apiclient.Client
	service *ratings.Service
	logger  *logging.Logger
}

func NewRatingsHandler(client *apiclient.Client, svc *ratings.Service, logger *logging.Logger) *RatingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RatingsHandler{client: client, service: svc, logger: logger}
}

// List returns the caller's submitted ratings.
// GET /ratings
func (h *RatingsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.Ratings(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type submitRatingRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

// Submit rates a completed appointment. The appointment is resolved from
// the caller's history so only completed, unrated visits get through.
// POST /ratings
func (h *RatingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 {
		jsonError(w, "appointment_id is required", http.StatusBadRequest)
		return
	}
	// An omitted score means the dialog's pre-selected value was kept.
	if req.Rating == 0 {
		req.Rating = ratings.DefaultScore
	}

	history, err := h.client.AppointmentHistory(r.Context(), clinic.RolePatient)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	var appt *clinic.Appointment
	for i := range history {
		if history[i].ID == req.AppointmentID {
			appt = &history[i]
			break
		}
	}
	if appt == nil {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}

	rating, err := h.service.Submit(r.Context(), *appt, req.Rating, req.Comment)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}
