package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/internal/schedule"
	"github.com/Znbmels/keremet/pkg/logging"
)

// ScheduleHandler exposes the doctor's schedule manager.
type ScheduleHandler struct {
	client  *apiclient.Client
	manager *schedule.Manager
	logger  *logging.Logger
}

func NewScheduleHandler(client *apiclient.Client, mgr *schedule.Manager, logger *logging.Logger) *ScheduleHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleHandler{client: client, manager: mgr, logger: logger}
}

// ListSlots loads and returns the doctor's slots, optionally for one date.
// GET /schedule/slots?date=2026-09-01
func (h *ScheduleHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	if err := h.manager.LoadSlots(r.Context(), date); err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Slots())
}

type createSlotRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// CreateSlot adds an availability slot. Interval validation happens before
// any request leaves the gateway.
// POST /schedule/slots
func (h *ScheduleHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	slot, err := h.manager.CreateSlot(r.Context(), req.StartTime, req.EndTime)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

// DeleteSlot removes a free slot. Booked slots are refused locally.
// DELETE /schedule/slots/{slotID}
func (h *ScheduleHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "slotID")
	if err != nil {
		jsonError(w, "invalid slot id", http.StatusBadRequest)
		return
	}
	if err := h.manager.DeleteSlot(r.Context(), id); err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type updateAppointmentRequest struct {
	Status clinic.AppointmentStatus `json:"status"`
}

// UpdateAppointment moves one of the doctor's appointments to a new status.
// The appointment is looked up in the upcoming list so the transition check
// runs against its current status, not one the caller claims.
// PATCH /schedule/appointments/{appointmentID}
func (h *ScheduleHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "appointmentID")
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req updateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	upcoming, err := h.client.UpcomingAppointments(r.Context(), clinic.RoleDoctor)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	var appt *clinic.Appointment
	for i := range upcoming {
		if upcoming[i].ID == id {
			appt = &upcoming[i]
			break
		}
	}
	if appt == nil {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}

	updated, err := h.manager.UpdateAppointmentStatus(r.Context(), *appt, req.Status)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ListTransitions tells the UI which statuses an appointment may move to.
// GET /schedule/appointments/{appointmentID}/transitions
func (h *ScheduleHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "appointmentID")
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	upcoming, err := h.client.UpcomingAppointments(r.Context(), clinic.RoleDoctor)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	for _, appt := range upcoming {
		if appt.ID == id {
			transitions := schedule.AllowedTransitions(appt)
			if transitions == nil {
				transitions = []clinic.AppointmentStatus{}
			}
			writeJSON(w, http.StatusOK, transitions)
			return
		}
	}
	jsonError(w, "appointment not found", http.StatusNotFound)
}
