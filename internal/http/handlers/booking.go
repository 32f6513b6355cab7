package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/booking"
	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/internal/directory"
	"github.com/Znbmels/keremet/pkg/logging"
)

// BookingHandler drives the slot booking workflow over HTTP. The gateway
// serves one signed-in user, so there is a single active workflow; starting
// a new one abandons the previous attempt.
type BookingHandler struct {
	client    *apiclient.Client
	directory *directory.Service
	logger    *logging.Logger

	mu sync.RWMutex
	wf *booking.Workflow
}

func NewBookingHandler(client *apiclient.Client, dir *directory.Service, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		client:    client,
		directory: dir,
		logger:    logger,
		wf:        booking.New(client, logger),
	}
}

func (h *BookingHandler) workflow() *booking.Workflow {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.wf
}

type bookingStateResponse struct {
	State       booking.State       `json:"state"`
	Doctor      *clinic.Doctor      `json:"doctor,omitempty"`
	Slot        *clinic.TimeSlot    `json:"slot,omitempty"`
	Appointment *clinic.Appointment `json:"appointment,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func (h *BookingHandler) stateResponse(wf *booking.Workflow) bookingStateResponse {
	doctor, slot, appt := wf.Result()
	resp := bookingStateResponse{
		State:       wf.State(),
		Doctor:      doctor,
		Slot:        slot,
		Appointment: appt,
	}
	if err := wf.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Start abandons any previous attempt and begins a fresh workflow.
// POST /booking/start
func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.wf = booking.New(h.client, h.logger)
	wf := h.wf
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, h.stateResponse(wf))
}

// GetState reports where the workflow currently stands.
// GET /booking
func (h *BookingHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateResponse(h.workflow()))
}

type selectDoctorRequest struct {
	DoctorID int64 `json:"doctor_id"`
}

// SelectDoctor picks a doctor and fetches their slots. Picking another
// doctor while a fetch is still in flight supersedes the older fetch.
// POST /booking/doctor
func (h *BookingHandler) SelectDoctor(w http.ResponseWriter, r *http.Request) {
	var req selectDoctorRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.DoctorID <= 0 {
		jsonError(w, "doctor_id is required", http.StatusBadRequest)
		return
	}

	doctor, err := h.directory.Get(r.Context(), req.DoctorID)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}

	wf := h.workflow()
	if err := wf.SelectDoctor(r.Context(), *doctor); err != nil {
		// A superseded fetch means the user already moved on; the newer
		// selection owns the workflow now.
		if errors.Is(err, booking.ErrSuperseded) {
			writeJSON(w, http.StatusOK, h.stateResponse(wf))
			return
		}
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(wf))
}

// ListSlots returns the fetched slots, all of them or only the selectable
// ones.
// GET /booking/slots?selectable=true
func (h *BookingHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	wf := h.workflow()
	if r.URL.Query().Get("selectable") == "true" {
		writeJSON(w, http.StatusOK, wf.SelectableSlots())
		return
	}
	writeJSON(w, http.StatusOK, wf.Slots())
}

type selectSlotRequest struct {
	SlotID int64 `json:"slot_id"`
}

// SelectSlot picks one of the fetched slots.
// POST /booking/slot
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req selectSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	wf := h.workflow()
	if err := wf.SelectSlot(req.SlotID); err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(wf))
}

// RefreshSlots re-fetches the slot list for the selected doctor. Required
// after a confirmation failed because someone else took the slot.
// POST /booking/slots/refresh
func (h *BookingHandler) RefreshSlots(w http.ResponseWriter, r *http.Request) {
	wf := h.workflow()
	if err := wf.RefreshSlots(r.Context()); err != nil {
		if errors.Is(err, booking.ErrSuperseded) {
			writeJSON(w, http.StatusOK, h.stateResponse(wf))
			return
		}
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(wf))
}

// Confirm books the selected slot. At most one booking request is sent
// per confirmation, no matter how the attempt ends.
// POST /booking/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	wf := h.workflow()
	appt, err := wf.Confirm(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	h.logger.Info("appointment booked", "appointment_id", appt.ID)
	writeJSON(w, http.StatusCreated, h.stateResponse(wf))
}

// Back returns to doctor selection, discarding the slot list.
// POST /booking/back
func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	wf := h.workflow()
	if err := wf.Back(); err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(wf))
}
