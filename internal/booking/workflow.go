// Package booking drives the patient's appointment booking flow: pick a
// doctor, pick one of their open slots, confirm the reservation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/pkg/logging"
)

// State is the workflow position. CONFIRMED and FAILED are terminal.
type State string

const (
	StateSelectDoctor State = "SELECT_DOCTOR"
	StateSelectSlot   State = "SELECT_SLOT"
	StateConfirmed    State = "CONFIRMED"
	StateFailed       State = "FAILED"
)

var (
	// ErrSuperseded marks a slot fetch whose doctor was changed again before
	// the response arrived. The response is discarded, never applied.
	ErrSuperseded = errors.New("booking: response superseded by a newer selection")

	ErrInvalidState      = errors.New("booking: operation not allowed in current state")
	ErrSlotNotSelectable = errors.New("booking: slot is not selectable")
	ErrNoSlotSelected    = errors.New("booking: no slot selected")
	ErrSlotsStale        = errors.New("booking: slot list is stale, refresh before selecting")
	ErrConfirmInFlight   = errors.New("booking: confirmation already in flight")
)

// SlotAPI is the slice of the API client the workflow needs.
type SlotAPI interface {
	TimeSlots(ctx context.Context, q apiclient.TimeSlotQuery) ([]clinic.TimeSlot, error)
	CreateAppointment(ctx context.Context, doctorID, timeSlotID int64) (*clinic.Appointment, error)
}

// Workflow is one booking attempt. Steps are strictly sequential within an
// instance; a stale slot fetch is detected by generation and dropped.
type Workflow struct {
	api    SlotAPI
	logger *logging.Logger

	mu         sync.Mutex
	state      State
	gen        uint64
	doctor     *clinic.Doctor
	slots      []clinic.TimeSlot
	slotsStale bool
	selected   *clinic.TimeSlot
	confirming bool
	confirmed  *clinic.Appointment
	lastErr    error
}

// New starts a workflow in SELECT_DOCTOR.
func New(api SlotAPI, logger *logging.Logger) *Workflow {
	if logger == nil {
		logger = logging.Default()
	}
	return &Workflow{api: api, logger: logger, state: StateSelectDoctor}
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the last recoverable error, shown next to the current step.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// SelectDoctor picks a doctor and fetches their slots. On fetch failure the
// workflow stays in SELECT_DOCTOR with the error recorded; the user can pick
// again. If the doctor changes again while the fetch is in flight, the older
// response is discarded with ErrSuperseded.
func (w *Workflow) SelectDoctor(ctx context.Context, doctor clinic.Doctor) error {
	w.mu.Lock()
	if w.state != StateSelectDoctor && w.state != StateSelectSlot {
		w.mu.Unlock()
		return ErrInvalidState
	}
	w.gen++
	gen := w.gen
	d := doctor
	w.doctor = &d
	w.selected = nil
	w.state = StateSelectDoctor
	w.mu.Unlock()

	slots, err := w.api.TimeSlots(ctx, apiclient.TimeSlotQuery{DoctorID: doctor.ID})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		return ErrSuperseded
	}
	if err != nil {
		w.lastErr = err
		return fmt.Errorf("booking: fetch slots: %w", err)
	}
	w.slots = slots
	w.slotsStale = false
	w.lastErr = nil
	w.state = StateSelectSlot
	w.logger.Info("doctor selected", "doctor_id", doctor.ID, "slots", len(slots))
	return nil
}

// Slots returns the fetched slot list. An empty list is a valid, displayable
// state: a doctor with zero availability is shown, not hidden.
func (w *Workflow) Slots() []clinic.TimeSlot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]clinic.TimeSlot, len(w.slots))
	copy(out, w.slots)
	return out
}

// SelectableSlots returns only the slots a patient may pick. Booked slots are
// never offered.
func (w *Workflow) SelectableSlots() []clinic.TimeSlot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]clinic.TimeSlot, 0, len(w.slots))
	for _, s := range w.slots {
		if s.Selectable() {
			out = append(out, s)
		}
	}
	return out
}

// SelectSlot marks a slot for confirmation. Booked or unknown slots are
// rejected; after a failed confirmation the list must be refreshed first.
func (w *Workflow) SelectSlot(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSelectSlot {
		return ErrInvalidState
	}
	if w.slotsStale {
		return ErrSlotsStale
	}
	for _, s := range w.slots {
		if s.ID == id {
			if !s.Selectable() {
				return ErrSlotNotSelectable
			}
			slot := s
			w.selected = &slot
			return nil
		}
	}
	return ErrSlotNotSelectable
}

// RefreshSlots refetches the current doctor's slots, clearing staleness after
// a lost booking race.
func (w *Workflow) RefreshSlots(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateSelectSlot || w.doctor == nil {
		w.mu.Unlock()
		return ErrInvalidState
	}
	w.gen++
	gen := w.gen
	doctorID := w.doctor.ID
	w.selected = nil
	w.mu.Unlock()

	slots, err := w.api.TimeSlots(ctx, apiclient.TimeSlotQuery{DoctorID: doctorID})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		return ErrSuperseded
	}
	if err != nil {
		w.lastErr = err
		return fmt.Errorf("booking: refresh slots: %w", err)
	}
	w.slots = slots
	w.slotsStale = false
	w.lastErr = nil
	return nil
}

// Confirm issues exactly one reservation call for the selected slot. Success
// moves the workflow to CONFIRMED. A failed reservation (slot raced, backend
// validation) keeps SELECT_SLOT, discards the selection and marks the slot
// list stale so the user re-fetches and reselects; the call is never silently
// retried. A dead session moves the workflow to FAILED.
func (w *Workflow) Confirm(ctx context.Context) (*clinic.Appointment, error) {
	w.mu.Lock()
	if w.state != StateSelectSlot {
		w.mu.Unlock()
		return nil, ErrInvalidState
	}
	if w.selected == nil {
		w.mu.Unlock()
		return nil, ErrNoSlotSelected
	}
	if w.confirming {
		w.mu.Unlock()
		return nil, ErrConfirmInFlight
	}
	w.confirming = true
	doctorID := w.doctor.ID
	slotID := w.selected.ID
	w.mu.Unlock()

	appt, err := w.api.CreateAppointment(ctx, doctorID, slotID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirming = false
	if err != nil {
		w.selected = nil
		w.slotsStale = true
		w.lastErr = err
		if errors.Is(err, apiclient.ErrSessionExpired) {
			w.state = StateFailed
		}
		return nil, fmt.Errorf("booking: confirm: %w", err)
	}
	w.confirmed = appt
	w.state = StateConfirmed
	w.lastErr = nil
	w.logger.Info("appointment booked", "appointment_id", appt.ID, "doctor_id", doctorID, "slot_id", slotID)
	return appt, nil
}

// Back returns from slot selection to doctor selection, discarding the
// selected slot. Permitted from SELECT_SLOT unless a confirmation is in
// flight: navigating away mid-reservation would let a late success flip the
// workflow to CONFIRMED underneath the user.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSelectSlot {
		return ErrInvalidState
	}
	if w.confirming {
		return ErrConfirmInFlight
	}
	w.gen++ // anything still in flight is superseded
	w.state = StateSelectDoctor
	w.selected = nil
	w.slots = nil
	w.slotsStale = false
	w.lastErr = nil
	return nil
}

// Result echoes the confirmed booking: the chosen doctor, slot and the
// created appointment. Only meaningful in CONFIRMED.
func (w *Workflow) Result() (*clinic.Doctor, *clinic.TimeSlot, *clinic.Appointment) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateConfirmed {
		return nil, nil, nil
	}
	return w.doctor, w.selected, w.confirmed
}
