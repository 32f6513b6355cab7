package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/clinic"
)

type stubAPI struct {
	slots       []clinic.TimeSlot
	createCalls atomic.Int32
	deleteCalls atomic.Int32
	updateCalls atomic.Int32
	createErr   error
	deleteErr   error
	updateErr   error
	nextID      int64
}

func (s *stubAPI) TimeSlots(ctx context.Context, q apiclient.TimeSlotQuery) ([]clinic.TimeSlot, error) {
	return s.slots, nil
}

func (s *stubAPI) CreateTimeSlot(ctx context.Context, req apiclient.CreateTimeSlotRequest) (*clinic.TimeSlot, error) {
	s.createCalls.Add(1)
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	return &clinic.TimeSlot{ID: s.nextID, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (s *stubAPI) DeleteTimeSlot(ctx context.Context, id int64) error {
	s.deleteCalls.Add(1)
	return s.deleteErr
}

func (s *stubAPI) UpdateAppointmentStatus(ctx context.Context, id int64, status clinic.AppointmentStatus) (*clinic.Appointment, error) {
	s.updateCalls.Add(1)
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &clinic.Appointment{ID: id, Status: status}, nil
}

func TestCreateSlotRejectsBadIntervalsBeforeNetwork(t *testing.T) {
	api := &stubAPI{}
	m := NewManager(api, nil)
	now := time.Now()

	_, err := m.CreateSlot(context.Background(), time.Time{}, now)
	assert.ErrorIs(t, err, ErrEmptyInterval)

	_, err = m.CreateSlot(context.Background(), now, time.Time{})
	assert.ErrorIs(t, err, ErrEmptyInterval)

	_, err = m.CreateSlot(context.Background(), now.Add(time.Hour), now)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = m.CreateSlot(context.Background(), now, now)
	assert.ErrorIs(t, err, ErrInvalidInterval, "equal start and end is not an interval")

	assert.Equal(t, int32(0), api.createCalls.Load(), "no POST may be issued for invalid input")
}

func TestCreateSlotPatchesLocalListAfterConfirm(t *testing.T) {
	api := &stubAPI{}
	m := NewManager(api, nil)
	now := time.Now().Truncate(time.Minute)

	slot, err := m.CreateSlot(context.Background(), now, now.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, m.Slots(), 1)
	assert.Equal(t, slot.ID, m.Slots()[0].ID)
}

func TestCreateSlotFailureLeavesLocalListUntouched(t *testing.T) {
	api := &stubAPI{createErr: errors.New("overlaps an existing slot")}
	m := NewManager(api, nil)
	now := time.Now()

	_, err := m.CreateSlot(context.Background(), now, now.Add(time.Hour))
	require.Error(t, err)
	assert.Empty(t, m.Slots(), "rejected mutations must not show up locally")
}

func TestDeleteSlotGuardsBooked(t *testing.T) {
	api := &stubAPI{slots: []clinic.TimeSlot{
		{ID: 1, IsBooked: true},
		{ID: 2},
	}}
	m := NewManager(api, nil)
	require.NoError(t, m.LoadSlots(context.Background(), time.Time{}))

	err := m.DeleteSlot(context.Background(), 1)
	assert.ErrorIs(t, err, ErrSlotBooked)
	assert.Equal(t, int32(0), api.deleteCalls.Load(), "booked slot deletion never reaches the server")

	require.NoError(t, m.DeleteSlot(context.Background(), 2))
	assert.Equal(t, int32(1), api.deleteCalls.Load())
	require.Len(t, m.Slots(), 1)
	assert.Equal(t, int64(1), m.Slots()[0].ID)
}

func TestDeleteSlotServerFailureKeepsLocalList(t *testing.T) {
	api := &stubAPI{slots: []clinic.TimeSlot{{ID: 2}}, deleteErr: errors.New("409")}
	m := NewManager(api, nil)
	require.NoError(t, m.LoadSlots(context.Background(), time.Time{}))

	require.Error(t, m.DeleteSlot(context.Background(), 2))
	assert.Len(t, m.Slots(), 1, "local list changes only after server confirmation")
}

func TestCanDeleteSlot(t *testing.T) {
	assert.True(t, CanDeleteSlot(clinic.TimeSlot{}))
	assert.False(t, CanDeleteSlot(clinic.TimeSlot{IsBooked: true}))
	assert.False(t, CanDeleteSlot(clinic.TimeSlot{Status: clinic.SlotBooked}))
}

func TestAllowedTransitions(t *testing.T) {
	scheduled := clinic.Appointment{Status: clinic.AppointmentScheduled}
	got := AllowedTransitions(scheduled)
	assert.Equal(t, []clinic.AppointmentStatus{clinic.AppointmentCompleted, clinic.AppointmentCanceled}, got)

	assert.Nil(t, AllowedTransitions(clinic.Appointment{Status: clinic.AppointmentCompleted}))
	assert.Nil(t, AllowedTransitions(clinic.Appointment{Status: clinic.AppointmentCanceled}))
}

func TestUpdateAppointmentStatus(t *testing.T) {
	api := &stubAPI{}
	m := NewManager(api, nil)
	scheduled := clinic.Appointment{ID: 5, Status: clinic.AppointmentScheduled}

	updated, err := m.UpdateAppointmentStatus(context.Background(), scheduled, clinic.AppointmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, clinic.AppointmentCompleted, updated.Status)

	_, err = m.UpdateAppointmentStatus(context.Background(), clinic.Appointment{ID: 6, Status: clinic.AppointmentCompleted}, clinic.AppointmentCanceled)
	assert.ErrorIs(t, err, ErrBadTransition)
	assert.Equal(t, int32(1), api.updateCalls.Load(), "disallowed transitions never reach the server")
}
