// Package ratings handles patient ratings of completed appointments.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/pkg/logging"
)

var (
	// ErrNotRatable refuses a rating for an appointment that is not
	// completed or was already rated.
	ErrNotRatable = errors.New("ratings: appointment cannot be rated")
	// ErrScoreOutOfRange refuses scores outside 1..5.
	ErrScoreOutOfRange = errors.New("ratings: score must be between 1 and 5")
)

// DefaultScore is the score pre-selected in the rating dialog.
const DefaultScore = 3

// API is the slice of the API client the service needs.
type API interface {
	CreateRating(ctx context.Context, appointmentID int64, score int, comment string) (*clinic.Rating, error)
	DoctorRating(ctx context.Context, doctorID int64) (*clinic.DoctorRating, error)
}

// Service enforces the rating preconditions and remembers which appointments
// were rated this session so the action cannot fire twice.
type Service struct {
	api    API
	logger *logging.Logger

	mu    sync.Mutex
	rated map[int64]bool
}

// NewService creates a rating service.
func NewService(api API, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{api: api, logger: logger, rated: make(map[int64]bool)}
}

// CanRate reports whether the rating action should be offered for the
// appointment at all.
func (s *Service) CanRate(appt clinic.Appointment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appt.CanRate() && !s.rated[appt.ID]
}

// Submit files one rating for a completed, not-yet-rated appointment. The
// appointment is marked rated locally on success so a second submission in
// the same session is refused without a network call.
func (s *Service) Submit(ctx context.Context, appt clinic.Appointment, score int, comment string) (*clinic.Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrScoreOutOfRange
	}
	if !s.CanRate(appt) {
		return nil, ErrNotRatable
	}

	rating, err := s.api.CreateRating(ctx, appt.ID, score, comment)
	if err != nil {
		return nil, fmt.Errorf("ratings: submit: %w", err)
	}

	s.mu.Lock()
	s.rated[appt.ID] = true
	s.mu.Unlock()
	s.logger.Info("rating submitted", "appointment_id", appt.ID, "score", score)
	return rating, nil
}

// DoctorAverage returns the doctor's aggregate rating; a doctor nobody has
// rated yet reports a zero aggregate.
func (s *Service) DoctorAverage(ctx context.Context, doctorID int64) (*clinic.DoctorRating, error) {
	rating, err := s.api.DoctorRating(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("ratings: doctor average: %w", err)
	}
	return rating, nil
}
