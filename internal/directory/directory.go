// Package directory serves the doctor directory views: specialty filtering
// on the backend, free-text search applied locally.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Znbmels/keremet/internal/clinic"
)

// API is the slice of the API client the directory needs.
type API interface {
	Doctors(ctx context.Context, specialty clinic.Specialty) ([]clinic.Doctor, error)
	Doctor(ctx context.Context, id int64) (*clinic.Doctor, error)
}

// Query filters the directory. Zero values mean "no filter".
type Query struct {
	Specialty string // validated against the closed specialty set
	Search    string // case-insensitive match on the doctor's name
}

// Service fetches and filters the directory. Doctors with zero availability
// are returned like any other; hiding them is a presentation decision the
// directory never makes.
type Service struct {
	api API
}

// NewService creates a directory service.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Find lists doctors matching the query.
func (s *Service) Find(ctx context.Context, q Query) ([]clinic.Doctor, error) {
	var specialty clinic.Specialty
	if q.Specialty != "" {
		sp, err := clinic.ParseSpecialty(q.Specialty)
		if err != nil {
			return nil, fmt.Errorf("directory: %w", err)
		}
		specialty = sp
	}

	doctors, err := s.api.Doctors(ctx, specialty)
	if err != nil {
		return nil, fmt.Errorf("directory: list doctors: %w", err)
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return doctors, nil
	}
	matched := make([]clinic.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if strings.Contains(strings.ToLower(d.FullName()), term) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// Get fetches one directory entry.
func (s *Service) Get(ctx context.Context, id int64) (*clinic.Doctor, error) {
	doctor, err := s.api.Doctor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("directory: get doctor: %w", err)
	}
	return doctor, nil
}
