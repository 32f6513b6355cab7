package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Znbmels/keremet/internal/clinic"
)

type stubAPI struct {
	doctors       []clinic.Doctor
	lastSpecialty clinic.Specialty
}

func (s *stubAPI) Doctors(ctx context.Context, specialty clinic.Specialty) ([]clinic.Doctor, error) {
	s.lastSpecialty = specialty
	return s.doctors, nil
}

func (s *stubAPI) Doctor(ctx context.Context, id int64) (*clinic.Doctor, error) {
	for _, d := range s.doctors {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, nil
}

func TestFindPassesSpecialtyThrough(t *testing.T) {
	api := &stubAPI{doctors: []clinic.Doctor{{ID: 1, FirstName: "Dana", LastName: "Serik", Specialty: clinic.SpecialtyDentist}}}
	s := NewService(api)

	got, err := s.Find(context.Background(), Query{Specialty: "DENTIST"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, clinic.SpecialtyDentist, api.lastSpecialty)
}

func TestFindRejectsUnknownSpecialty(t *testing.T) {
	s := NewService(&stubAPI{})
	_, err := s.Find(context.Background(), Query{Specialty: "ALCHEMIST"})
	assert.Error(t, err, "specialty is a closed enum")
}

func TestFindSearchIsCaseInsensitive(t *testing.T) {
	api := &stubAPI{doctors: []clinic.Doctor{
		{ID: 1, FirstName: "Dana", LastName: "Serik"},
		{ID: 2, FirstName: "Aruzhan", LastName: "Nurlanova"},
	}}
	s := NewService(api)

	got, err := s.Find(context.Background(), Query{Search: "nurlan"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	got, err = s.Find(context.Background(), Query{Search: "  DANA "})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFindKeepsDoctorsWithZeroAvailability(t *testing.T) {
	api := &stubAPI{doctors: []clinic.Doctor{
		{ID: 1, FirstName: "Dana", LastName: "Serik", RatingCount: 0},
	}}
	s := NewService(api)

	got, err := s.Find(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, got, 1, "a doctor with no slots or ratings is still listed")
}
