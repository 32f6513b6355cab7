// Package clinic defines the domain types exchanged with the clinic backend.
// Field names mirror the backend's JSON wire format.
package clinic

import (
	"fmt"
	"time"
)

// Role identifies which side of the portal a user is on.
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// ParseRole validates a wire role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDoctor, RolePatient:
		return Role(s), nil
	default:
		return "", fmt.Errorf("clinic: unknown role %q", s)
	}
}

// Specialty is the closed set of doctor specialties the directory filters on.
type Specialty string

const (
	SpecialtyTherapist    Specialty = "THERAPIST"
	SpecialtySurgeon      Specialty = "SURGEON"
	SpecialtyPediatrician Specialty = "PEDIATRICIAN"
	SpecialtyNeurologist  Specialty = "NEUROLOGIST"
	SpecialtyCardiologist Specialty = "CARDIOLOGIST"
	SpecialtyDentist      Specialty = "DENTIST"
)

// Specialties lists every known specialty, in directory display order.
var Specialties = []Specialty{
	SpecialtyTherapist,
	SpecialtySurgeon,
	SpecialtyPediatrician,
	SpecialtyNeurologist,
	SpecialtyCardiologist,
	SpecialtyDentist,
}

// ParseSpecialty validates a specialty filter value.
func ParseSpecialty(s string) (Specialty, error) {
	for _, sp := range Specialties {
		if Specialty(s) == sp {
			return sp, nil
		}
	}
	return "", fmt.Errorf("clinic: unknown specialty %q", s)
}

// Doctor is a directory entry. Read-only from the portal's perspective.
type Doctor struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Specialty     Specialty `json:"specialty"`
	Experience    int       `json:"experience"`
	Price         *float64  `json:"consultation_price,omitempty"`
	PhotoURL      string    `json:"photo,omitempty"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
}

// FullName returns the doctor's display name.
func (d Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// SlotStatus is the backend lifecycle state of a time slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	SlotCanceled  SlotStatus = "CANCELED"
)

// TimeSlot is a doctor-defined bookable interval.
type TimeSlot struct {
	ID        int64      `json:"id"`
	DoctorID  int64      `json:"doctor"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status,omitempty"`
	IsBooked  bool       `json:"is_booked"`
}

// Selectable reports whether a patient may pick this slot. A booked slot is
// never offered again.
func (s TimeSlot) Selectable() bool {
	return !s.IsBooked && s.Status != SlotBooked && s.Status != SlotCanceled
}

// AppointmentStatus is the appointment lifecycle state.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCanceled  AppointmentStatus = "CANCELED"
)

// Appointment binds a patient to a doctor's slot.
type Appointment struct {
	ID        int64             `json:"id"`
	DoctorID  int64             `json:"doctor"`
	PatientID int64             `json:"patient"`
	TimeSlot  TimeSlot          `json:"time_slot"`
	Status    AppointmentStatus `json:"status"`
	Reason    string            `json:"reason,omitempty"`
	IsRated   bool              `json:"is_rated"`

	// Denormalized display fields the dashboard endpoints include.
	DoctorName  string `json:"doctor_name,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

// CanTransition reports whether the doctor may move the appointment to the
// target status. Only SCHEDULED appointments move, and only to COMPLETED or
// CANCELED.
func (a Appointment) CanTransition(to AppointmentStatus) bool {
	if a.Status != AppointmentScheduled {
		return false
	}
	return to == AppointmentCompleted || to == AppointmentCanceled
}

// CanRate reports whether the patient may still rate this appointment.
func (a Appointment) CanRate() bool {
	return a.Status == AppointmentCompleted && !a.IsRated
}

// Rating is a patient's score for a completed appointment, at most one per
// appointment.
type Rating struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment"`
	DoctorID      int64     `json:"doctor"`
	PatientID     int64     `json:"patient"`
	Score         int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DoctorRating is the aggregate returned by the average-rating endpoint.
type DoctorRating struct {
	Average float64 `json:"average_rating"`
	Count   int     `json:"rating_count"`
}

// MedicalRecord is a doctor-authored entry in a patient's chart.
type MedicalRecord struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patient"`
	DoctorID     int64     `json:"doctor"`
	Diagnosis    string    `json:"diagnosis"`
	Prescription string    `json:"prescription,omitempty"`
	TestResult   string    `json:"test_result,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnalysisStatus is the lab-analysis lifecycle state.
type AnalysisStatus string

const (
	AnalysisPending  AnalysisStatus = "PENDING"
	AnalysisReady    AnalysisStatus = "READY"
	AnalysisCanceled AnalysisStatus = "CANCELED"
)

// Analysis is a lab test tracked for a patient, optionally with an uploaded
// result file.
type Analysis struct {
	ID            int64          `json:"id"`
	PatientID     int64          `json:"patient"`
	DoctorID      int64          `json:"doctor"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Status        AnalysisStatus `json:"status"`
	ResultFileURL string         `json:"result_file,omitempty"`
	DateAdded     time.Time      `json:"date_added"`
	DateCompleted *time.Time     `json:"date_completed,omitempty"`
}

// Profile is the authenticated user's own account (users/me).
type Profile struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	INN       string `json:"inn,omitempty"`
}
