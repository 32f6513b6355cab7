package handlers

import (
	"net/http"
	"strings"

	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/internal/directory"
	"github.com/Znbmels/keremet/internal/ratings"
	"github.com/Znbmels/keremet/pkg/logging"
)

// DirectoryHandler serves the doctor directory.
type DirectoryHandler struct {
	directory *directory.Service
	ratings   *ratings.Service
	logger    *logging.Logger
}

func NewDirectoryHandler(dir *directory.Service, rs *ratings.Service, logger *logging.Logger) *DirectoryHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DirectoryHandler{directory: dir, ratings: rs, logger: logger}
}

// ListDoctors lists doctors, optionally filtered.
// GET /doctors?specialty=DENTIST&search=ali
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	specialty := strings.TrimSpace(r.URL.Query().Get("specialty"))
	if specialty != "" {
		if _, err := clinic.ParseSpecialty(specialty); err != nil {
			jsonError(w, "unknown specialty "+specialty, http.StatusBadRequest)
			return
		}
	}

	doctors, err := h.directory.Find(r.Context(), directory.Query{
		Specialty: specialty,
		Search:    r.URL.Query().Get("search"),
	})
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

// ListSpecialties returns the closed specialty set for filter pickers.
// GET /doctors/specialties
func (h *DirectoryHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, clinic.Specialties)
}

// GetDoctor returns one directory entry.
// GET /doctors/{doctorID}
func (h *DirectoryHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "doctorID")
	if err != nil {
		jsonError(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	doctor, err := h.directory.Get(r.Context(), id)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// GetDoctorRating returns the aggregate rating. Doctors nobody has rated
// yet get a zero aggregate, not an error.
// GET /doctors/{doctorID}/rating
func (h *DirectoryHandler) GetDoctorRating(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "doctorID")
	if err != nil {
		jsonError(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	agg, err := h.ratings.DoctorAverage(r.Context(), id)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}
