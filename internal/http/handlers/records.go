package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/pkg/logging"
)

// maxAnalysisUpload bounds the multipart form held in memory when a
// result file is attached.
const maxAnalysisUpload = 16 << 20

// RecordsHandler serves medical records and lab analyses.
type RecordsHandler struct {
	client *apiclient.Client
	logger *logging.Logger
}

func NewRecordsHandler(client *apiclient.Client, logger *logging.Logger) *RecordsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RecordsHandler{client: client, logger: logger}
}

// ListRecords returns chart entries visible to the caller.
// GET /records
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.client.MedicalRecords(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// CreateRecord adds a chart entry for a patient.
// POST /records
func (h *RecordsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req apiclient.CreateMedicalRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.PatientID <= 0 {
		jsonError(w, "patient is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Diagnosis) == "" {
		jsonError(w, "diagnosis is required", http.StatusBadRequest)
		return
	}

	record, err := h.client.CreateMedicalRecord(r.Context(), req)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// ListAnalyses returns lab analyses visible to the caller.
// GET /analyses
func (h *RecordsHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.client.Analyses(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

// CreateAnalysis creates a lab analysis from a multipart form. The
// result_file part is optional; an analysis without one stays pending.
// POST /analyses
func (h *RecordsHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAnalysisUpload); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	patientID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("patient")), 10, 64)
	if err != nil || patientID <= 0 {
		jsonError(w, "patient is required", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}

	req := apiclient.CreateAnalysisRequest{
		PatientID:   patientID,
		Name:        name,
		Description: r.FormValue("description"),
	}
	if file, header, err := r.FormFile("result_file"); err == nil {
		defer file.Close()
		req.ResultFile = file
		req.ResultFileName = header.Filename
	}

	analysis, err := h.client.CreateAnalysis(r.Context(), req)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, analysis)
}
