package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Znbmels/keremet/internal/clinic"
)

// MedicalRecords lists the chart entries visible to the caller.
func (c *Client) MedicalRecords(ctx context.Context) ([]clinic.MedicalRecord, error) {
	var records []clinic.MedicalRecord
	if err := c.do(ctx, request{
		op:     "records.list",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   "/medical-records/",
	}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateMedicalRecordRequest is a new chart entry authored by a doctor.
type CreateMedicalRecordRequest struct {
	PatientID    int64  `json:"patient"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription,omitempty"`
	TestResult   string `json:"test_result,omitempty"`
}

// CreateMedicalRecord adds an entry to a patient's chart.
func (c *Client) CreateMedicalRecord(ctx context.Context, req CreateMedicalRecordRequest) (*clinic.MedicalRecord, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var record clinic.MedicalRecord
	if err := c.do(ctx, request{
		op:     "records.create",
		method: http.MethodPost,
		base:   c.apiBase,
		path:   "/medical-records/",
		body:   body,
	}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Analyses lists lab analyses visible to the caller.
func (c *Client) Analyses(ctx context.Context) ([]clinic.Analysis, error) {
	var analyses []clinic.Analysis
	if err := c.do(ctx, request{
		op:     "analyses.list",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   "/analyses/",
	}, &analyses); err != nil {
		return nil, err
	}
	return analyses, nil
}

// CreateAnalysisRequest is a new lab analysis. ResultFile is optional; when
// set, ResultFileName must name the upload.
type CreateAnalysisRequest struct {
	PatientID      int64
	Name           string
	Description    string
	ResultFile     io.Reader
	ResultFileName string
}

// CreateAnalysis creates a lab analysis, uploading the optional result file
// as multipart form data.
func (c *Client) CreateAnalysis(ctx context.Context, req CreateAnalysisRequest) (*clinic.Analysis, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("patient", strconv.FormatInt(req.PatientID, 10)); err != nil {
		return nil, fmt.Errorf("apiclient: analyses.create: %w", err)
	}
	if err := writer.WriteField("name", req.Name); err != nil {
		return nil, fmt.Errorf("apiclient: analyses.create: %w", err)
	}
	if req.Description != "" {
		if err := writer.WriteField("description", req.Description); err != nil {
			return nil, fmt.Errorf("apiclient: analyses.create: %w", err)
		}
	}
	if req.ResultFile != nil {
		part, err := writer.CreateFormFile("result_file", req.ResultFileName)
		if err != nil {
			return nil, fmt.Errorf("apiclient: analyses.create: %w", err)
		}
		if _, err := io.Copy(part, req.ResultFile); err != nil {
			return nil, fmt.Errorf("apiclient: analyses.create: copy file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("apiclient: analyses.create: %w", err)
	}

	var analysis clinic.Analysis
	if err := c.do(ctx, request{
		op:          "analyses.create",
		method:      http.MethodPost,
		base:        c.apiBase,
		path:        "/analyses/",
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
	}, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
