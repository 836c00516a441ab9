// Package handlers implements the HTTP endpoints: statement upload, analysis
// enqueueing, saved-analysis CRUD and job inspection.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cianhughes/bank-analyzer/internal/api/middleware"
	"github.com/cianhughes/bank-analyzer/internal/domain"
	"github.com/cianhughes/bank-analyzer/internal/gcs"
	"github.com/cianhughes/bank-analyzer/internal/jobs"
	"github.com/cianhughes/bank-analyzer/internal/store"
)

// StatementsHandler handles statement upload and analysis enqueueing.
type StatementsHandler struct {
	storage        gcs.Storage
	publisher      jobs.Publisher
	defaultCountry string
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewStatementsHandler creates a statements handler.
func NewStatementsHandler(storage gcs.Storage, publisher jobs.Publisher, defaultCountry string, maxUploadBytes int64, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		storage:        storage,
		publisher:      publisher,
		defaultCountry: defaultCountry,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// Upload handles POST /api/statements/upload. The statement travels as the
// "file" field of a multipart form.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Could not read file")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Empty file")
		return
	}

	fileName := filepath.Base(header.Filename)
	objectName := fmt.Sprintf("uploads/%s/%s", time.Now().Format("2006/01/02"), uuid.New().String()+"-"+fileName)

	uri, err := h.storage.Upload(ctx, objectName, data)
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Failed to upload statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	h.log.Info().
		Str("object_uri", uri).
		Str("file_name", fileName).
		Int("bytes", len(data)).
		Msg("Statement uploaded")

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"object_uri": uri,
		"file_name":  fileName,
		"size_bytes": len(data),
	})
}

// EnqueueAnalysis handles POST /api/statements/analyze. The statement must
// already be uploaded; the analysis runs in the background.
func (h *StatementsHandler) EnqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ObjectURI   string `json:"object_uri"`
		FileName    string `json:"file_name"`
		CountryCode string `json:"country_code"`
		UserEmail   string `json:"user_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ObjectURI == "" || req.UserEmail == "" {
		middleware.WriteError(w, http.StatusBadRequest, "object_uri and user_email are required")
		return
	}

	countryCode := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if countryCode == "" {
		countryCode = h.defaultCountry
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = h.storage.FilenameFromURI(req.ObjectURI)
	}

	job := &jobs.AnalyzeStatementJob{
		ObjectURI:   req.ObjectURI,
		FileName:    fileName,
		CountryCode: countryCode,
		UserEmail:   req.UserEmail,
	}

	if err := h.publisher.PublishAnalyzeStatement(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("object_uri", req.ObjectURI).Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":       job.JobID,
		"status":       string(job.Status),
		"country_code": countryCode,
	})
}

// DeleteStatement handles POST /api/statements/delete. Removes an uploaded
// statement object from the bucket.
func (h *StatementsHandler) DeleteStatement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ObjectURI string `json:"object_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ObjectURI) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "object_uri is required")
		return
	}

	if err := h.storage.Delete(r.Context(), req.ObjectURI); err != nil {
		h.log.Error().Err(err).Str("object_uri", req.ObjectURI).Msg("Failed to delete statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	h.log.Info().Str("object_uri", req.ObjectURI).Msg("Statement deleted")

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"object_uri": req.ObjectURI,
		"status":     "deleted",
	})
}

// AnalysesHandler handles saved-analysis endpoints.
type AnalysesHandler struct {
	analyses store.AnalysisStore
	log      zerolog.Logger
}

// NewAnalysesHandler creates an analyses handler.
func NewAnalysesHandler(analyses store.AnalysisStore, log zerolog.Logger) *AnalysesHandler {
	return &AnalysesHandler{analyses: analyses, log: log}
}

// Save handles POST /api/analyses. A fingerprint match returns the existing
// record with status 200; a fresh save returns 201.
func (h *AnalysesHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail string                 `json:"user_email"`
		FileName  string                 `json:"file_name"`
		Analysis  *domain.AnalysisResult `json:"analysis"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserEmail == "" || req.FileName == "" || req.Analysis == nil {
		middleware.WriteError(w, http.StatusBadRequest, "user_email, file_name and analysis are required")
		return
	}

	result, err := h.analyses.Save(r.Context(), req.UserEmail, req.FileName, req.Analysis)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to save analysis")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save analysis")
		return
	}

	if result.IsDuplicate {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"analysis_id":  result.AnalysisID,
			"is_duplicate": true,
			"saved_at":     result.SavedAt,
			"message":      fmt.Sprintf("This analysis was already saved on %s", result.SavedAt.Format("02 Jan 2006, 15:04")),
		})
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"analysis_id":  result.AnalysisID,
		"is_duplicate": false,
		"saved_at":     result.SavedAt,
	})
}

// List handles POST /api/analyses/list.
func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail string `json:"user_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserEmail == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_email is required")
		return
	}

	records, err := h.analyses.List(r.Context(), req.UserEmail)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list analyses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	if records == nil {
		records = []*store.AnalysisRecord{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": records,
		"count":    len(records),
	})
}

// Delete handles POST /api/analyses/delete.
func (h *AnalysesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail  string `json:"user_email"`
		AnalysisID string `json:"analysis_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserEmail == "" || req.AnalysisID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_email and analysis_id are required")
		return
	}

	if err := h.analyses.Delete(r.Context(), req.UserEmail, req.AnalysisID); err != nil {
		h.log.Error().Err(err).Str("analysis_id", req.AnalysisID).Msg("Failed to delete analysis")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"analysis_id": req.AnalysisID,
		"status":      "deleted",
	})
}

// JobsHandler handles job inspection endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserEmail: query.Get("user_email"),
		Status:    jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
