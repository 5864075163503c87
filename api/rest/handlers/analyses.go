package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"video-analyzer/core/models"
	"video-analyzer/core/pipeline"
	"video-analyzer/core/repository"
	"video-analyzer/core/spec"
)

// AnalysisHandler handles analysis-related HTTP requests
type AnalysisHandler struct {
	orchestrator *pipeline.Orchestrator
	runRepo      *repository.RunRepository
	log          *zap.SugaredLogger
}

// NewAnalysisHandler creates a new analysis handler. runRepo may be nil when
// persistence is disabled.
func NewAnalysisHandler(orc *pipeline.Orchestrator, runRepo *repository.RunRepository, log *zap.SugaredLogger) *AnalysisHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AnalysisHandler{
		orchestrator: orc,
		runRepo:      runRepo,
		log:          log,
	}
}

// SubmitAnalysisRequest represents the request to analyze a video
type SubmitAnalysisRequest struct {
	VideoURL       string  `json:"video_url"`
	MaxDuration    int     `json:"max_duration,omitempty"`
	MinScore       float64 `json:"min_score,omitempty"`
	SkipProcessing bool    `json:"skip_processing,omitempty"`
	SkipExport     bool    `json:"skip_export,omitempty"`
	TargetPlatform string  `json:"target_platform,omitempty"`
	SpecYAML       string  `json:"spec_yaml,omitempty"`
}

// SubmitAnalysisResponse represents the response after submitting a run
type SubmitAnalysisResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitAnalysis handles POST /v1/analyses
func (h *AnalysisHandler) SubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	var req SubmitAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var cfg models.PipelineConfig
	if req.SpecYAML != "" {
		parsed, err := spec.ParseAnalysisSpec(req.SpecYAML)
		if err != nil {
			http.Error(w, "Invalid analysis spec: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg = *parsed
	} else {
		if req.VideoURL == "" {
			http.Error(w, "video_url is required", http.StatusBadRequest)
			return
		}
		cfg = models.PipelineConfig{
			VideoURL:       req.VideoURL,
			MaxDuration:    req.MaxDuration,
			MinScore:       req.MinScore,
			SkipProcessing: req.SkipProcessing,
			SkipExport:     req.SkipExport,
			TargetPlatform: req.TargetPlatform,
		}
	}

	jobID := h.orchestrator.Submit(r.Context(), cfg, h.persistProgress(cfg.VideoURL))

	resp := SubmitAnalysisResponse{
		ID:        jobID,
		Status:    string(models.PipelineStatusPending),
		CreatedAt: time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// persistProgress returns a progress callback that mirrors run state into
// the database when persistence is enabled.
func (h *AnalysisHandler) persistProgress(videoURL string) pipeline.ProgressCallback {
	if h.runRepo == nil {
		return nil
	}

	created := false
	return func(state *models.PipelineState) {
		if !created {
			if err := h.runRepo.CreateRun(state.JobID, videoURL); err != nil {
				h.log.Errorw("failed to create run row", "job_id", state.JobID, "error", err)
				return
			}
			created = true
		}

		var latest *models.StageOutcome
		if state.CurrentStage != nil {
			latest = state.Outcome(*state.CurrentStage)
		}
		if err := h.runRepo.SaveState(state, latest); err != nil {
			h.log.Errorw("failed to persist run state", "job_id", state.JobID, "error", err)
		}
	}
}

// GetAnalysis handles GET /v1/analyses/{id}
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	state, ok := h.orchestrator.Job(jobID)
	if !ok {
		// Fall back to the database for runs from previous processes
		if h.runRepo != nil {
			rec, err := h.runRepo.GetRun(jobID)
			if err == nil && rec != nil {
				writeJSON(w, http.StatusOK, runRecordResponse(rec))
				return
			}
		}
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, stateResponse(state))
}

// GetAnalysisReport handles GET /v1/analyses/{id}/report
func (h *AnalysisHandler) GetAnalysisReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["id"]

	state, ok := h.orchestrator.Job(jobID)
	if !ok {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	report := state.StageData(models.StageReporting)
	if report == nil {
		http.Error(w, "Report not available yet", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListAnalyses handles GET /v1/analyses
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	if h.runRepo == nil {
		http.Error(w, "Listing requires database persistence", http.StatusNotImplemented)
		return
	}

	var status *models.PipelineStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.PipelineStatus(s)
		status = &st
	}

	records, err := h.runRepo.ListRuns(status, 50)
	if err != nil {
		http.Error(w, "Failed to list analyses: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		items = append(items, runRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": items})
}

func stateResponse(state *models.PipelineState) map[string]interface{} {
	resp := map[string]interface{}{
		"id":               state.JobID,
		"status":           state.Status,
		"progress":         state.Progress,
		"completed_stages": state.CompletedStages,
		"started_at":       state.StartTime,
	}
	if state.CurrentStage != nil {
		resp["current_stage"] = *state.CurrentStage
	}
	if state.EndTime != nil {
		resp["finished_at"] = *state.EndTime
	}
	if state.Error != "" {
		resp["error"] = state.Error
	}
	if score := state.FinalScore(); score != nil {
		resp["final_score"] = score.FinalScore
		resp["grade"] = score.Grade
		resp["recommendation"] = score.Recommendation
	}
	return resp
}

func runRecordResponse(rec *repository.RunRecord) map[string]interface{} {
	resp := map[string]interface{}{
		"id":         rec.ID,
		"video_url":  rec.VideoURL,
		"status":     rec.Status,
		"progress":   rec.Progress,
		"started_at": rec.StartedAt,
	}
	if rec.CurrentStage != nil {
		resp["current_stage"] = *rec.CurrentStage
	}
	if rec.FinalScore != nil {
		resp["final_score"] = *rec.FinalScore
	}
	if rec.Grade != nil {
		resp["grade"] = *rec.Grade
	}
	if rec.Error != nil {
		resp["error"] = *rec.Error
	}
	if rec.FinishedAt != nil {
		resp["finished_at"] = *rec.FinishedAt
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
