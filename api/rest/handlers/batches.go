package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"video-analyzer/core/batch"
	"video-analyzer/core/models"
	"video-analyzer/core/repository"
)

// BatchHandler handles batch-related HTTP requests
type BatchHandler struct {
	processor *batch.Processor
	batchRepo *repository.BatchRepository
	log       *zap.SugaredLogger
}

// NewBatchHandler creates a new batch handler. batchRepo may be nil when
// persistence is disabled.
func NewBatchHandler(processor *batch.Processor, batchRepo *repository.BatchRepository, log *zap.SugaredLogger) *BatchHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &BatchHandler{
		processor: processor,
		batchRepo: batchRepo,
		log:       log,
	}
}

// CreateBatchRequest represents the request to create a batch
type CreateBatchRequest struct {
	VideoIDs       []string `json:"video_ids"`
	AutoProcess    bool     `json:"auto_process,omitempty"`
	TargetPlatform string   `json:"target_platform,omitempty"`
	MinScore       float64  `json:"min_score,omitempty"`
}

// CreateBatchResponse represents the response after creating a batch
type CreateBatchResponse struct {
	BatchID    string    `json:"batch_id"`
	Status     string    `json:"status"`
	TotalCount int       `json:"total_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateBatch handles POST /v1/batches
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.VideoIDs) == 0 {
		http.Error(w, "video_ids must list at least one video", http.StatusBadRequest)
		return
	}

	config := models.BatchConfig{
		AutoProcess:    req.AutoProcess,
		TargetPlatform: req.TargetPlatform,
		MinScore:       req.MinScore,
	}
	if config.TargetPlatform == "" {
		config.TargetPlatform = "tiktok"
	}

	job := h.processor.CreateBatch(req.VideoIDs, config)

	if h.batchRepo != nil {
		if err := h.batchRepo.CreateBatch(job); err != nil {
			h.log.Errorw("failed to persist batch", "batch_id", job.BatchID, "error", err)
		}
	}

	resp := CreateBatchResponse{
		BatchID:    job.BatchID,
		Status:     string(job.Status),
		TotalCount: job.TotalCount,
		CreatedAt:  job.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// StartBatch handles POST /v1/batches/{id}/start
func (h *BatchHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	batchID := vars["id"]

	// The batch outlives the HTTP request
	err := h.processor.StartBatch(context.Background(), batchID, h.persistProgress())
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound) {
			http.Error(w, "Batch not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"batch_id": batchID,
		"status":   string(models.BatchStatusRunning),
	})
}

func (h *BatchHandler) persistProgress() batch.ProgressCallback {
	if h.batchRepo == nil {
		return nil
	}
	return func(job *models.BatchJob) {
		if err := h.batchRepo.SaveBatch(job); err != nil {
			h.log.Errorw("failed to persist batch state", "batch_id", job.BatchID, "error", err)
		}
	}
}

// GetBatch handles GET /v1/batches/{id}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	batchID := vars["id"]

	job, ok := h.processor.Job(batchID)
	if !ok {
		http.Error(w, "Batch not found", http.StatusNotFound)
		return
	}

	items := make([]map[string]interface{}, 0, len(job.Videos))
	for _, item := range job.Videos {
		entry := map[string]interface{}{
			"video_id": item.VideoID,
			"status":   item.Status,
			"score":    item.Score,
		}
		if item.Title != "" {
			entry["title"] = item.Title
		}
		if item.ProcessedPath != "" {
			entry["processed_path"] = item.ProcessedPath
		}
		if item.Error != "" {
			entry["error"] = item.Error
		}
		items = append(items, entry)
	}

	recommended := 0
	if recs, err := h.processor.Recommendations(batchID); err == nil {
		recommended = len(recs)
	}

	resp := map[string]interface{}{
		"batch_id":          job.BatchID,
		"status":            job.Status,
		"progress":          job.Progress(),
		"total_count":       job.TotalCount,
		"analyzed_count":    job.AnalyzedCount,
		"processed_count":   job.ProcessedCount,
		"failed_count":      job.FailedCount,
		"recommended_count": recommended,
		"videos":            items,
		"created_at":        job.CreatedAt,
	}
	if job.OutputFolder != "" {
		resp["output_folder"] = job.OutputFolder
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRecommendations handles GET /v1/batches/{id}/recommendations
func (h *BatchHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	batchID := vars["id"]

	recs, err := h.processor.Recommendations(batchID)
	if err != nil {
		http.Error(w, "Batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// CancelBatch handles POST /v1/batches/{id}/cancel
func (h *BatchHandler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	batchID := vars["id"]

	if !h.processor.Cancel(batchID) {
		http.Error(w, "Batch is not running", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"batch_id": batchID,
		"status":   "cancelling",
	})
}
