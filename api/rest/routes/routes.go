package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"video-analyzer/api/rest/handlers"
	"video-analyzer/core/batch"
	"video-analyzer/core/pipeline"
	"video-analyzer/core/repository"
)

// SetupRoutes configures all API routes. db may be nil when persistence is
// disabled.
func SetupRoutes(r *mux.Router, orc *pipeline.Orchestrator, processor *batch.Processor, db *repository.DB, log *zap.SugaredLogger) {
	var runRepo *repository.RunRepository
	var batchRepo *repository.BatchRepository
	if db != nil {
		runRepo = repository.NewRunRepository(db)
		batchRepo = repository.NewBatchRepository(db)
	}

	analysisHandler := handlers.NewAnalysisHandler(orc, runRepo, log)
	batchHandler := handlers.NewBatchHandler(processor, batchRepo, log)

	api := r.PathPrefix("/v1").Subrouter()

	// Analysis endpoints
	api.HandleFunc("/analyses", analysisHandler.SubmitAnalysis).Methods("POST")
	api.HandleFunc("/analyses", analysisHandler.ListAnalyses).Methods("GET")
	api.HandleFunc("/analyses/{id}", analysisHandler.GetAnalysis).Methods("GET")
	api.HandleFunc("/analyses/{id}/report", analysisHandler.GetAnalysisReport).Methods("GET")

	// Batch endpoints
	api.HandleFunc("/batches", batchHandler.CreateBatch).Methods("POST")
	api.HandleFunc("/batches/{id}", batchHandler.GetBatch).Methods("GET")
	api.HandleFunc("/batches/{id}/start", batchHandler.StartBatch).Methods("POST")
	api.HandleFunc("/batches/{id}/recommendations", batchHandler.GetRecommendations).Methods("GET")
	api.HandleFunc("/batches/{id}/cancel", batchHandler.CancelBatch).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
}
