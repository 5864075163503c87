package models

import "time"

// BatchStatus represents the overall status of a batch job
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusPaused    BatchStatus = "paused"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// VideoStatus represents the status of one item within a batch
type VideoStatus string

const (
	VideoStatusQueued      VideoStatus = "queued"
	VideoStatusAnalyzing   VideoStatus = "analyzing"
	VideoStatusAnalyzed    VideoStatus = "analyzed"
	VideoStatusDownloading VideoStatus = "downloading"
	VideoStatusProcessing  VideoStatus = "processing"
	VideoStatusCompleted   VideoStatus = "completed"
	VideoStatusFailed      VideoStatus = "failed"
	VideoStatusSkipped     VideoStatus = "skipped"
)

// BatchConfig holds batch-level processing options
type BatchConfig struct {
	AutoProcess    bool
	TargetPlatform string
	MinScore       float64 // filter threshold for phase 2; 0 means use default
}

// BatchVideoItem is one unit of batch work. It is owned by the worker
// currently processing it; no other goroutine mutates it.
type BatchVideoItem struct {
	VideoID       string
	Title         string
	Status        VideoStatus
	Score         float64
	Analysis      *PipelineState
	ProcessedPath string
	Error         string
}

// BatchJob is a batch of videos fanned through the analysis pipeline
type BatchJob struct {
	BatchID string
	Status  BatchStatus
	Videos  []*BatchVideoItem
	Config  BatchConfig

	TotalCount     int
	AnalyzedCount  int
	ProcessedCount int
	FailedCount    int

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	OutputFolder string
}

// Progress derives batch progress from the per-phase counters.
// Analysis and processing each account for half of the total.
func (j *BatchJob) Progress() float64 {
	if j.TotalCount == 0 {
		return 0
	}
	return float64(j.AnalyzedCount+j.ProcessedCount) / float64(j.TotalCount*2) * 100
}
