package pipeline

import (
	"context"

	"video-analyzer/core/models"
)

// Stage provider interfaces. One analytical concern per interface; concrete
// implementations live under providers/ and must be safe to retry.

// Ingestor validates a source URL and fetches its metadata
type Ingestor interface {
	Ingest(ctx context.Context, cfg models.PipelineConfig) (*models.IngestionResult, error)
}

// SignalAnalyzer computes engagement signals from video statistics
type SignalAnalyzer interface {
	AnalyzeSignals(ctx context.Context, videoID string, meta *models.VideoMetadata) (*models.SignalResult, error)
}

// Transcriber produces a transcript for a video
type Transcriber interface {
	Transcribe(ctx context.Context, videoID, localPath string) (*models.TranscriptResult, error)
}

// TextAnalyzer runs NLP over transcript text
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, text string, segments []models.TranscriptSegment) (*models.NLPResult, error)
}

// PolicyChecker evaluates content safety
type PolicyChecker interface {
	CheckPolicy(ctx context.Context, text string, keywords []string) (*models.PolicyResult, error)
}

// TrendMiner finds comparable trending content
type TrendMiner interface {
	MineTrends(ctx context.Context, meta *models.VideoMetadata, keywords []string) (*models.TrendResult, error)
}

// ChannelAnalyzer scores channel authority
type ChannelAnalyzer interface {
	AnalyzeChannel(ctx context.Context, channelID string) (*models.ChannelResult, error)
}

// Recommender produces optimization suggestions for a video
type Recommender interface {
	Recommend(ctx context.Context, meta *models.VideoMetadata, signals *models.SignalResult, score float64) (*models.RecommendationResult, error)
}

// Reporter aggregates all stage results into a final report
type Reporter interface {
	GenerateReport(ctx context.Context, state *models.PipelineState) (*models.ReportResult, error)
}

// Exporter persists the accumulated analysis results outside the process
// and returns the artifact location.
type Exporter interface {
	ExportReport(ctx context.Context, jobID string, state *models.PipelineState) (string, error)
}

// Providers bundles the stage providers injected into the orchestrator
type Providers struct {
	Ingestor        Ingestor
	SignalAnalyzer  SignalAnalyzer
	Transcriber     Transcriber
	TextAnalyzer    TextAnalyzer
	PolicyChecker   PolicyChecker
	TrendMiner      TrendMiner
	ChannelAnalyzer ChannelAnalyzer
	Recommender     Recommender
	Reporter        Reporter
	Exporter        Exporter
}
