package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-analyzer/core/models"
	"video-analyzer/core/scoring"
)

// Function-backed fakes for the stage provider interfaces.

type fakeIngestor struct {
	fn func(ctx context.Context, cfg models.PipelineConfig) (*models.IngestionResult, error)
}

func (f *fakeIngestor) Ingest(ctx context.Context, cfg models.PipelineConfig) (*models.IngestionResult, error) {
	return f.fn(ctx, cfg)
}

type fakeSignals struct {
	fn func(ctx context.Context, videoID string, meta *models.VideoMetadata) (*models.SignalResult, error)
}

func (f *fakeSignals) AnalyzeSignals(ctx context.Context, videoID string, meta *models.VideoMetadata) (*models.SignalResult, error) {
	return f.fn(ctx, videoID, meta)
}

type fakeTranscriber struct {
	fn func(ctx context.Context, videoID, localPath string) (*models.TranscriptResult, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, videoID, localPath string) (*models.TranscriptResult, error) {
	return f.fn(ctx, videoID, localPath)
}

type fakeTextAnalyzer struct {
	fn func(ctx context.Context, text string, segments []models.TranscriptSegment) (*models.NLPResult, error)
}

func (f *fakeTextAnalyzer) AnalyzeText(ctx context.Context, text string, segments []models.TranscriptSegment) (*models.NLPResult, error) {
	return f.fn(ctx, text, segments)
}

type fakePolicy struct {
	fn func(ctx context.Context, text string, keywords []string) (*models.PolicyResult, error)
}

func (f *fakePolicy) CheckPolicy(ctx context.Context, text string, keywords []string) (*models.PolicyResult, error) {
	return f.fn(ctx, text, keywords)
}

type fakeTrends struct {
	fn func(ctx context.Context, meta *models.VideoMetadata, keywords []string) (*models.TrendResult, error)
}

func (f *fakeTrends) MineTrends(ctx context.Context, meta *models.VideoMetadata, keywords []string) (*models.TrendResult, error) {
	return f.fn(ctx, meta, keywords)
}

type fakeChannel struct {
	fn func(ctx context.Context, channelID string) (*models.ChannelResult, error)
}

func (f *fakeChannel) AnalyzeChannel(ctx context.Context, channelID string) (*models.ChannelResult, error) {
	return f.fn(ctx, channelID)
}

type fakeRecommender struct {
	fn func(ctx context.Context, meta *models.VideoMetadata, signals *models.SignalResult, score float64) (*models.RecommendationResult, error)
}

func (f *fakeRecommender) Recommend(ctx context.Context, meta *models.VideoMetadata, signals *models.SignalResult, score float64) (*models.RecommendationResult, error) {
	return f.fn(ctx, meta, signals, score)
}

type fakeReporter struct {
	fn func(ctx context.Context, state *models.PipelineState) (*models.ReportResult, error)
}

func (f *fakeReporter) GenerateReport(ctx context.Context, state *models.PipelineState) (*models.ReportResult, error) {
	return f.fn(ctx, state)
}

type fakeExporter struct {
	fn func(ctx context.Context, jobID string, state *models.PipelineState) (string, error)
}

func (f *fakeExporter) ExportReport(ctx context.Context, jobID string, state *models.PipelineState) (string, error) {
	return f.fn(ctx, jobID, state)
}

// happyProviders returns a provider set where every stage succeeds
func happyProviders() Providers {
	meta := &models.VideoMetadata{
		VideoID:         "vid123",
		Title:           "Test Video",
		ChannelID:       "chan123",
		DurationSeconds: 120,
	}
	return Providers{
		Ingestor: &fakeIngestor{fn: func(_ context.Context, _ models.PipelineConfig) (*models.IngestionResult, error) {
			return &models.IngestionResult{VideoID: "vid123", InputType: models.InputTypeVideo, Metadata: meta}, nil
		}},
		SignalAnalyzer: &fakeSignals{fn: func(_ context.Context, videoID string, _ *models.VideoMetadata) (*models.SignalResult, error) {
			return &models.SignalResult{VideoID: videoID, EngagementScore: 7.0}, nil
		}},
		Transcriber: &fakeTranscriber{fn: func(_ context.Context, videoID, _ string) (*models.TranscriptResult, error) {
			return &models.TranscriptResult{VideoID: videoID, FullText: "great tutorial about testing"}, nil
		}},
		TextAnalyzer: &fakeTextAnalyzer{fn: func(_ context.Context, _ string, _ []models.TranscriptSegment) (*models.NLPResult, error) {
			return &models.NLPResult{Sentiment: "positive", Keywords: []string{"tutorial", "testing"}}, nil
		}},
		PolicyChecker: &fakePolicy{fn: func(_ context.Context, _ string, _ []string) (*models.PolicyResult, error) {
			return &models.PolicyResult{PolicySafe: true, RiskLevel: models.RiskLow}, nil
		}},
		TrendMiner: &fakeTrends{fn: func(_ context.Context, _ *models.VideoMetadata, _ []string) (*models.TrendResult, error) {
			return &models.TrendResult{TrendInsights: []string{"insight"}}, nil
		}},
		ChannelAnalyzer: &fakeChannel{fn: func(_ context.Context, _ string) (*models.ChannelResult, error) {
			return &models.ChannelResult{ChannelScore: 6.0}, nil
		}},
		Recommender: &fakeRecommender{fn: func(_ context.Context, _ *models.VideoMetadata, _ *models.SignalResult, score float64) (*models.RecommendationResult, error) {
			return &models.RecommendationResult{Download: score >= 6.0}, nil
		}},
		Reporter: &fakeReporter{fn: func(_ context.Context, state *models.PipelineState) (*models.ReportResult, error) {
			return &models.ReportResult{VideoID: "vid123"}, nil
		}},
		Exporter: &fakeExporter{fn: func(_ context.Context, jobID string, _ *models.PipelineState) (string, error) {
			return "exports/" + jobID + ".json", nil
		}},
	}
}

func fastOptions() Options {
	return Options{
		StageTimeout: 2 * time.Second,
		MaxRetries:   1,
		BaseBackoff:  time.Millisecond,
	}
}

func TestRun_AllStagesInOrder(t *testing.T) {
	orc := NewOrchestrator(happyProviders(), scoring.NewEngine(), fastOptions(), nil)

	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "https://youtu.be/vid123"}, nil)

	require.Equal(t, models.PipelineStatusCompleted, state.Status)
	assert.Equal(t, 100.0, state.Progress)
	assert.Equal(t, StageOrder, state.CompletedStages)
	assert.Nil(t, state.CurrentStage)
	require.NotNil(t, state.EndTime)

	for _, stage := range StageOrder {
		out := state.Outcome(stage)
		require.NotNil(t, out, "stage %s has no outcome", stage)
		assert.True(t, out.Success, "stage %s failed: %s", stage, out.Error)
	}
	require.NotNil(t, state.FinalScore())
}

func TestRun_ProgressMonotonic(t *testing.T) {
	orc := NewOrchestrator(happyProviders(), scoring.NewEngine(), fastOptions(), nil)

	var progress []float64
	orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, func(state *models.PipelineState) {
		progress = append(progress, state.Progress)
	})

	require.NotEmpty(t, progress)
	for i, p := range progress {
		assert.GreaterOrEqual(t, p, 0.0, "progress below range at step %d", i)
		assert.LessOrEqual(t, p, 100.0, "progress above range at step %d", i)
	}
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress went backwards at step %d", i)
	}
	assert.Equal(t, 100.0, progress[len(progress)-1])
}

func TestProgressFor_NormalizesToFullScale(t *testing.T) {
	assert.Equal(t, 0.0, progressFor(nil))
	assert.InDelta(t, 100.0, progressFor(StageOrder), 1e-9)

	partial := progressFor(StageOrder[:5])
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 100.0)
}

func TestRun_IngestionFailureIsFatal(t *testing.T) {
	providers := happyProviders()
	providers.Ingestor = &fakeIngestor{fn: func(_ context.Context, _ models.PipelineConfig) (*models.IngestionResult, error) {
		return nil, errors.New("video not found or private")
	}}

	var signalCalls atomic.Int32
	base := providers.SignalAnalyzer
	providers.SignalAnalyzer = &fakeSignals{fn: func(ctx context.Context, videoID string, meta *models.VideoMetadata) (*models.SignalResult, error) {
		signalCalls.Add(1)
		return base.AnalyzeSignals(ctx, videoID, meta)
	}}

	orc := NewOrchestrator(providers, scoring.NewEngine(), fastOptions(), nil)
	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, nil)

	assert.Equal(t, models.PipelineStatusFailed, state.Status)
	assert.Contains(t, state.Error, ErrIngestionFailed.Error())
	assert.Equal(t, int32(0), signalCalls.Load(), "later stages must not run after fatal ingestion")
	assert.Empty(t, state.CompletedStages)
}

func TestRun_NonFatalStageFailureContinues(t *testing.T) {
	providers := happyProviders()
	providers.TrendMiner = &fakeTrends{fn: func(_ context.Context, _ *models.VideoMetadata, _ []string) (*models.TrendResult, error) {
		return nil, errors.New("quota exceeded")
	}}

	orc := NewOrchestrator(providers, scoring.NewEngine(), fastOptions(), nil)
	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, nil)

	assert.Equal(t, models.PipelineStatusCompleted, state.Status)
	assert.Equal(t, 100.0, state.Progress)

	trendOut := state.Outcome(models.StageTrendMining)
	require.NotNil(t, trendOut)
	assert.False(t, trendOut.Success)
	assert.NotContains(t, state.CompletedStages, models.StageTrendMining)

	// Scoring still ran with the trend factor at neutral
	require.NotNil(t, state.FinalScore())
}

func TestRun_RetriesOnceThenSucceeds(t *testing.T) {
	providers := happyProviders()
	var calls atomic.Int32
	providers.Transcriber = &fakeTranscriber{fn: func(_ context.Context, videoID, _ string) (*models.TranscriptResult, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return &models.TranscriptResult{VideoID: videoID, FullText: "text"}, nil
	}}

	orc := NewOrchestrator(providers, scoring.NewEngine(), fastOptions(), nil)
	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, nil)

	assert.Equal(t, int32(2), calls.Load())
	out := state.Outcome(models.StageTranscription)
	require.NotNil(t, out)
	assert.True(t, out.Success)
}

func TestRun_StageTimeoutExhaustsRetries(t *testing.T) {
	providers := happyProviders()
	var calls atomic.Int32
	providers.TrendMiner = &fakeTrends{fn: func(ctx context.Context, _ *models.VideoMetadata, _ []string) (*models.TrendResult, error) {
		calls.Add(1)
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	opts := fastOptions()
	opts.StageTimeout = 50 * time.Millisecond

	orc := NewOrchestrator(providers, scoring.NewEngine(), opts, nil)
	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, nil)

	// one initial attempt plus one retry
	assert.Equal(t, int32(2), calls.Load())

	out := state.Outcome(models.StageTrendMining)
	require.NotNil(t, out)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, ErrStageTimeout.Error())
	assert.Equal(t, models.PipelineStatusCompleted, state.Status)
}

func TestRun_HighPolicyRiskForcesNonDownloadable(t *testing.T) {
	providers := happyProviders()
	providers.PolicyChecker = &fakePolicy{fn: func(_ context.Context, _ string, _ []string) (*models.PolicyResult, error) {
		return &models.PolicyResult{PolicySafe: false, RiskLevel: models.RiskHigh}, nil
	}}
	// Inflate every other factor so the raw score would otherwise auto-trigger
	providers.SignalAnalyzer = &fakeSignals{fn: func(_ context.Context, videoID string, _ *models.VideoMetadata) (*models.SignalResult, error) {
		return &models.SignalResult{VideoID: videoID, EngagementScore: 10.0}, nil
	}}
	providers.ChannelAnalyzer = &fakeChannel{fn: func(_ context.Context, _ string) (*models.ChannelResult, error) {
		return &models.ChannelResult{ChannelScore: 10.0}, nil
	}}

	orc := NewOrchestrator(providers, scoring.NewEngine(), fastOptions(), nil)
	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, nil)

	// The run completes; scoring and reporting still produce output
	assert.Equal(t, models.PipelineStatusCompleted, state.Status)
	require.NotNil(t, state.FinalScore())
	require.NotNil(t, state.StageData(models.StageReporting))

	rec, ok := state.StageData(models.StageRecommendation).(*models.RecommendationResult)
	require.True(t, ok)
	assert.False(t, rec.Download)
	assert.Contains(t, rec.Reason, "high policy risk")

	fin, ok := state.StageData(models.StageFinalization).(*models.FinalizationResult)
	require.True(t, ok)
	assert.False(t, fin.AutoTriggered)
}

func TestRun_AutoTriggerOnHighScore(t *testing.T) {
	providers := happyProviders()
	providers.SignalAnalyzer = &fakeSignals{fn: func(_ context.Context, videoID string, _ *models.VideoMetadata) (*models.SignalResult, error) {
		return &models.SignalResult{VideoID: videoID, EngagementScore: 10.0}, nil
	}}
	providers.ChannelAnalyzer = &fakeChannel{fn: func(_ context.Context, _ string) (*models.ChannelResult, error) {
		return &models.ChannelResult{ChannelScore: 10.0}, nil
	}}
	providers.TrendMiner = &fakeTrends{fn: func(_ context.Context, _ *models.VideoMetadata, _ []string) (*models.TrendResult, error) {
		return &models.TrendResult{TrendInsights: []string{"a", "b", "c", "d"}}, nil
	}}
	providers.TextAnalyzer = &fakeTextAnalyzer{fn: func(_ context.Context, _ string, _ []models.TranscriptSegment) (*models.NLPResult, error) {
		return &models.NLPResult{
			Sentiment: "positive",
			Keywords:  make([]string, 20),
			Topics:    []models.Topic{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Summary:   strings.Repeat("insightful summary sentence. ", 5),
		}, nil
	}}

	orc := NewOrchestrator(providers, scoring.NewEngine(), fastOptions(), nil)
	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, nil)

	score := state.FinalScore()
	require.NotNil(t, score)
	require.GreaterOrEqual(t, score.FinalScore, 8.0)

	fin, ok := state.StageData(models.StageFinalization).(*models.FinalizationResult)
	require.True(t, ok)
	assert.True(t, fin.AutoTriggered)
	assert.True(t, fin.ExportOK)
	assert.NotEmpty(t, fin.ExportURI)
}

func TestRun_CallbackPanicDoesNotAbortRun(t *testing.T) {
	orc := NewOrchestrator(happyProviders(), scoring.NewEngine(), fastOptions(), nil)

	state := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, func(_ *models.PipelineState) {
		panic("observer bug")
	})

	assert.Equal(t, models.PipelineStatusCompleted, state.Status)
}

func TestRun_CallbackReceivesSnapshots(t *testing.T) {
	orc := NewOrchestrator(happyProviders(), scoring.NewEngine(), fastOptions(), nil)

	var snapshots []*models.PipelineState
	final := orc.Run(context.Background(), models.PipelineConfig{VideoURL: "u"}, func(state *models.PipelineState) {
		// Mutating a snapshot must not affect the live run
		state.Progress = -1
		state.Status = models.PipelineStatusCancelled
		snapshots = append(snapshots, state)
	})

	require.NotEmpty(t, snapshots)
	assert.Equal(t, models.PipelineStatusCompleted, final.Status)
	assert.Equal(t, 100.0, final.Progress)
}

func TestSubmit_ReturnsImmediatelyAndCompletes(t *testing.T) {
	orc := NewOrchestrator(happyProviders(), scoring.NewEngine(), fastOptions(), nil)

	done := make(chan struct{})
	jobID := orc.Submit(context.Background(), models.PipelineConfig{VideoURL: "u"}, func(state *models.PipelineState) {
		if state.Status == models.PipelineStatusCompleted {
			close(done)
		}
	})
	require.NotEmpty(t, jobID)

	// The pending snapshot is visible right away
	state, ok := orc.Job(jobID)
	require.True(t, ok)
	assert.NotEmpty(t, state.JobID)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("submitted run did not complete")
	}

	final, ok := orc.Job(jobID)
	require.True(t, ok)
	assert.Equal(t, models.PipelineStatusCompleted, final.Status)
}
