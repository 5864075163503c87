package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"video-analyzer/core/models"
	"video-analyzer/core/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default execution policy, applied to every stage uniformly.
const (
	DefaultStageTimeout = 300 * time.Second
	DefaultMaxRetries   = 1 // additional attempts after the first
	DefaultBaseBackoff  = 1 * time.Second
)

// stageWeights drive progress accounting. Progress is reported as the
// completed share of the total weight, scaled to 0-100.
var stageWeights = map[models.PipelineStage]float64{
	models.StageIngestion:      10,
	models.StageSignalAnalysis: 10,
	models.StageTranscription:  15,
	models.StageNLPAnalysis:    15,
	models.StagePolicyCheck:    10,
	models.StageTrendMining:    10,
	models.StageScoring:        5,
	models.StageRecommendation: 10,
	models.StageFinalization:   10,
	models.StageReporting:      10,
}

// progressFor maps the weight of the completed stages onto a 0-100 scale.
func progressFor(completed []models.PipelineStage) float64 {
	var done, total float64
	for _, w := range stageWeights {
		total += w
	}
	for _, stage := range completed {
		done += stageWeights[stage]
	}
	return done / total * 100
}

// StageOrder is the canonical stage sequence of one run
var StageOrder = []models.PipelineStage{
	models.StageIngestion,
	models.StageSignalAnalysis,
	models.StageTranscription,
	models.StageNLPAnalysis,
	models.StagePolicyCheck,
	models.StageTrendMining,
	models.StageScoring,
	models.StageRecommendation,
	models.StageFinalization,
	models.StageReporting,
}

// ProgressCallback receives a snapshot of the run state after every stage
// transition. It must not block; it runs between stages.
type ProgressCallback func(state *models.PipelineState)

// Options tune the per-stage execution policy
type Options struct {
	StageTimeout time.Duration
	MaxRetries   int
	BaseBackoff  time.Duration
}

func (o *Options) setDefaults() {
	if o.StageTimeout <= 0 {
		o.StageTimeout = DefaultStageTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = DefaultBaseBackoff
	}
}

// Orchestrator drives one job through the ordered stage list, applying
// timeout and bounded retry per stage, weighted progress accounting, and the
// policy soft short-circuit.
type Orchestrator struct {
	providers Providers
	scorer    *scoring.Engine
	opts      Options
	log       *zap.SugaredLogger

	mu   sync.RWMutex
	jobs map[string]*models.PipelineState // published snapshots by job ID
}

// NewOrchestrator creates an orchestrator with the given stage providers
func NewOrchestrator(providers Providers, scorer *scoring.Engine, opts Options, log *zap.SugaredLogger) *Orchestrator {
	opts.setDefaults()
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		providers: providers,
		scorer:    scorer,
		opts:      opts,
		log:       log,
		jobs:      make(map[string]*models.PipelineState),
	}
}

// Job returns the latest published snapshot for a job
func (o *Orchestrator) Job(jobID string) (*models.PipelineState, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	state, ok := o.jobs[jobID]
	return state, ok
}

// Submit starts a pipeline run in the background and returns its job ID
// immediately. Progress is observable through Job and the callback.
func (o *Orchestrator) Submit(ctx context.Context, config models.PipelineConfig, callback ProgressCallback) string {
	jobID := uuid.New().String()

	pending := &models.PipelineState{
		JobID:     jobID,
		Status:    models.PipelineStatusPending,
		Results:   make(map[models.PipelineStage]*models.StageOutcome),
		StartTime: time.Now().UTC(),
	}
	o.publish(pending)

	go o.run(ctx, jobID, config, callback)
	return jobID
}

// Run executes the full pipeline for one video. It blocks until the run
// reaches a terminal status and returns the final state. The returned state
// is owned by the caller; concurrent observers should use Job or the
// progress callback, which only ever see snapshots.
func (o *Orchestrator) Run(ctx context.Context, config models.PipelineConfig, callback ProgressCallback) *models.PipelineState {
	return o.run(ctx, uuid.New().String(), config, callback)
}

func (o *Orchestrator) run(ctx context.Context, jobID string, config models.PipelineConfig, callback ProgressCallback) *models.PipelineState {
	state := &models.PipelineState{
		JobID:     jobID,
		Status:    models.PipelineStatusRunning,
		Results:   make(map[models.PipelineStage]*models.StageOutcome),
		StartTime: time.Now().UTC(),
	}
	o.publish(state)

	o.log.Infow("pipeline started", "job_id", jobID, "url", config.VideoURL)

	// Stage 1: ingestion. The only fatal stage.
	ok := o.runStage(ctx, state, models.StageIngestion, callback, func(ctx context.Context) (interface{}, error) {
		return o.providers.Ingestor.Ingest(ctx, config)
	})
	if !ok {
		o.fail(state, callback, fmt.Errorf("%w: %s", ErrIngestionFailed, state.Outcome(models.StageIngestion).Error))
		return state
	}

	ing, _ := state.StageData(models.StageIngestion).(*models.IngestionResult)
	if ing == nil {
		o.fail(state, callback, fmt.Errorf("%w: no ingestion result", ErrIngestionFailed))
		return state
	}
	videoID := ing.VideoID
	meta := ing.Metadata

	// Stage 2: signal analysis
	o.runStage(ctx, state, models.StageSignalAnalysis, callback, func(ctx context.Context) (interface{}, error) {
		return o.providers.SignalAnalyzer.AnalyzeSignals(ctx, videoID, meta)
	})

	// Stage 3: transcription
	o.runStage(ctx, state, models.StageTranscription, callback, func(ctx context.Context) (interface{}, error) {
		return o.providers.Transcriber.Transcribe(ctx, videoID, ing.LocalPath)
	})

	transcript, _ := state.StageData(models.StageTranscription).(*models.TranscriptResult)
	text := ""
	var segments []models.TranscriptSegment
	if transcript != nil {
		text = transcript.FullText
		segments = transcript.Segments
	}
	if text == "" && meta != nil {
		o.log.Warnw("no transcript available, using description", "job_id", jobID)
		text = meta.Description
	}

	// Stage 4: NLP analysis
	o.runStage(ctx, state, models.StageNLPAnalysis, callback, func(ctx context.Context) (interface{}, error) {
		return o.providers.TextAnalyzer.AnalyzeText(ctx, text, segments)
	})
	nlp, _ := state.StageData(models.StageNLPAnalysis).(*models.NLPResult)
	var keywords []string
	if nlp != nil {
		keywords = nlp.Keywords
	}

	// Stage 5: policy check
	o.runStage(ctx, state, models.StagePolicyCheck, callback, func(ctx context.Context) (interface{}, error) {
		return o.providers.PolicyChecker.CheckPolicy(ctx, text, keywords)
	})
	policy, _ := state.StageData(models.StagePolicyCheck).(*models.PolicyResult)
	highRisk := policy != nil && policy.RiskLevel == models.RiskHigh
	if highRisk {
		// Soft short-circuit: the run carries on so scoring and reporting
		// still produce a complete audit trail, but nothing downstream may
		// mark the job downloadable.
		o.log.Warnw("high policy risk detected", "job_id", jobID)
	}

	// Stage 6: trend mining
	o.runStage(ctx, state, models.StageTrendMining, callback, func(ctx context.Context) (interface{}, error) {
		return o.providers.TrendMiner.MineTrends(ctx, meta, keywords)
	})
	trend, _ := state.StageData(models.StageTrendMining).(*models.TrendResult)

	// Stage 7: scoring. Pure computation plus the channel-authority lookup;
	// the engine itself never fails.
	o.runStage(ctx, state, models.StageScoring, callback, func(ctx context.Context) (interface{}, error) {
		signals, _ := state.StageData(models.StageSignalAnalysis).(*models.SignalResult)

		var channel *models.ChannelResult
		if meta != nil && meta.ChannelID != "" {
			var err error
			channel, err = o.providers.ChannelAnalyzer.AnalyzeChannel(ctx, meta.ChannelID)
			if err != nil {
				o.log.Warnw("channel authority lookup failed", "job_id", jobID, "error", err)
				channel = nil
			}
		}

		duration := 0
		if meta != nil {
			duration = meta.DurationSeconds
		}
		return o.scorer.Calculate(scoring.Inputs{
			Content:         nlp,
			Engagement:      signals,
			Trend:           trend,
			Policy:          policy,
			Channel:         channel,
			DurationSeconds: duration,
		}), nil
	})

	finalScore := 0.0
	if score := state.FinalScore(); score != nil {
		finalScore = score.FinalScore
	}

	// Stage 8: recommendation
	o.runStage(ctx, state, models.StageRecommendation, callback, func(ctx context.Context) (interface{}, error) {
		signals, _ := state.StageData(models.StageSignalAnalysis).(*models.SignalResult)
		rec, err := o.providers.Recommender.Recommend(ctx, meta, signals, finalScore)
		if err != nil {
			return nil, err
		}
		if highRisk {
			rec.Download = false
			rec.Reason = "high policy risk detected"
		}
		return rec, nil
	})

	// Stage 9: finalization
	o.runStage(ctx, state, models.StageFinalization, callback, func(ctx context.Context) (interface{}, error) {
		return o.finalize(ctx, state, config, finalScore, highRisk)
	})

	// Stage 10: reporting
	o.runStage(ctx, state, models.StageReporting, callback, func(ctx context.Context) (interface{}, error) {
		return o.providers.Reporter.GenerateReport(ctx, state.Snapshot())
	})

	now := time.Now().UTC()
	state.Status = models.PipelineStatusCompleted
	state.Progress = 100
	state.CurrentStage = nil
	state.EndTime = &now
	o.publish(state)
	o.notify(callback, state)

	o.log.Infow("pipeline completed", "job_id", jobID, "score", finalScore,
		"duration", now.Sub(state.StartTime).Round(time.Millisecond))
	return state
}

// finalize decides whether the job is ready for automated processing and
// exports the accumulated results. Policy risk strictly overrides the
// score-based auto-trigger.
func (o *Orchestrator) finalize(ctx context.Context, state *models.PipelineState, config models.PipelineConfig, finalScore float64, highRisk bool) (*models.FinalizationResult, error) {
	result := &models.FinalizationResult{}

	if !config.SkipProcessing && !highRisk && finalScore >= 8.0 {
		result.AutoTriggered = true
		result.ProcessingMsg = fmt.Sprintf("high score %.1f - recommended for reup", finalScore)
		o.log.Infow("auto-triggering processing for high-score video", "job_id", state.JobID)
	}

	if !config.SkipExport && o.providers.Exporter != nil {
		uri, err := o.providers.Exporter.ExportReport(ctx, state.JobID, state.Snapshot())
		if err != nil {
			o.log.Errorw("export failed", "job_id", state.JobID, "error", err)
			result.ExportError = err.Error()
		} else {
			result.ExportOK = true
			result.ExportURI = uri
		}
	}

	return result, nil
}

// runStage executes one stage under the timeout/retry policy and records its
// outcome. Returns true if the stage eventually succeeded.
func (o *Orchestrator) runStage(ctx context.Context, state *models.PipelineState, stage models.PipelineStage, callback ProgressCallback, fn func(context.Context) (interface{}, error)) bool {
	if _, known := stageWeights[stage]; !known {
		// Programmer error; record and move on rather than panicking mid-run.
		o.log.Errorw("unknown stage", "stage", stage, "error", ErrNoSuchStage)
		return false
	}

	stageCopy := stage
	state.CurrentStage = &stageCopy
	o.log.Infow("starting stage", "job_id", state.JobID, "stage", stage)

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		data, err := o.attempt(ctx, fn)
		if err == nil {
			state.Results[stage] = &models.StageOutcome{
				Stage:    stage,
				Success:  true,
				Data:     data,
				Duration: time.Since(start),
			}
			state.CompletedStages = append(state.CompletedStages, stage)
			state.Progress = progressFor(state.CompletedStages)

			o.log.Infow("stage completed", "job_id", state.JobID, "stage", stage,
				"duration", time.Since(start).Round(time.Millisecond))
			o.publish(state)
			o.notify(callback, state)
			return true
		}

		lastErr = &StageError{Stage: stage, Err: err}
		o.log.Warnw("stage attempt failed", "job_id", state.JobID, "stage", stage,
			"attempt", attempt+1, "error", err)

		if attempt < o.opts.MaxRetries {
			backoff := o.opts.BaseBackoff << uint(attempt)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				lastErr = &StageError{Stage: stage, Err: ctx.Err()}
				attempt = o.opts.MaxRetries // no further attempts
			}
		}
	}

	state.Results[stage] = &models.StageOutcome{
		Stage:    stage,
		Success:  false,
		Duration: time.Since(start),
		Error:    lastErr.Error(),
	}
	o.log.Errorw("stage failed after retries", "job_id", state.JobID, "stage", stage,
		"attempts", o.opts.MaxRetries+1, "error", lastErr)
	o.publish(state)
	o.notify(callback, state)
	return false
}

// attempt runs one stage invocation under the stage timeout. The provider
// call runs in its own goroutine so a provider that ignores its context
// cannot stall the pipeline past the deadline.
func (o *Orchestrator) attempt(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	type result struct {
		data interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := fn(attemptCtx)
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrStageTimeout
	}
}

func (o *Orchestrator) fail(state *models.PipelineState, callback ProgressCallback, err error) {
	now := time.Now().UTC()
	state.Status = models.PipelineStatusFailed
	state.Error = err.Error()
	state.CurrentStage = nil
	state.EndTime = &now
	o.publish(state)
	o.notify(callback, state)
	o.log.Errorw("pipeline failed", "job_id", state.JobID, "error", err)
}

// publish stores a snapshot for concurrent status readers
func (o *Orchestrator) publish(state *models.PipelineState) {
	snap := state.Snapshot()
	o.mu.Lock()
	o.jobs[state.JobID] = snap
	o.mu.Unlock()
}

// notify invokes the progress callback with a snapshot. Callback panics are
// swallowed and logged, never propagated into the run.
func (o *Orchestrator) notify(callback ProgressCallback, state *models.PipelineState) {
	if callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.log.Warnw("progress callback panicked", "job_id", state.JobID, "panic", r)
		}
	}()
	callback(state.Snapshot())
}
