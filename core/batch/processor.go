package batch

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"video-analyzer/core/models"
	"video-analyzer/core/pipeline"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for batch execution
const (
	DefaultMaxConcurrent       = 3   // phase-1 worker pool size
	DefaultMinScoreForDownload = 6.0 // phase-2 filter threshold
)

// ErrBatchNotFound is returned for unknown batch IDs
var ErrBatchNotFound = errors.New("batch not found")

// ItemError wraps a per-item failure during either phase
type ItemError struct {
	VideoID string
	Err     error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("batch item %s: %v", e.VideoID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// AnalysisRunner runs one video through the full analysis pipeline.
// *pipeline.Orchestrator satisfies it.
type AnalysisRunner interface {
	Run(ctx context.Context, config models.PipelineConfig, callback pipeline.ProgressCallback) *models.PipelineState
}

// Downloader fetches a video to local storage for phase-2 processing
type Downloader interface {
	Download(ctx context.Context, videoID, outputDir string) (string, error)
}

// VideoProcessor transforms a downloaded video for the target platform
type VideoProcessor interface {
	Process(ctx context.Context, localPath, outputDir, targetPlatform string) (string, error)
}

// ProgressCallback receives a snapshot of the batch after every item
// transition and once when the batch reaches a terminal status.
type ProgressCallback func(job *models.BatchJob)

// Options tune batch execution
type Options struct {
	MaxConcurrent int
	MinScore      float64
	OutputDir     string // base directory/prefix for phase-2 artifacts
}

func (o *Options) setDefaults() {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScoreForDownload
	}
}

// batchEntry pairs a BatchJob with its synchronization state. The mutex
// guards counter and status updates; the cancel flag is checked
// cooperatively before dispatching new work.
type batchEntry struct {
	mu        sync.Mutex
	job       *models.BatchJob
	cancelled atomic.Bool
}

// Processor fans batches of videos through the analysis pipeline with
// bounded parallelism, then forwards qualifying items into a strictly
// sequential processing phase.
type Processor struct {
	runner     AnalysisRunner
	downloader Downloader
	video      VideoProcessor
	opts       Options
	log        *zap.SugaredLogger

	mu      sync.RWMutex
	batches map[string]*batchEntry
}

// NewProcessor creates a batch processor
func NewProcessor(runner AnalysisRunner, downloader Downloader, video VideoProcessor, opts Options, log *zap.SugaredLogger) *Processor {
	opts.setDefaults()
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Processor{
		runner:     runner,
		downloader: downloader,
		video:      video,
		opts:       opts,
		log:        log,
		batches:    make(map[string]*batchEntry),
	}
}

// CreateBatch allocates a new batch job in pending status. No work starts
// until StartBatch is called.
func (p *Processor) CreateBatch(videoIDs []string, config models.BatchConfig) *models.BatchJob {
	batchID := uuid.New().String()[:8]

	videos := make([]*models.BatchVideoItem, len(videoIDs))
	for i, id := range videoIDs {
		videos[i] = &models.BatchVideoItem{
			VideoID: id,
			Status:  models.VideoStatusQueued,
		}
	}

	entry := &batchEntry{
		job: &models.BatchJob{
			BatchID:    batchID,
			Status:     models.BatchStatusPending,
			Videos:     videos,
			Config:     config,
			TotalCount: len(videos),
			CreatedAt:  time.Now().UTC(),
		},
	}

	p.mu.Lock()
	p.batches[batchID] = entry
	p.mu.Unlock()

	p.log.Infow("batch created", "batch_id", batchID, "videos", len(videos))
	return p.snapshot(entry)
}

// StartBatch transitions the batch to running and launches the two-phase
// execution in the background. Returns immediately.
func (p *Processor) StartBatch(ctx context.Context, batchID string, callback ProgressCallback) error {
	entry, ok := p.entry(batchID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}

	entry.mu.Lock()
	if entry.job.Status != models.BatchStatusPending {
		entry.mu.Unlock()
		return fmt.Errorf("batch %s already started (status %s)", batchID, entry.job.Status)
	}
	now := time.Now().UTC()
	entry.job.Status = models.BatchStatusRunning
	entry.job.StartedAt = &now
	entry.mu.Unlock()

	go p.processBatch(ctx, entry, callback)
	return nil
}

// Cancel requests cooperative cancellation. Only effective while the batch
// is running; in-flight item work is allowed to finish.
func (p *Processor) Cancel(batchID string) bool {
	entry, ok := p.entry(batchID)
	if !ok {
		return false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.job.Status != models.BatchStatusRunning {
		return false
	}
	entry.cancelled.Store(true)
	entry.job.Status = models.BatchStatusCancelled
	p.log.Infow("batch cancelled", "batch_id", batchID)
	return true
}

// Job returns a snapshot of a batch job
func (p *Processor) Job(batchID string) (*models.BatchJob, bool) {
	entry, ok := p.entry(batchID)
	if !ok {
		return nil, false
	}
	return p.snapshot(entry), true
}

// Recommendation pairs a qualifying item with its scoring explanation
type Recommendation struct {
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Recommendations returns items meeting the download threshold, sorted by
// score descending.
func (p *Processor) Recommendations(batchID string) ([]Recommendation, error) {
	entry, ok := p.entry(batchID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}

	job := p.snapshot(entry)
	minScore := p.minScore(job.Config)

	var recs []Recommendation
	for _, v := range job.Videos {
		if v.Score < minScore {
			continue
		}
		explanation := ""
		if v.Analysis != nil {
			if score := v.Analysis.FinalScore(); score != nil {
				explanation = score.Explanation
			}
		}
		recs = append(recs, Recommendation{
			VideoID:     v.VideoID,
			Title:       v.Title,
			Score:       v.Score,
			Explanation: explanation,
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs, nil
}

// processBatch runs phase 1 (bounded concurrent analysis) and phase 2
// (sequential download and processing) for one batch.
func (p *Processor) processBatch(ctx context.Context, entry *batchEntry, callback ProgressCallback) {
	batchID := entry.job.BatchID

	defer func() {
		// Item failures are expected and recorded per item; only a defect in
		// the batch control logic itself fails the whole batch.
		if r := recover(); r != nil {
			p.log.Errorw("batch control logic panicked", "batch_id", batchID, "panic", r)
			p.finish(entry, callback, models.BatchStatusFailed)
		}
	}()

	p.analyzePhase(ctx, entry, callback)

	recommended := p.recommendedItems(entry)
	p.log.Infow("batch analysis complete", "batch_id", batchID,
		"recommended", len(recommended), "total", entry.job.TotalCount)

	autoProcess := entry.job.Config.AutoProcess
	if autoProcess && !entry.cancelled.Load() {
		p.processPhase(ctx, entry, recommended, callback)
	}

	p.finish(entry, callback, models.BatchStatusCompleted)
}

// analyzePhase fans all items through the pipeline, at most
// opts.MaxConcurrent at a time. Per-item outcomes never block each other.
func (p *Processor) analyzePhase(ctx context.Context, entry *batchEntry, callback ProgressCallback) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrent)

	for _, item := range entry.job.Videos {
		if entry.cancelled.Load() {
			break
		}
		item := item
		g.Go(func() error {
			p.analyzeOne(gctx, entry, item, callback)
			return nil
		})
	}
	_ = g.Wait()
}

// analyzeOne runs the full pipeline for a single item. The item is owned by
// this worker for the duration of the call.
func (p *Processor) analyzeOne(ctx context.Context, entry *batchEntry, item *models.BatchVideoItem, callback ProgressCallback) {
	p.setItemStatus(entry, item, models.VideoStatusAnalyzing, callback)

	config := models.PipelineConfig{
		VideoURL:       "https://www.youtube.com/watch?v=" + item.VideoID,
		MinScore:       0, // analyze everything, filter later
		SkipProcessing: true,
		SkipExport:     true,
		TargetPlatform: entry.job.Config.TargetPlatform,
	}

	result := p.runner.Run(ctx, config, nil)

	entry.mu.Lock()
	item.Analysis = result
	if result.Status == models.PipelineStatusCompleted {
		item.Status = models.VideoStatusAnalyzed
		if score := result.FinalScore(); score != nil {
			item.Score = score.FinalScore
		}
		if ing, ok := result.StageData(models.StageIngestion).(*models.IngestionResult); ok && ing.Metadata != nil {
			item.Title = ing.Metadata.Title
		}
	} else {
		item.Status = models.VideoStatusFailed
		item.Error = (&ItemError{VideoID: item.VideoID, Err: errors.New(result.Error)}).Error()
		entry.job.FailedCount++
	}
	entry.job.AnalyzedCount++
	entry.mu.Unlock()

	p.notify(callback, entry)
}

// processPhase downloads and processes recommended items one at a time.
// Intentionally sequential: this phase does heavy work against shared
// output storage.
func (p *Processor) processPhase(ctx context.Context, entry *batchEntry, items []*models.BatchVideoItem, callback ProgressCallback) {
	outputDir := path.Join(p.opts.OutputDir, "batch_"+entry.job.BatchID)

	entry.mu.Lock()
	entry.job.OutputFolder = outputDir
	entry.mu.Unlock()

	for _, item := range items {
		if entry.cancelled.Load() {
			return
		}

		p.setItemStatus(entry, item, models.VideoStatusDownloading, callback)
		localPath, err := p.downloader.Download(ctx, item.VideoID, outputDir)
		if err != nil {
			p.failItem(entry, item, &ItemError{VideoID: item.VideoID, Err: err}, callback)
			continue
		}

		p.setItemStatus(entry, item, models.VideoStatusProcessing, callback)
		processedPath, err := p.video.Process(ctx, localPath, outputDir, entry.job.Config.TargetPlatform)
		if err != nil {
			p.failItem(entry, item, &ItemError{VideoID: item.VideoID, Err: err}, callback)
			continue
		}

		entry.mu.Lock()
		item.Status = models.VideoStatusCompleted
		item.ProcessedPath = processedPath
		entry.job.ProcessedCount++
		entry.mu.Unlock()
		p.notify(callback, entry)
	}
}

func (p *Processor) recommendedItems(entry *batchEntry) []*models.BatchVideoItem {
	minScore := p.minScore(entry.job.Config)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	var items []*models.BatchVideoItem
	for _, v := range entry.job.Videos {
		if v.Status == models.VideoStatusAnalyzed && v.Score >= minScore {
			items = append(items, v)
		}
	}
	return items
}

func (p *Processor) minScore(config models.BatchConfig) float64 {
	if config.MinScore > 0 {
		return config.MinScore
	}
	return p.opts.MinScore
}

func (p *Processor) setItemStatus(entry *batchEntry, item *models.BatchVideoItem, status models.VideoStatus, callback ProgressCallback) {
	entry.mu.Lock()
	item.Status = status
	entry.mu.Unlock()
	p.notify(callback, entry)
}

func (p *Processor) failItem(entry *batchEntry, item *models.BatchVideoItem, err error, callback ProgressCallback) {
	p.log.Warnw("batch item failed", "batch_id", entry.job.BatchID, "video_id", item.VideoID, "error", err)
	entry.mu.Lock()
	item.Status = models.VideoStatusFailed
	item.Error = err.Error()
	entry.job.FailedCount++
	entry.mu.Unlock()
	p.notify(callback, entry)
}

// finish stamps the terminal status unless the batch was cancelled, in which
// case the cancelled status sticks.
func (p *Processor) finish(entry *batchEntry, callback ProgressCallback, status models.BatchStatus) {
	now := time.Now().UTC()
	entry.mu.Lock()
	if entry.job.Status == models.BatchStatusRunning {
		entry.job.Status = status
	}
	entry.job.CompletedAt = &now
	entry.mu.Unlock()
	p.notify(callback, entry)
}

func (p *Processor) entry(batchID string) (*batchEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.batches[batchID]
	return entry, ok
}

// snapshot copies the job for observers while workers keep mutating it
func (p *Processor) snapshot(entry *batchEntry) *models.BatchJob {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	job := *entry.job
	job.Videos = make([]*models.BatchVideoItem, len(entry.job.Videos))
	for i, v := range entry.job.Videos {
		item := *v
		job.Videos[i] = &item
	}
	if entry.job.StartedAt != nil {
		t := *entry.job.StartedAt
		job.StartedAt = &t
	}
	if entry.job.CompletedAt != nil {
		t := *entry.job.CompletedAt
		job.CompletedAt = &t
	}
	return &job
}

// notify hands a snapshot to the progress callback, swallowing panics
func (p *Processor) notify(callback ProgressCallback, entry *batchEntry) {
	if callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Warnw("batch progress callback panicked", "batch_id", entry.job.BatchID, "panic", r)
		}
	}()
	callback(p.snapshot(entry))
}
