package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

// DefaultMaxDuration caps analyzable video length at 60 minutes
const DefaultMaxDuration = 3600

var channelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/@([^/?#]+)`),
	regexp.MustCompile(`youtube\.com/channel/([^/?#]+)`),
	regexp.MustCompile(`youtube\.com/c/([^/?#]+)`),
	regexp.MustCompile(`youtube\.com/user/([^/?#]+)`),
}

// Ingestor validates source URLs and fetches video metadata
type Ingestor struct {
	client *Client
	log    *zap.SugaredLogger

	mu    sync.Mutex
	cache map[string]*VideoInfo
}

func NewIngestor(client *Client, log *zap.SugaredLogger) *Ingestor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Ingestor{
		client: client,
		log:    log,
		cache:  make(map[string]*VideoInfo),
	}
}

// DetectInputType classifies a URL and extracts its video, playlist, or
// channel identifier.
func DetectInputType(rawURL string) (models.InputType, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.InputTypeUnknown, ""
	}
	query := parsed.Query()

	if strings.Contains(parsed.Path, "watch") {
		if id := query.Get("v"); id != "" {
			return models.InputTypeVideo, id
		}
	}

	if parsed.Host == "youtu.be" {
		if id := strings.Trim(parsed.Path, "/"); id != "" {
			return models.InputTypeVideo, id
		}
	}

	if strings.Contains(parsed.Path, "/shorts/") {
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) >= 2 && parts[len(parts)-1] != "" {
			return models.InputTypeVideo, parts[len(parts)-1]
		}
	}

	if strings.Contains(parsed.Path, "playlist") || query.Get("list") != "" {
		if id := query.Get("list"); id != "" {
			return models.InputTypePlaylist, id
		}
	}

	for _, re := range channelPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return models.InputTypeChannel, m[1]
		}
	}

	return models.InputTypeUnknown, ""
}

// Ingest resolves the source URL, validates the video, and returns its
// metadata. Non-downloadable videos fail ingestion.
func (i *Ingestor) Ingest(ctx context.Context, cfg models.PipelineConfig) (*models.IngestionResult, error) {
	inputType, id := DetectInputType(cfg.VideoURL)
	if inputType == models.InputTypeUnknown {
		return nil, fmt.Errorf("unrecognized youtube url: %s", cfg.VideoURL)
	}
	if inputType != models.InputTypeVideo {
		return nil, fmt.Errorf("%s urls are not supported for single-video analysis", inputType)
	}

	maxDuration := cfg.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}

	meta, ageRestricted, err := i.fetchMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	validation := models.ValidationResult{
		IsAvailable:     meta != nil,
		IsAgeRestricted: ageRestricted,
	}
	if meta == nil {
		validation.ErrorMessage = "video not found or private"
		return nil, fmt.Errorf("video %s: %s", id, validation.ErrorMessage)
	}

	validation.DurationValid = meta.DurationSeconds <= maxDuration
	validation.CanDownload = validation.IsAvailable && !validation.IsAgeRestricted && validation.DurationValid

	if !validation.CanDownload {
		validation.ErrorMessage = validationError(validation, meta.DurationSeconds)
		return nil, fmt.Errorf("video %s cannot be analyzed: %s", id, validation.ErrorMessage)
	}

	i.log.Infow("video ingested", "video_id", id, "title", meta.Title, "duration_s", meta.DurationSeconds)

	return &models.IngestionResult{
		VideoID:    id,
		InputType:  inputType,
		Validation: validation,
		Metadata:   meta,
	}, nil
}

func (i *Ingestor) fetchMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, bool, error) {
	i.mu.Lock()
	cached, ok := i.cache[videoID]
	i.mu.Unlock()
	if ok {
		return &cached.Metadata, cached.AgeRestricted, nil
	}

	info, err := i.client.Video(ctx, videoID)
	if err != nil {
		return nil, false, err
	}
	if info == nil {
		return nil, false, nil
	}

	i.mu.Lock()
	i.cache[videoID] = info
	i.mu.Unlock()

	return &info.Metadata, info.AgeRestricted, nil
}

func validationError(v models.ValidationResult, durationSeconds int) string {
	switch {
	case !v.IsAvailable:
		return "video is not publicly available"
	case v.IsAgeRestricted:
		return "video is age restricted"
	case !v.DurationValid:
		return fmt.Sprintf("video is too long (%d seconds)", durationSeconds)
	default:
		return "video cannot be downloaded"
	}
}
