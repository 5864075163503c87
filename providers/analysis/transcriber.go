package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

const timedtextBase = "https://www.youtube.com/api/timedtext"

// fallback order for caption languages
var captionLanguages = []string{"en", "en-US"}

// Transcriber fetches captions from YouTube's timedtext endpoint
type Transcriber struct {
	http    *http.Client
	baseURL string
	log     *zap.SugaredLogger
}

func NewTranscriber(log *zap.SugaredLogger) *Transcriber {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Transcriber{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: timedtextBase,
		log:     log,
	}
}

type timedtextResponse struct {
	Events []struct {
		TStartMs    int64 `json:"tStartMs"`
		DDurationMs int64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// Transcribe fetches captions for a video, trying languages in fallback
// order. A video with no captions returns an empty transcript rather than
// an error so later stages can fall back to the description.
func (t *Transcriber) Transcribe(ctx context.Context, videoID, localPath string) (*models.TranscriptResult, error) {
	var lastErr error
	for _, lang := range captionLanguages {
		segments, err := t.fetchCaptions(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			continue
		}
		if len(segments) == 0 {
			continue
		}

		texts := make([]string, 0, len(segments))
		var end float64
		for _, s := range segments {
			texts = append(texts, s.Text)
			if s.End > end {
				end = s.End
			}
		}

		t.log.Infow("transcript fetched", "video_id", videoID, "lang", lang, "segments", len(segments))

		return &models.TranscriptResult{
			VideoID:         videoID,
			Language:        lang,
			FullText:        strings.Join(texts, " "),
			Segments:        segments,
			DurationSeconds: end,
			Provider:        "timedtext",
			Confidence:      0.95,
		}, nil
	}

	if lastErr != nil {
		t.log.Warnw("no captions available", "video_id", videoID, "error", lastErr)
	}

	return &models.TranscriptResult{
		VideoID:  videoID,
		Provider: "timedtext",
	}, nil
}

func (t *Transcriber) fetchCaptions(ctx context.Context, videoID, lang string) ([]models.TranscriptSegment, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	params.Set("fmt", "json3")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timedtext request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("captions not found for video %s in language %s", videoID, lang)
	case http.StatusForbidden:
		return nil, fmt.Errorf("access denied: captions disabled or region restricted")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited by youtube")
	default:
		return nil, fmt.Errorf("timedtext api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseTimedtext(body)
}

func parseTimedtext(data []byte) ([]models.TranscriptSegment, error) {
	var resp timedtextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal timedtext json: %w", err)
	}

	var segments []models.TranscriptSegment
	for _, event := range resp.Events {
		if len(event.Segs) == 0 {
			continue
		}

		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}

		trimmed := strings.TrimSpace(text.String())
		if trimmed == "" {
			continue
		}

		start := float64(event.TStartMs) / 1000
		segments = append(segments, models.TranscriptSegment{
			Start: start,
			End:   start + float64(event.DDurationMs)/1000,
			Text:  trimmed,
		})
	}
	return segments, nil
}
