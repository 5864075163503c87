package youtube

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

// Engagement benchmark thresholds
const (
	likeRatioExcellent = 0.05
	likeRatioGood      = 0.03
	likeRatioAverage   = 0.02
	likeRatioPoor      = 0.01

	commentRatioExcellent = 0.01
	commentRatioGood      = 0.005
	commentRatioAverage   = 0.002

	viewsPerDayViral     = 100000
	viewsPerDayExcellent = 50000
	viewsPerDayGood      = 10000
	viewsPerDayAverage   = 1000
)

// SignalAnalyzer computes engagement signals from video statistics
type SignalAnalyzer struct {
	client *Client
	log    *zap.SugaredLogger
}

func NewSignalAnalyzer(client *Client, log *zap.SugaredLogger) *SignalAnalyzer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SignalAnalyzer{client: client, log: log}
}

// AnalyzeSignals derives engagement metrics and a weighted 0-10 score.
// Metadata is refetched only when the caller did not supply it.
func (a *SignalAnalyzer) AnalyzeSignals(ctx context.Context, videoID string, meta *models.VideoMetadata) (*models.SignalResult, error) {
	if meta == nil {
		info, err := a.client.Video(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if info == nil {
			return nil, fmt.Errorf("could not fetch metadata for %s", videoID)
		}
		meta = &info.Metadata
	}

	metrics := calculateMetrics(meta)
	score, reasoning := scoreEngagement(metrics)

	a.log.Debugw("signal analysis complete", "video_id", videoID, "score", score)

	return &models.SignalResult{
		VideoID:         videoID,
		Metrics:         metrics,
		EngagementScore: score,
		Reasoning:       reasoning,
	}, nil
}

func calculateMetrics(meta *models.VideoMetadata) models.EngagementMetrics {
	views := float64(meta.ViewCount)

	var likeRatio, commentRatio float64
	if views > 0 {
		likeRatio = float64(meta.LikeCount) / views
		commentRatio = float64(meta.CommentCount) / views
	}

	days := daysSincePublished(meta.PublishedAt)
	viewsPerDay := views / math.Max(float64(days), 1)

	return models.EngagementMetrics{
		LikeViewRatio:    roundN(likeRatio, 6),
		CommentViewRatio: roundN(commentRatio, 6),
		ViewsPerDay:      roundN(viewsPerDay, 2),
		DaysSinceUpload:  days,
		VelocityScore:    scoreVelocity(viewsPerDay),
	}
}

func daysSincePublished(publishedAt string) int {
	if publishedAt == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return 1
	}
	days := int(time.Since(t).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// scoreVelocity maps views/day onto a 0-10 scale with linear interpolation
// between benchmark tiers
func scoreVelocity(viewsPerDay float64) float64 {
	switch {
	case viewsPerDay >= viewsPerDayViral:
		return 10.0
	case viewsPerDay >= viewsPerDayExcellent:
		return 8.0 + (viewsPerDay-viewsPerDayExcellent)/(viewsPerDayViral-viewsPerDayExcellent)*2
	case viewsPerDay >= viewsPerDayGood:
		return 6.0 + (viewsPerDay-viewsPerDayGood)/(viewsPerDayExcellent-viewsPerDayGood)*2
	case viewsPerDay >= viewsPerDayAverage:
		return 4.0 + (viewsPerDay-viewsPerDayAverage)/(viewsPerDayGood-viewsPerDayAverage)*2
	default:
		return math.Max(0, viewsPerDay/viewsPerDayAverage*4)
	}
}

func scoreEngagement(m models.EngagementMetrics) (float64, string) {
	var reasons []string

	likeScore := scoreTier(m.LikeViewRatio, likeRatioExcellent, likeRatioGood, likeRatioAverage, likeRatioPoor)
	switch {
	case likeScore >= 8:
		reasons = append(reasons, fmt.Sprintf("excellent like ratio (%.2f%%)", m.LikeViewRatio*100))
	case likeScore >= 6:
		reasons = append(reasons, fmt.Sprintf("good like ratio (%.2f%%)", m.LikeViewRatio*100))
	default:
		reasons = append(reasons, fmt.Sprintf("low like ratio (%.2f%%)", m.LikeViewRatio*100))
	}

	commentScore := scoreTier(m.CommentViewRatio, commentRatioExcellent, commentRatioGood, commentRatioAverage, 0)
	if commentScore >= 8 {
		reasons = append(reasons, fmt.Sprintf("high comment engagement (%.3f%%)", m.CommentViewRatio*100))
	} else if commentScore < 5 {
		reasons = append(reasons, fmt.Sprintf("low comments (%.3f%%)", m.CommentViewRatio*100))
	}

	if m.VelocityScore >= 8 {
		reasons = append(reasons, fmt.Sprintf("viral velocity (%.0f views/day)", m.ViewsPerDay))
	} else if m.VelocityScore >= 6 {
		reasons = append(reasons, fmt.Sprintf("good growth (%.0f views/day)", m.ViewsPerDay))
	}

	recencyScore := scoreRecency(m.DaysSinceUpload)
	if m.DaysSinceUpload <= 7 {
		reasons = append(reasons, fmt.Sprintf("fresh content (%d days old)", m.DaysSinceUpload))
	} else if m.DaysSinceUpload > 365 {
		reasons = append(reasons, fmt.Sprintf("evergreen content (%d days old)", m.DaysSinceUpload))
	}

	total := likeScore*0.30 + commentScore*0.25 + m.VelocityScore*0.30 + recencyScore*0.15
	total = roundN(math.Min(10, math.Max(0, total)), 1)

	return total, strings.Join(reasons, " | ")
}

func scoreTier(value, excellent, good, average, poor float64) float64 {
	switch {
	case value >= excellent:
		return 10.0
	case value >= good:
		return 8.0
	case value >= average:
		return 6.0
	case value >= poor:
		return 4.0
	default:
		return 2.0
	}
}

func scoreRecency(days int) float64 {
	switch {
	case days <= 7:
		return 10.0
	case days <= 30:
		return 8.0
	case days <= 90:
		return 6.0
	case days <= 365:
		return 5.0
	default:
		return 4.0
	}
}

func roundN(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
