package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

// Recommender produces template-based optimization recommendations
type Recommender struct {
	log *zap.SugaredLogger
}

func NewRecommender(log *zap.SugaredLogger) *Recommender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Recommender{log: log}
}

// Recommend builds title variants, SEO keywords, and retention tactics
// from the video's metadata and engagement signals.
func (r *Recommender) Recommend(ctx context.Context, meta *models.VideoMetadata, signals *models.SignalResult, score float64) (*models.RecommendationResult, error) {
	title := "Untitled"
	var tags []string
	if meta != nil {
		if meta.Title != "" {
			title = meta.Title
		}
		tags = meta.Tags
	}

	r.log.Debugw("generating recommendations", "title", title, "score", score)

	result := &models.RecommendationResult{
		Download:         score >= 6.0,
		Reason:           downloadReason(score),
		TitleVariants:    titleVariants(title),
		SEOKeywords:      seoKeywords(title, tags),
		RetentionTactics: retentionTactics(signals),
	}
	return result, nil
}

func downloadReason(score float64) string {
	switch {
	case score >= 8.0:
		return fmt.Sprintf("excellent quality score (%.1f)", score)
	case score >= 6.0:
		return fmt.Sprintf("acceptable quality score (%.1f)", score)
	default:
		return fmt.Sprintf("quality score below threshold (%.1f)", score)
	}
}

func titleVariants(title string) []string {
	return []string{
		"Optimized: " + title,
		title + " (You Won't Believe This)",
		"The Truth About " + title,
		"Why " + title + " Matters",
		title + " Explained",
	}
}

func seoKeywords(title string, tags []string) []string {
	keywords := make([]string, 0, len(tags)+4)
	seen := make(map[string]struct{})

	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}

	for _, t := range tags {
		add(t)
	}
	for _, w := range strings.Fields(title) {
		if len(w) > 3 {
			add(w)
		}
	}

	if len(keywords) > 15 {
		keywords = keywords[:15]
	}
	return keywords
}

func retentionTactics(signals *models.SignalResult) []string {
	tactics := []string{"Improve the first 10 seconds", "Add clear chapter structure"}

	if signals != nil {
		if signals.Metrics.CommentViewRatio < 0.002 {
			tactics = append(tactics, "Ask viewers a direct question to drive comments")
		}
		if signals.Metrics.VelocityScore < 6 {
			tactics = append(tactics, "Publish on a consistent schedule to build momentum")
		}
	}
	return tactics
}
