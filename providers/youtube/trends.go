package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

const (
	trendSearchResults = 5
	trendLookbackDays  = 90
)

// TrendMiner finds comparable high-performing content in the same niche
type TrendMiner struct {
	client *Client
	log    *zap.SugaredLogger
}

func NewTrendMiner(client *Client, log *zap.SugaredLogger) *TrendMiner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TrendMiner{client: client, log: log}
}

// MineTrends searches recent popular videos matching the top keywords and
// synthesizes niche insights from the results. Search failures degrade to
// an empty competitive set.
func (m *TrendMiner) MineTrends(ctx context.Context, meta *models.VideoMetadata, keywords []string) (*models.TrendResult, error) {
	top := keywords
	if len(top) > 3 {
		top = top[:3]
	}
	if len(top) == 0 && meta != nil {
		top = meta.Tags
		if len(top) > 3 {
			top = top[:3]
		}
	}
	if len(top) == 0 {
		return &models.TrendResult{
			TrendInsights: []string{"No keywords available for trend research"},
		}, nil
	}

	m.log.Debugw("mining trends", "keywords", top)

	after := time.Now().AddDate(0, 0, -trendLookbackDays)
	similar, err := m.client.Search(ctx, strings.Join(top, " "), trendSearchResults, after)
	if err != nil {
		m.log.Warnw("trend search failed", "error", err)
		return &models.TrendResult{
			TrendInsights: []string{"Could not fetch real-time trends"},
		}, nil
	}

	return &models.TrendResult{
		SimilarContent:  similar,
		TrendInsights:   synthesizeInsights(top, similar),
		ViralHooks:      suggestHooks(top),
		CompetitiveEdge: "Unique perspective on " + top[0],
	}, nil
}

func synthesizeInsights(keywords []string, similar []models.SimilarVideo) []string {
	insights := []string{"Trending topics include " + strings.Join(keywords, ", ")}

	if len(similar) == 0 {
		return insights
	}

	insights = append(insights, fmt.Sprintf("%d high-performing videos found in this niche over the last %d days", len(similar), trendLookbackDays))

	// Count competing channels to gauge niche saturation
	channels := make(map[string]struct{}, len(similar))
	for _, v := range similar {
		channels[v.Channel] = struct{}{}
	}
	if len(channels) == len(similar) {
		insights = append(insights, "Top results come from distinct channels, the niche is open")
	} else {
		insights = append(insights, "A few channels dominate this niche")
	}

	return insights
}

func suggestHooks(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	hooks := []string{"How to fix " + keywords[0]}
	if len(keywords) > 1 {
		hooks = append(hooks, "The truth about "+keywords[1])
	}
	return hooks
}
