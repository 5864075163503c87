package youtube

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

// ChannelAnalyzer scores channel authority from public statistics
type ChannelAnalyzer struct {
	client *Client
	log    *zap.SugaredLogger
}

func NewChannelAnalyzer(client *Client, log *zap.SugaredLogger) *ChannelAnalyzer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ChannelAnalyzer{client: client, log: log}
}

// AnalyzeChannel computes a 0-10 authority score from subscriber count,
// library size, and lifetime views. Lookup failures degrade to a neutral
// score instead of failing the pipeline.
func (a *ChannelAnalyzer) AnalyzeChannel(ctx context.Context, channelID string) (*models.ChannelResult, error) {
	stats, err := a.client.Channel(ctx, channelID)
	if err != nil {
		a.log.Warnw("channel lookup failed, using neutral authority", "channel_id", channelID, "error", err)
		return &models.ChannelResult{
			ChannelScore: 5.0,
			Reasoning:    "Could not fetch channel data",
		}, nil
	}
	if stats == nil {
		return &models.ChannelResult{
			ChannelScore: 5.0,
			Reasoning:    "Channel not found",
		}, nil
	}

	// Logarithmic subscriber scale: 1k=4.5, 10k=6, 100k=7.5, 1M=9
	subScore := 1.0
	if stats.Subscribers > 0 {
		subScore = math.Min(10, math.Log10(float64(stats.Subscribers))*1.5)
	}

	// Content consistency: 500+ videos saturates
	vidScore := math.Min(10, float64(stats.VideoCount)/50)

	// Lifetime view authority: 100M views saturates
	viewScore := 1.0
	if stats.TotalViews > 0 {
		viewScore = math.Min(10, math.Log10(float64(stats.TotalViews))/8*10)
	}

	authority := subScore*0.5 + vidScore*0.2 + viewScore*0.3

	return &models.ChannelResult{
		ChannelScore: roundN(authority, 1),
		Subscribers:  stats.Subscribers,
		TotalViews:   stats.TotalViews,
		VideoCount:   stats.VideoCount,
		Reasoning:    fmt.Sprintf("Authority based on %d subscribers and %d lifetime views.", stats.Subscribers, stats.TotalViews),
	}, nil
}
