package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"video-analyzer/core/models"
)

// Factor weights. Must sum to exactly 1.0.
const (
	WeightContentValue      = 0.25
	WeightEngagementQuality = 0.20
	WeightTrendAlignment    = 0.20
	WeightPolicySafety      = 0.15
	WeightReusability       = 0.10
	WeightChannelAuthority  = 0.10
)

// neutralScore is substituted for any factor whose upstream stage produced
// nothing, so a broken stage degrades the score instead of failing the run.
const neutralScore = 5.0

// Weights maps factor name to its configured weight.
var Weights = map[string]float64{
	"content_value":      WeightContentValue,
	"engagement_quality": WeightEngagementQuality,
	"trend_alignment":    WeightTrendAlignment,
	"policy_safety":      WeightPolicySafety,
	"reusability":        WeightReusability,
	"channel_authority":  WeightChannelAuthority,
}

// gradeThreshold maps a minimum score to its letter grade, checked in order.
type gradeThreshold struct {
	min   float64
	grade string
}

var grades = []gradeThreshold{
	{9.0, "A"},
	{8.0, "A-"},
	{7.0, "B+"},
	{6.0, "B"},
	{5.0, "C+"},
	{4.0, "C"},
	{3.0, "D"},
	{0.0, "F"},
}

// Engine computes the final weighted score for one analyzed video.
// It performs no I/O and never fails; missing inputs fall back to neutral
// values.
type Engine struct{}

// NewEngine creates a scoring engine
func NewEngine() *Engine {
	return &Engine{}
}

// Inputs are the accumulated upstream stage results the engine consumes.
// Any field may be nil.
type Inputs struct {
	Content    *models.NLPResult
	Engagement *models.SignalResult
	Trend      *models.TrendResult
	Policy     *models.PolicyResult
	Channel    *models.ChannelResult
	// DurationSeconds comes from ingestion metadata; 0 means unknown.
	DurationSeconds int
}

// Calculate produces the final score, grade, breakdown, and recommendation
// from whatever per-stage data was produced upstream.
func (e *Engine) Calculate(in Inputs) *models.FinalScoreResult {
	breakdown := make(map[string]models.ScoreBreakdown, len(Weights))
	var deductions []models.ScoreDeduction

	contentScore, contentReason := e.scoreContent(in.Content)
	breakdown["content_value"] = factor(contentScore, WeightContentValue, contentReason)

	engScore, engReason := e.scoreEngagement(in.Engagement)
	breakdown["engagement_quality"] = factor(engScore, WeightEngagementQuality, engReason)

	trendScore, trendReason := e.scoreTrend(in.Trend)
	breakdown["trend_alignment"] = factor(trendScore, WeightTrendAlignment, trendReason)

	policyScore, policyReason := e.scorePolicy(in.Policy)
	breakdown["policy_safety"] = factor(policyScore, WeightPolicySafety, policyReason)

	if in.Policy != nil {
		switch in.Policy.RiskLevel {
		case models.RiskHigh:
			deductions = append(deductions, models.ScoreDeduction{
				Reason: "high policy risk detected",
				Points: -2.0,
			})
		case models.RiskMedium:
			deductions = append(deductions, models.ScoreDeduction{
				Reason: "medium policy risk",
				Points: -0.5,
			})
		}
	}

	reuseScore, reuseReason := e.scoreReusability(in.Content, in.DurationSeconds)
	breakdown["reusability"] = factor(reuseScore, WeightReusability, reuseReason)

	channelScore, channelReason := e.scoreChannel(in.Channel)
	breakdown["channel_authority"] = factor(channelScore, WeightChannelAuthority, channelReason)

	base := 0.0
	for _, b := range breakdown {
		base += b.Weighted
	}
	total := base
	for _, d := range deductions {
		total += d.Points
	}
	final := round1(clamp(total, 0, 10))

	return &models.FinalScoreResult{
		FinalScore:     final,
		Grade:          gradeFor(final),
		Breakdown:      breakdown,
		Deductions:     deductions,
		Explanation:    explain(breakdown, deductions, final),
		Recommendation: recommend(final, in.Policy),
	}
}

func (e *Engine) scoreContent(content *models.NLPResult) (float64, string) {
	if content == nil {
		return neutralScore, "no content analysis available"
	}

	score := 5.0
	var reasons []string

	switch content.Sentiment {
	case "positive":
		score += 1.5
		reasons = append(reasons, "positive sentiment")
	case "negative":
		score -= 1.0
		reasons = append(reasons, "negative sentiment")
	}

	switch {
	case len(content.Keywords) >= 15:
		score += 1.0
		reasons = append(reasons, "rich keywords")
	case len(content.Keywords) < 5:
		score -= 0.5
		reasons = append(reasons, "limited keywords")
	}

	if len(content.Topics) >= 3 {
		score += 1.0
		reasons = append(reasons, "well-structured topics")
	}

	if len(content.Summary) >= 100 {
		score += 0.5
		reasons = append(reasons, "comprehensive content")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "standard content")
	}
	return round1(clamp(score, 0, 10)), "content analysis: " + strings.Join(reasons, ", ")
}

func (e *Engine) scoreEngagement(engagement *models.SignalResult) (float64, string) {
	if engagement == nil {
		return neutralScore, "no engagement data available"
	}
	reason := engagement.Reasoning
	if reason == "" {
		reason = "based on like/comment ratios"
	}
	return clamp(engagement.EngagementScore, 0, 10), reason
}

func (e *Engine) scoreTrend(trend *models.TrendResult) (float64, string) {
	if trend == nil || len(trend.TrendInsights) == 0 {
		return neutralScore, "standard alignment (no real-time trend data)"
	}
	n := len(trend.TrendInsights)
	score := math.Min(10, 5.0+float64(n)*1.5)
	return score, fmt.Sprintf("high alignment: %d trend insights found", n)
}

func (e *Engine) scorePolicy(policy *models.PolicyResult) (float64, string) {
	if policy == nil {
		return neutralScore, "no policy data available"
	}
	if !policy.PolicySafe {
		return 0.0, "policy violation detected"
	}
	switch policy.RiskLevel {
	case models.RiskMedium:
		reason := "some concerns"
		if len(policy.SensitiveTopics) > 0 {
			reason = "some concerns: " + strings.Join(policy.SensitiveTopics, ", ")
		}
		return 6.0, reason
	case models.RiskHigh:
		return 3.0, "high risk content"
	default:
		return 10.0, "clean content, no policy concerns"
	}
}

func (e *Engine) scoreReusability(content *models.NLPResult, durationSeconds int) (float64, string) {
	score := 6.0
	var reasons []string

	duration := durationSeconds
	if duration == 0 {
		duration = 300
	}
	switch {
	case duration <= 180:
		score += 2.0
		reasons = append(reasons, "short format")
	case duration <= 600:
		score += 1.0
		reasons = append(reasons, "medium length")
	case duration > 1800:
		score -= 1.5
		reasons = append(reasons, "long video needs cutting")
	}

	if content != nil && len(content.Topics) >= 2 {
		score += 1.0
		reasons = append(reasons, "clear structure")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "standard")
	}
	return round1(clamp(score, 0, 10)), "reusability: " + strings.Join(reasons, ", ")
}

func (e *Engine) scoreChannel(channel *models.ChannelResult) (float64, string) {
	if channel == nil {
		return neutralScore, "channel data unavailable"
	}
	reason := channel.Reasoning
	if reason == "" {
		reason = "based on channel metrics"
	}
	return clamp(channel.ChannelScore, 0, 10), reason
}

func factor(score, weight float64, reasoning string) models.ScoreBreakdown {
	return models.ScoreBreakdown{
		Score:     score,
		Weight:    weight,
		Weighted:  score * weight,
		Reasoning: reasoning,
	}
}

func gradeFor(score float64) string {
	for _, g := range grades {
		if score >= g.min {
			return g.grade
		}
	}
	return "F"
}

// explain names the two strongest factors and concatenates deduction reasons.
func explain(breakdown map[string]models.ScoreBreakdown, deductions []models.ScoreDeduction, final float64) string {
	type named struct {
		name  string
		score float64
	}
	factors := make([]named, 0, len(breakdown))
	for name, b := range breakdown {
		factors = append(factors, named{name, b.Score})
	}
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].score != factors[j].score {
			return factors[i].score > factors[j].score
		}
		return factors[i].name < factors[j].name
	})

	parts := []string{fmt.Sprintf("video scored %.1f/10.", final)}
	if len(factors) >= 2 {
		parts = append(parts, fmt.Sprintf("strengths: %s, %s.",
			factorLabel(factors[0].name), factorLabel(factors[1].name)))
	}
	if len(deductions) > 0 {
		reasons := make([]string, len(deductions))
		for i, d := range deductions {
			reasons[i] = d.Reason
		}
		parts = append(parts, "deductions: "+strings.Join(reasons, ", ")+".")
	}
	return strings.Join(parts, " ")
}

func recommend(score float64, policy *models.PolicyResult) string {
	if policy != nil && !policy.PolicySafe {
		return "NOT RECOMMENDED - policy violation detected"
	}
	switch {
	case score >= 8.0:
		return "HIGHLY RECOMMENDED for reup. Minimal editing needed."
	case score >= 6.5:
		return "RECOMMENDED with editing. Consider cutting to shorter segments."
	case score >= 5.0:
		return "CONSIDER with caution. Significant editing may be needed."
	default:
		return "NOT RECOMMENDED. Score too low for quality reup."
	}
}

func factorLabel(key string) string {
	labels := map[string]string{
		"content_value":      "quality content",
		"engagement_quality": "high engagement",
		"trend_alignment":    "trend alignment",
		"policy_safety":      "clean content",
		"reusability":        "easy to edit",
		"channel_authority":  "trusted channel",
	}
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
