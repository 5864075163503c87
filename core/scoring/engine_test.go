package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-analyzer/core/models"
)

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestCalculate_AllInputsMissing(t *testing.T) {
	e := NewEngine()

	result := e.Calculate(Inputs{})
	require.NotNil(t, result)

	// Five neutral factors plus reusability at 7.0 (default duration is
	// medium length): 5*0.25 + 5*0.20 + 5*0.20 + 5*0.15 + 7*0.10 + 5*0.10
	assert.Equal(t, 5.2, result.FinalScore)
	assert.Equal(t, "C+", result.Grade)
	assert.Len(t, result.Breakdown, 6)
	assert.Empty(t, result.Deductions)
}

func TestCalculate_RichContent(t *testing.T) {
	e := NewEngine()

	result := e.Calculate(Inputs{
		Content: &models.NLPResult{
			Sentiment: "positive",
			Keywords:  make([]string, 20),
			Topics:    []models.Topic{{Name: "a"}, {Name: "b"}, {Name: "c"}},
			Summary:   strings.Repeat("x", 150),
		},
	})

	// content 9.0, engagement/trend/policy/channel neutral 5.0,
	// reusability 8.0 (medium length + clear structure)
	assert.Equal(t, 9.0, result.Breakdown["content_value"].Score)
	assert.Equal(t, 8.0, result.Breakdown["reusability"].Score)
	assert.Equal(t, 6.3, result.FinalScore)
	assert.Equal(t, "B", result.Grade)
}

func TestCalculate_HighRiskDeduction(t *testing.T) {
	e := NewEngine()

	result := e.Calculate(Inputs{
		Policy: &models.PolicyResult{
			PolicySafe: false,
			RiskLevel:  models.RiskHigh,
		},
	})

	assert.Equal(t, 0.0, result.Breakdown["policy_safety"].Score)
	require.Len(t, result.Deductions, 1)
	assert.Equal(t, -2.0, result.Deductions[0].Points)
	assert.Contains(t, result.Recommendation, "NOT RECOMMENDED")
	assert.Contains(t, result.Recommendation, "policy violation")
}

func TestCalculate_MediumRiskDeduction(t *testing.T) {
	e := NewEngine()

	result := e.Calculate(Inputs{
		Policy: &models.PolicyResult{
			PolicySafe: true,
			RiskLevel:  models.RiskMedium,
		},
	})

	assert.Equal(t, 6.0, result.Breakdown["policy_safety"].Score)
	require.Len(t, result.Deductions, 1)
	assert.Equal(t, -0.5, result.Deductions[0].Points)
}

func TestCalculate_ClampsFactorScores(t *testing.T) {
	e := NewEngine()

	result := e.Calculate(Inputs{
		Engagement: &models.SignalResult{EngagementScore: 15.0},
		Channel:    &models.ChannelResult{ChannelScore: -3.0},
	})

	assert.Equal(t, 10.0, result.Breakdown["engagement_quality"].Score)
	assert.Equal(t, 0.0, result.Breakdown["channel_authority"].Score)
	assert.GreaterOrEqual(t, result.FinalScore, 0.0)
	assert.LessOrEqual(t, result.FinalScore, 10.0)
}

func TestCalculate_Deterministic(t *testing.T) {
	e := NewEngine()
	in := Inputs{
		Content: &models.NLPResult{
			Sentiment: "positive",
			Keywords:  make([]string, 10),
		},
		Engagement:      &models.SignalResult{EngagementScore: 7.2},
		Policy:          &models.PolicyResult{PolicySafe: true, RiskLevel: models.RiskLow},
		DurationSeconds: 120,
	}

	first := e.Calculate(in)
	second := e.Calculate(in)

	assert.Equal(t, first.FinalScore, second.FinalScore)
	assert.Equal(t, first.Grade, second.Grade)
	assert.Equal(t, first.Explanation, second.Explanation)
}

func TestGradeLadder(t *testing.T) {
	tests := []struct {
		score float64
		grade string
	}{
		{9.5, "A"},
		{9.0, "A"},
		{8.9, "A-"},
		{8.0, "A-"},
		{7.5, "B+"},
		{6.0, "B"},
		{5.9, "C+"},
		{4.2, "C"},
		{3.0, "D"},
		{2.9, "F"},
		{0.0, "F"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.grade, gradeFor(tt.score), "score %.1f", tt.score)
	}
}

func TestRecommendationBuckets(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{8.0, "HIGHLY RECOMMENDED"},
		{6.5, "RECOMMENDED with editing"},
		{5.0, "CONSIDER with caution"},
		{4.9, "NOT RECOMMENDED"},
	}

	for _, tt := range tests {
		got := recommend(tt.score, nil)
		assert.Contains(t, got, tt.want, "score %.1f", tt.score)
	}
}

func TestScoreTrend_CapsAtTen(t *testing.T) {
	e := NewEngine()

	insights := make([]string, 10)
	for i := range insights {
		insights[i] = "insight"
	}
	score, _ := e.scoreTrend(&models.TrendResult{TrendInsights: insights})
	assert.Equal(t, 10.0, score)
}

func TestScoreReusability_DurationTiers(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		duration int
		want     float64
	}{
		{"short format", 120, 8.0},
		{"medium length", 400, 7.0},
		{"plain", 1000, 6.0},
		{"too long", 2400, 4.5},
		{"unknown defaults to medium", 0, 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := e.scoreReusability(nil, tt.duration)
			assert.Equal(t, tt.want, score)
		})
	}
}
