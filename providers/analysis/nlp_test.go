package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeText_Basic(t *testing.T) {
	analyzer := NewTextAnalyzer(nil)
	text := "Docker containers simplify deployment. Docker images are portable. " +
		"Kubernetes orchestrates containers across clusters."

	result, err := analyzer.AnalyzeText(context.Background(), text, nil)
	require.NoError(t, err)

	assert.Equal(t, "local", result.Provider)
	require.NotEmpty(t, result.Keywords)
	// "docker" and "containers" appear twice each; ties break alphabetically
	assert.Equal(t, "containers", result.Keywords[0])
	assert.Equal(t, "docker", result.Keywords[1])
	assert.NotEmpty(t, result.Keyphrases)
	assert.NotEmpty(t, result.Topics)
	assert.Equal(t, result.Keywords[0], result.Topics[0].Name)
}

func TestAnalyzeText_EmptyInput(t *testing.T) {
	analyzer := NewTextAnalyzer(nil)

	result, err := analyzer.AnalyzeText(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Keywords)
	assert.Empty(t, result.Topics)
	assert.Equal(t, "neutral", result.Sentiment)
	assert.Empty(t, result.Summary)
}

func TestExtractKeywords_FiltersStopwordsAndShortWords(t *testing.T) {
	keywords := extractKeywords("the cat and the dog ran to the park", 10)

	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "and")
	assert.NotContains(t, keywords, "to") // under three letters
	assert.Contains(t, keywords, "cat")
	assert.Contains(t, keywords, "park")
}

func TestTopN_DeterministicTiebreak(t *testing.T) {
	freq := map[string]int{"zebra": 2, "apple": 2, "mango": 3, "kiwi": 1}

	got := topN(freq, 3)
	assert.Equal(t, []string{"mango", "apple", "zebra"}, got)
}

func TestBuildTopics_GroupsOfFour(t *testing.T) {
	keywords := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	topics := buildTopics(keywords)
	require.Len(t, topics, 3)
	assert.Equal(t, "a", topics[0].Name)
	assert.Equal(t, []string{"a", "b", "c", "d"}, topics[0].Keywords)
	assert.Equal(t, "e", topics[1].Name)
	assert.Equal(t, []string{"i", "j"}, topics[2].Keywords)
}

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"clearly positive", "this is a great and amazing tutorial, the best", "positive"},
		{"clearly negative", "terrible content, boring and disappointing, the worst", "negative"},
		{"balanced", "good parts but also bad parts", "neutral"},
		{"no signal", "a video about carpentry", "neutral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzeSentiment(tt.text))
		})
	}
}

func TestGenerateSummary_ShortTextPassedThrough(t *testing.T) {
	text := "One sentence only."
	assert.Equal(t, text, generateSummary(text, 3))
}

func TestGenerateSummary_PicksKeywordDenseSentences(t *testing.T) {
	text := "Filler filler filler. " +
		"Golang concurrency uses goroutines and channels for scheduling. " +
		"Unrelated aside here. " +
		"Goroutines are cheap and channels coordinate goroutines safely. " +
		"Another filler line. " +
		"Channels and goroutines make golang concurrency practical."

	summary := generateSummary(text, 3)

	assert.Contains(t, summary, "goroutines")
	assert.NotContains(t, summary, "Unrelated aside")
	assert.LessOrEqual(t, len(summary), 500)
}

func TestGenerateSummary_TruncatesAtLimit(t *testing.T) {
	long := strings.Repeat("word ", 200)
	assert.LessOrEqual(t, len(generateSummary(long, 3)), 500)
}
