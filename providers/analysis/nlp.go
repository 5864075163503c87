package analysis

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

var (
	wordPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)
	sentSplit   = regexp.MustCompile(`[.!?]\s+`)

	stopwords = map[string]struct{}{
		"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
		"are": {}, "was": {}, "were": {}, "have": {}, "has": {}, "had": {},
		"been": {}, "from": {}, "they": {}, "you": {}, "your": {}, "but": {},
		"not": {}, "can": {}, "will": {}, "just": {}, "about": {}, "what": {},
		"when": {}, "how": {}, "all": {}, "out": {}, "get": {}, "like": {},
	}

	positiveWords = []string{"good", "great", "excellent", "love", "amazing", "best", "awesome", "helpful"}
	negativeWords = []string{"bad", "terrible", "hate", "boring", "disappointed", "worst", "awful"}
)

// TextAnalyzer runs frequency-based NLP over transcript text
type TextAnalyzer struct {
	log *zap.SugaredLogger
}

func NewTextAnalyzer(log *zap.SugaredLogger) *TextAnalyzer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TextAnalyzer{log: log}
}

// AnalyzeText extracts keywords, keyphrases, topics, sentiment, and an
// extractive summary. It always succeeds; empty text yields an empty result.
func (a *TextAnalyzer) AnalyzeText(ctx context.Context, text string, segments []models.TranscriptSegment) (*models.NLPResult, error) {
	keywords := extractKeywords(text, 20)
	result := &models.NLPResult{
		Topics:     buildTopics(keywords),
		Keywords:   keywords,
		Keyphrases: extractKeyphrases(text, 10),
		Sentiment:  analyzeSentiment(text),
		Summary:    generateSummary(text, 3),
		Provider:   "local",
	}

	a.log.Debugw("text analysis complete",
		"keywords", len(result.Keywords),
		"topics", len(result.Topics),
		"sentiment", result.Sentiment)

	return result, nil
}

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func extractKeywords(text string, n int) []string {
	freq := make(map[string]int)
	for _, w := range tokenize(text) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		freq[w]++
	}
	return topN(freq, n)
}

func extractKeyphrases(text string, n int) []string {
	words := tokenize(text)
	freq := make(map[string]int)
	for i := 0; i+1 < len(words); i++ {
		freq[words[i]+" "+words[i+1]]++
	}
	return topN(freq, n)
}

// topN returns the n most frequent keys, breaking ties alphabetically so
// results are stable across runs
func topN(freq map[string]int, n int) []string {
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// buildTopics groups top keywords into coarse topics, one per leading
// keyword with the following keywords as support
func buildTopics(keywords []string) []models.Topic {
	var topics []models.Topic
	for i := 0; i < len(keywords) && len(topics) < 5; i += 4 {
		end := i + 4
		if end > len(keywords) {
			end = len(keywords)
		}
		topics = append(topics, models.Topic{
			Name:     keywords[i],
			Keywords: keywords[i:end],
		})
	}
	return topics
}

func analyzeSentiment(text string) string {
	lower := strings.ToLower(text)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case float64(pos) > float64(neg)*1.5:
		return "positive"
	case float64(neg) > float64(pos)*1.5:
		return "negative"
	default:
		return "neutral"
	}
}

// generateSummary picks the sentences densest in top keywords
func generateSummary(text string, maxSentences int) string {
	sentences := sentSplit.Split(text, -1)
	if len(sentences) <= maxSentences {
		return truncate(text, 500)
	}

	top := make(map[string]struct{})
	for _, k := range extractKeywords(text, 10) {
		top[k] = struct{}{}
	}

	type scored struct {
		score int
		idx   int
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		seen := make(map[string]struct{})
		for _, w := range tokenize(sent) {
			if _, ok := top[w]; ok {
				seen[w] = struct{}{}
			}
		}
		ranked[i] = scored{score: len(seen), idx: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	picked := ranked[:maxSentences]
	sort.Slice(picked, func(i, j int) bool { return picked[i].idx < picked[j].idx })

	parts := make([]string, 0, maxSentences)
	for _, p := range picked {
		parts = append(parts, strings.TrimSpace(sentences[p.idx]))
	}
	return truncate(strings.Join(parts, ". "), 500)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
