package analysis

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

// Rule-based content moderation patterns
var violationPatterns = map[string]*regexp.Regexp{
	"hate_speech":    regexp.MustCompile(`\b(racist|bigot|nazi|supremacist)\b`),
	"violence":       regexp.MustCompile(`\b(kill|murder|shoot|stab|blood)\b`),
	"sexual":         regexp.MustCompile(`\b(sex|porn|xxx|nude)\b`),
	"misinformation": regexp.MustCompile(`\b(hoax|conspiracy|fake news)\b`),
	"dangerous":      regexp.MustCompile(`\b(suicide|self-harm|cutting)\b`),
}

var positivePatterns = map[string]*regexp.Regexp{
	"education":     regexp.MustCompile(`\b(tutorial|learn|teach|guide|how to)\b`),
	"motivation":    regexp.MustCompile(`\b(inspire|motivat)\w*\b`),
	"entertainment": regexp.MustCompile(`\b(funny|comedy|entertainment)\b`),
	"news":          regexp.MustCompile(`\b(news|update|breaking)\b`),
}

var sensitivePatterns = map[string]*regexp.Regexp{
	"politics": regexp.MustCompile(`\b(politics|election|government)\b`),
	"health":   regexp.MustCompile(`\b(vaccine|covid|health|medicine)\b`),
	"religion": regexp.MustCompile(`\b(religion|church|temple)\b`),
	"finance":  regexp.MustCompile(`\b(bitcoin|crypto|invest|trading)\b`),
}

// PolicyChecker runs rule-based content moderation
type PolicyChecker struct {
	log *zap.SugaredLogger
}

func NewPolicyChecker(log *zap.SugaredLogger) *PolicyChecker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PolicyChecker{log: log}
}

// CheckPolicy classifies content risk from the transcript and keywords.
// It never fails; unmatched content is low risk.
func (p *PolicyChecker) CheckPolicy(ctx context.Context, text string, keywords []string) (*models.PolicyResult, error) {
	corpus := strings.ToLower(text + " " + strings.Join(keywords, " "))

	var violations []string
	for category, re := range violationPatterns {
		if re.MatchString(corpus) {
			violations = append(violations, category+": pattern matched")
		}
	}
	sort.Strings(violations)

	var positive []string
	for category, re := range positivePatterns {
		if re.MatchString(corpus) {
			positive = append(positive, category)
		}
	}
	sort.Strings(positive)

	var sensitive []string
	for topic, re := range sensitivePatterns {
		if re.MatchString(corpus) {
			sensitive = append(sensitive, topic)
		}
	}
	sort.Strings(sensitive)

	risk := riskLevel(violations)
	result := &models.PolicyResult{
		PolicySafe:      risk == models.RiskLow,
		RiskLevel:       risk,
		Violations:      violations,
		SensitiveTopics: sensitive,
		PositiveValue:   positive,
		ReupSafeScore:   reupScore(risk, len(violations), len(positive)),
		Reasoning:       policyReasoning(risk, violations, positive, sensitive),
		Provider:        "local_rules",
	}

	if risk != models.RiskLow {
		p.log.Warnw("policy risk detected", "risk", risk, "violations", violations)
	}

	return result, nil
}

func riskLevel(violations []string) models.RiskLevel {
	switch {
	case len(violations) > 2:
		return models.RiskHigh
	case len(violations) > 0:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func reupScore(risk models.RiskLevel, violationCount, positiveCount int) float64 {
	base := 5.0
	switch risk {
	case models.RiskLow:
		base = 9.0
	case models.RiskMedium:
		base = 6.0
	case models.RiskHigh:
		base = 2.0
	}

	score := base - float64(violationCount)*0.5
	score += math.Min(float64(positiveCount)*0.3, 1.0)

	return math.Round(math.Max(0, math.Min(10, score))*10) / 10
}

func policyReasoning(risk models.RiskLevel, violations, positive, sensitive []string) string {
	var parts []string

	switch risk {
	case models.RiskLow:
		parts = append(parts, "Content is safe, no policy violations detected.")
	case models.RiskMedium:
		parts = append(parts, "Content has minor warnings.")
	default:
		parts = append(parts, "Content carries high risk.")
	}

	if len(violations) > 0 {
		shown := violations
		if len(shown) > 3 {
			shown = shown[:3]
		}
		parts = append(parts, fmt.Sprintf("Violations detected: %s.", strings.Join(shown, ", ")))
	}
	if len(positive) > 0 {
		parts = append(parts, fmt.Sprintf("Positive value: %s.", strings.Join(positive, ", ")))
	}
	if len(sensitive) > 0 {
		parts = append(parts, fmt.Sprintf("Sensitive topics: %s.", strings.Join(sensitive, ", ")))
	}

	return strings.Join(parts, " ")
}
