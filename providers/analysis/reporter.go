package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"video-analyzer/core/models"
)

// Reporter aggregates stage results into a final summary report
type Reporter struct {
	log *zap.SugaredLogger
}

func NewReporter(log *zap.SugaredLogger) *Reporter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reporter{log: log}
}

// GenerateReport synthesizes an executive summary, takeaways, and an
// action plan from the accumulated stage results.
func (r *Reporter) GenerateReport(ctx context.Context, state *models.PipelineState) (*models.ReportResult, error) {
	report := &models.ReportResult{}

	var meta *models.VideoMetadata
	if data := state.StageData(models.StageIngestion); data != nil {
		if ing, ok := data.(*models.IngestionResult); ok {
			report.VideoID = ing.VideoID
			meta = ing.Metadata
		}
	}
	if meta != nil {
		report.Title = meta.Title
		report.Channel = meta.ChannelTitle
	}

	score := state.FinalScore()
	if score != nil {
		report.OverallScore = score.FinalScore
		report.ExecutiveSummary = fmt.Sprintf(
			"%q scored %.1f/10 (grade %s). %s",
			report.Title, score.FinalScore, score.Grade, score.Explanation)
		report.KeyTakeaways = takeaways(state, score)
		report.ActionPlan = actionPlan(state, score)
	} else {
		report.ExecutiveSummary = "Analysis completed without a final score."
		report.KeyTakeaways = []string{"Check the detailed stage data for more info"}
		report.ActionPlan = []string{"Follow general optimization best practices"}
	}

	r.log.Infow("report generated", "job_id", state.JobID, "score", report.OverallScore)

	return report, nil
}

func takeaways(state *models.PipelineState, score *models.FinalScoreResult) []string {
	var out []string

	out = append(out, "Recommendation: "+score.Recommendation)

	if data := state.StageData(models.StagePolicyCheck); data != nil {
		if policy, ok := data.(*models.PolicyResult); ok && !policy.PolicySafe {
			out = append(out, fmt.Sprintf("Policy risk is %s: %s", policy.RiskLevel, policy.Reasoning))
		}
	}
	if data := state.StageData(models.StageSignalAnalysis); data != nil {
		if sig, ok := data.(*models.SignalResult); ok && sig.Reasoning != "" {
			out = append(out, "Engagement: "+sig.Reasoning)
		}
	}
	if data := state.StageData(models.StageTrendMining); data != nil {
		if trend, ok := data.(*models.TrendResult); ok {
			out = append(out, trend.TrendInsights...)
		}
	}
	return out
}

func actionPlan(state *models.PipelineState, score *models.FinalScoreResult) []string {
	var plan []string

	if data := state.StageData(models.StageRecommendation); data != nil {
		if rec, ok := data.(*models.RecommendationResult); ok {
			if len(rec.TitleVariants) > 0 {
				plan = append(plan, "Test title variant: "+rec.TitleVariants[0])
			}
			plan = append(plan, rec.RetentionTactics...)
		}
	}
	if len(plan) == 0 {
		plan = []string{"Follow general optimization best practices"}
	}
	return plan
}
