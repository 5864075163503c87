package models

// Stage result payloads. Each type is produced by one stage provider and
// consumed by later stages through PipelineState.StageData.

// InputType classifies what kind of source URL a run was given
type InputType string

const (
	InputTypeVideo    InputType = "video"
	InputTypePlaylist InputType = "playlist"
	InputTypeChannel  InputType = "channel"
	InputTypeUnknown  InputType = "unknown"
)

// VideoMetadata holds source metadata fetched during ingestion
type VideoMetadata struct {
	VideoID         string
	Title           string
	Description     string
	ChannelID       string
	ChannelTitle    string
	DurationSeconds int
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
	PublishedAt     string // RFC 3339
	Tags            []string
	CategoryID      string
}

// ValidationResult reports whether a video can be analyzed and downloaded
type ValidationResult struct {
	IsAvailable     bool
	IsAgeRestricted bool
	DurationValid   bool
	CanDownload     bool
	ErrorMessage    string
}

// IngestionResult is the payload of the ingestion stage
type IngestionResult struct {
	VideoID    string
	InputType  InputType
	Validation ValidationResult
	Metadata   *VideoMetadata
	LocalPath  string
}

// EngagementMetrics are the ratios computed from video statistics
type EngagementMetrics struct {
	LikeViewRatio    float64
	CommentViewRatio float64
	ViewsPerDay      float64
	DaysSinceUpload  int
	VelocityScore    float64 // 0-10
}

// SignalResult is the payload of the signal-analysis stage
type SignalResult struct {
	VideoID         string
	Metrics         EngagementMetrics
	EngagementScore float64 // 0-10
	Reasoning       string
}

// TranscriptSegment is one caption segment with timing
type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

// TranscriptResult is the payload of the transcription stage
type TranscriptResult struct {
	VideoID         string
	Language        string
	FullText        string
	Segments        []TranscriptSegment
	DurationSeconds float64
	Provider        string
	Confidence      float64
}

// Topic is a named topic with its supporting keywords
type Topic struct {
	Name     string
	Keywords []string
}

// NLPResult is the payload of the nlp-analysis stage
type NLPResult struct {
	Topics     []Topic
	Keywords   []string
	Keyphrases []string
	Sentiment  string // positive, neutral, negative
	Summary    string
	Provider   string
}

// RiskLevel classifies policy risk
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// PolicyResult is the payload of the policy-check stage
type PolicyResult struct {
	PolicySafe      bool
	RiskLevel       RiskLevel
	Violations      []string
	SensitiveTopics []string
	PositiveValue   []string
	ReupSafeScore   float64
	Reasoning       string
	Provider        string
}

// SimilarVideo is one competing video found during trend mining
type SimilarVideo struct {
	VideoID     string
	Title       string
	Channel     string
	PublishedAt string
}

// TrendResult is the payload of the trend-mining stage
type TrendResult struct {
	SimilarContent  []SimilarVideo
	TrendInsights   []string
	ViralHooks      []string
	CompetitiveEdge string
}

// ChannelResult is the payload of the channel-authority lookup
type ChannelResult struct {
	ChannelScore float64 // 0-10
	Subscribers  int64
	TotalViews   int64
	VideoCount   int64
	Reasoning    string
}

// ScoreBreakdown is one weighted factor of the final score
type ScoreBreakdown struct {
	Score     float64 // raw 0-10
	Weight    float64 // 0-1
	Weighted  float64 // Score * Weight
	Reasoning string
}

// ScoreDeduction is a named penalty applied after the weighted sum
type ScoreDeduction struct {
	Reason string
	Points float64 // negative
}

// FinalScoreResult is the payload of the scoring stage
type FinalScoreResult struct {
	FinalScore     float64 // 0-10, one decimal
	Grade          string
	Breakdown      map[string]ScoreBreakdown
	Deductions     []ScoreDeduction
	Explanation    string
	Recommendation string
}

// RecommendationResult is the payload of the recommendation stage
type RecommendationResult struct {
	Download         bool
	Reason           string
	TitleVariants    []string
	SEOKeywords      []string
	RetentionTactics []string
}

// FinalizationResult is the payload of the finalization stage
type FinalizationResult struct {
	AutoTriggered bool
	ProcessingMsg string
	ExportOK      bool
	ExportURI     string
	ExportError   string
}

// ReportResult is the payload of the reporting stage
type ReportResult struct {
	VideoID          string
	Title            string
	Channel          string
	ExecutiveSummary string
	KeyTakeaways     []string
	ActionPlan       []string
	OverallScore     float64
}
