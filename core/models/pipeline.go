package models

import "time"

// PipelineStage identifies one stage of the analysis pipeline
type PipelineStage string

const (
	StageIngestion      PipelineStage = "ingestion"
	StageSignalAnalysis PipelineStage = "signal_analysis"
	StageTranscription  PipelineStage = "transcription"
	StageNLPAnalysis    PipelineStage = "nlp_analysis"
	StagePolicyCheck    PipelineStage = "policy_check"
	StageTrendMining    PipelineStage = "trend_mining"
	StageScoring        PipelineStage = "scoring"
	StageRecommendation PipelineStage = "recommendation"
	StageFinalization   PipelineStage = "finalization"
	StageReporting      PipelineStage = "reporting"
)

// PipelineStatus represents the execution status of a pipeline run
type PipelineStatus string

const (
	PipelineStatusPending   PipelineStatus = "pending"
	PipelineStatusRunning   PipelineStatus = "running"
	PipelineStatusCompleted PipelineStatus = "completed"
	PipelineStatusFailed    PipelineStatus = "failed"
	PipelineStatusCancelled PipelineStatus = "cancelled"
)

// PipelineConfig is the immutable input to one pipeline run
type PipelineConfig struct {
	VideoURL       string
	MaxDuration    int     // seconds
	MinScore       float64 // minimum acceptable final score
	SkipProcessing bool
	SkipExport     bool
	TargetPlatform string // "tiktok", "shorts", ...
}

// StageOutcome is the result of running one stage. Retries overwrite the
// previous outcome for the stage, they do not accumulate.
type StageOutcome struct {
	Stage    PipelineStage
	Success  bool
	Data     interface{} // stage-specific payload, see stage result types
	Duration time.Duration
	Error    string
}

// PipelineState tracks progress of one pipeline run. It is mutated only by
// the orchestrator goroutine that owns the run; observers receive snapshots.
type PipelineState struct {
	JobID           string
	Status          PipelineStatus
	CurrentStage    *PipelineStage
	CompletedStages []PipelineStage
	Results         map[PipelineStage]*StageOutcome
	Progress        float64 // 0-100
	StartTime       time.Time
	EndTime         *time.Time
	Error           string
}

// Outcome returns the recorded outcome for a stage, or nil if the stage has
// not produced one yet.
func (s *PipelineState) Outcome(stage PipelineStage) *StageOutcome {
	if s.Results == nil {
		return nil
	}
	return s.Results[stage]
}

// StageData returns the payload of a successful stage, or nil.
func (s *PipelineState) StageData(stage PipelineStage) interface{} {
	out := s.Outcome(stage)
	if out == nil || !out.Success {
		return nil
	}
	return out.Data
}

// Snapshot returns a copy of the state safe to hand to observers while the
// orchestrator keeps mutating the original.
func (s *PipelineState) Snapshot() *PipelineState {
	cp := *s
	cp.CompletedStages = append([]PipelineStage(nil), s.CompletedStages...)
	cp.Results = make(map[PipelineStage]*StageOutcome, len(s.Results))
	for stage, out := range s.Results {
		o := *out
		cp.Results[stage] = &o
	}
	if s.CurrentStage != nil {
		stage := *s.CurrentStage
		cp.CurrentStage = &stage
	}
	if s.EndTime != nil {
		t := *s.EndTime
		cp.EndTime = &t
	}
	return &cp
}

// FinalScore returns the scoring stage result if the stage has run, else nil.
func (s *PipelineState) FinalScore() *FinalScoreResult {
	if data, ok := s.StageData(StageScoring).(*FinalScoreResult); ok {
		return data
	}
	return nil
}
