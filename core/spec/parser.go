package spec

import (
	"fmt"

	"video-analyzer/core/models"

	"gopkg.in/yaml.v3"
)

// AnalysisSpec represents the YAML analysis specification
type AnalysisSpec struct {
	Analysis AnalysisSpecBody `yaml:"analysis"`
}

// AnalysisSpecBody represents the analysis section of the spec
type AnalysisSpecBody struct {
	VideoURL   string              `yaml:"video_url"`
	Videos     []string            `yaml:"videos,omitempty"`
	Limits     AnalysisSpecLimits  `yaml:"limits"`
	Processing AnalysisSpecProcess `yaml:"processing"`
}

// AnalysisSpecLimits represents validation limits
type AnalysisSpecLimits struct {
	MaxDuration int     `yaml:"max_duration"` // seconds
	MinScore    float64 `yaml:"min_score"`
}

// AnalysisSpecProcess represents phase-2 processing options
type AnalysisSpecProcess struct {
	AutoProcess    bool   `yaml:"auto_process"`
	TargetPlatform string `yaml:"target_platform"`
	SkipExport     bool   `yaml:"skip_export"`
}

// ParseAnalysisSpec parses a YAML analysis specification into a pipeline
// config for a single video run.
func ParseAnalysisSpec(specYAML string) (*models.PipelineConfig, error) {
	var spec AnalysisSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if spec.Analysis.VideoURL == "" {
		return nil, fmt.Errorf("analysis.video_url is required")
	}

	cfg := &models.PipelineConfig{
		VideoURL:       spec.Analysis.VideoURL,
		MaxDuration:    spec.Analysis.Limits.MaxDuration,
		MinScore:       spec.Analysis.Limits.MinScore,
		SkipProcessing: !spec.Analysis.Processing.AutoProcess,
		SkipExport:     spec.Analysis.Processing.SkipExport,
		TargetPlatform: spec.Analysis.Processing.TargetPlatform,
	}

	// Set defaults
	if cfg.TargetPlatform == "" {
		cfg.TargetPlatform = "tiktok"
	}

	return cfg, nil
}

// ParseBatchSpec parses a YAML analysis specification into a batch request
func ParseBatchSpec(specYAML string) ([]string, *models.BatchConfig, error) {
	var spec AnalysisSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(spec.Analysis.Videos) == 0 {
		return nil, nil, fmt.Errorf("analysis.videos must list at least one video")
	}

	cfg := &models.BatchConfig{
		AutoProcess:    spec.Analysis.Processing.AutoProcess,
		TargetPlatform: spec.Analysis.Processing.TargetPlatform,
		MinScore:       spec.Analysis.Limits.MinScore,
	}
	if cfg.TargetPlatform == "" {
		cfg.TargetPlatform = "tiktok"
	}

	return spec.Analysis.Videos, cfg, nil
}
