package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysisSpec(t *testing.T) {
	specYAML := `
analysis:
  video_url: https://www.youtube.com/watch?v=abc123
  limits:
    max_duration: 1800
    min_score: 7.5
  processing:
    auto_process: true
    target_platform: youtube
    skip_export: true
`
	cfg, err := ParseAnalysisSpec(specYAML)
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", cfg.VideoURL)
	assert.Equal(t, 1800, cfg.MaxDuration)
	assert.Equal(t, 7.5, cfg.MinScore)
	assert.False(t, cfg.SkipProcessing)
	assert.True(t, cfg.SkipExport)
	assert.Equal(t, "youtube", cfg.TargetPlatform)
}

func TestParseAnalysisSpec_Defaults(t *testing.T) {
	cfg, err := ParseAnalysisSpec("analysis:\n  video_url: https://youtu.be/x\n")
	require.NoError(t, err)

	assert.Equal(t, "tiktok", cfg.TargetPlatform)
	assert.True(t, cfg.SkipProcessing, "processing stays off unless auto_process is set")
	assert.False(t, cfg.SkipExport)
}

func TestParseAnalysisSpec_MissingURL(t *testing.T) {
	_, err := ParseAnalysisSpec("analysis:\n  limits:\n    max_duration: 600\n")
	assert.ErrorContains(t, err, "video_url is required")
}

func TestParseAnalysisSpec_InvalidYAML(t *testing.T) {
	_, err := ParseAnalysisSpec("analysis: [unbalanced")
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestParseBatchSpec(t *testing.T) {
	specYAML := `
analysis:
  videos:
    - vid1
    - vid2
    - vid3
  limits:
    min_score: 6.5
  processing:
    auto_process: true
`
	ids, cfg, err := ParseBatchSpec(specYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"vid1", "vid2", "vid3"}, ids)
	assert.True(t, cfg.AutoProcess)
	assert.Equal(t, 6.5, cfg.MinScore)
	assert.Equal(t, "tiktok", cfg.TargetPlatform)
}

func TestParseBatchSpec_NoVideos(t *testing.T) {
	_, _, err := ParseBatchSpec("analysis:\n  video_url: https://youtu.be/x\n")
	assert.ErrorContains(t, err, "at least one video")
}
