package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"video-analyzer/core/models"
)

// LocalExporter writes analysis reports to the local filesystem. Used when
// no S3 bucket is configured.
type LocalExporter struct {
	dir string
}

func NewLocalExporter(dir string) *LocalExporter {
	return &LocalExporter{dir: dir}
}

// ExportReport writes the run state as JSON under the export directory and
// returns the file path.
func (e *LocalExporter) ExportReport(ctx context.Context, jobID string, state *models.PipelineState) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	body, err := json.MarshalIndent(exportPayload(jobID, state), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	path := filepath.Join(e.dir, jobID+".json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
