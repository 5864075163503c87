package pipeline

import (
	"errors"
	"fmt"

	"video-analyzer/core/models"
)

var (
	// ErrStageTimeout is returned when a stage attempt exceeds its timeout
	ErrStageTimeout = errors.New("stage timed out")

	// ErrNoSuchStage indicates a stage identifier outside the canonical
	// ordering. Programmer error, should not occur at runtime.
	ErrNoSuchStage = errors.New("no such stage")

	// ErrIngestionFailed aborts a run: nothing downstream can work without
	// a validated source.
	ErrIngestionFailed = errors.New("video ingestion failed")
)

// StageError wraps a stage handler's own error with the stage it came from
type StageError struct {
	Stage models.PipelineStage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
