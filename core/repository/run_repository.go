package repository

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"video-analyzer/core/models"
)

// RunRepository handles database operations for analysis runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// RunRecord is the persisted view of a pipeline run
type RunRecord struct {
	ID           string
	VideoURL     string
	Status       models.PipelineStatus
	CurrentStage *string
	Progress     float64
	FinalScore   *float64
	Grade        *string
	Error        *string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// CreateRun inserts a new run row
func (r *RunRepository) CreateRun(jobID, videoURL string) error {
	query := `
		INSERT INTO analysis_runs (id, video_url, status, progress, started_at)
		VALUES ($1, $2, $3, 0, $4)
	`
	_, err := r.db.Exec(query, jobID, videoURL, models.PipelineStatusRunning, time.Now())
	return err
}

// SaveState persists the current pipeline state and appends a stage event
// for the most recent outcome inside one transaction.
func (r *RunRepository) SaveState(state *models.PipelineState, latest *models.StageOutcome) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var currentStage *string
	if state.CurrentStage != nil {
		s := string(*state.CurrentStage)
		currentStage = &s
	}

	var finalScore *float64
	var grade *string
	if score := state.FinalScore(); score != nil {
		finalScore = &score.FinalScore
		grade = &score.Grade
	}

	var errMsg *string
	if state.Error != "" {
		errMsg = &state.Error
	}

	resultsJSON, err := json.Marshal(state.Results)
	if err != nil {
		return err
	}

	query := `
		UPDATE analysis_runs
		SET status = $1, current_stage = $2, progress = $3, final_score = $4,
			grade = $5, results = $6, error = $7, finished_at = $8, updated_at = now()
		WHERE id = $9
	`
	_, err = tx.Exec(query,
		state.Status,
		currentStage,
		state.Progress,
		finalScore,
		grade,
		resultsJSON,
		errMsg,
		state.EndTime,
		state.JobID,
	)
	if err != nil {
		return err
	}

	if latest != nil {
		var stageErr *string
		if latest.Error != "" {
			stageErr = &latest.Error
		}
		eventQuery := `
			INSERT INTO analysis_stage_events (run_id, stage, success, duration_ms, error)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.Exec(eventQuery, state.JobID, latest.Stage, latest.Success, latest.Duration.Milliseconds(), stageErr); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID. Returns (nil, nil) when not found.
func (r *RunRepository) GetRun(jobID string) (*RunRecord, error) {
	query := `
		SELECT id, video_url, status, current_stage, progress, final_score, grade, error, started_at, finished_at
		FROM analysis_runs
		WHERE id = $1
	`

	var rec RunRecord
	var currentStage, grade, errMsg sql.NullString
	var finalScore sql.NullFloat64
	var finishedAt sql.NullTime

	err := r.db.QueryRow(query, jobID).Scan(
		&rec.ID,
		&rec.VideoURL,
		&rec.Status,
		&currentStage,
		&rec.Progress,
		&finalScore,
		&grade,
		&errMsg,
		&rec.StartedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if currentStage.Valid {
		rec.CurrentStage = &currentStage.String
	}
	if finalScore.Valid {
		rec.FinalScore = &finalScore.Float64
	}
	if grade.Valid {
		rec.Grade = &grade.String
	}
	if errMsg.Valid {
		rec.Error = &errMsg.String
	}
	if finishedAt.Valid {
		rec.FinishedAt = &finishedAt.Time
	}

	return &rec, nil
}

// ListRuns returns the most recent runs, optionally filtered by status
func (r *RunRepository) ListRuns(status *models.PipelineStatus, limit int) ([]*RunRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, video_url, status, current_stage, progress, final_score, grade, error, started_at, finished_at
		FROM analysis_runs
	`
	args := []interface{}{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY started_at DESC LIMIT " + strconv.Itoa(limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var currentStage, grade, errMsg sql.NullString
		var finalScore sql.NullFloat64
		var finishedAt sql.NullTime

		if err := rows.Scan(
			&rec.ID, &rec.VideoURL, &rec.Status, &currentStage, &rec.Progress,
			&finalScore, &grade, &errMsg, &rec.StartedAt, &finishedAt,
		); err != nil {
			return nil, err
		}

		if currentStage.Valid {
			rec.CurrentStage = &currentStage.String
		}
		if finalScore.Valid {
			rec.FinalScore = &finalScore.Float64
		}
		if grade.Valid {
			rec.Grade = &grade.String
		}
		if errMsg.Valid {
			rec.Error = &errMsg.String
		}
		if finishedAt.Valid {
			rec.FinishedAt = &finishedAt.Time
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
