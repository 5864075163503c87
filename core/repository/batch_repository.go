package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"video-analyzer/core/models"
)

// BatchRepository handles database operations for batch jobs
type BatchRepository struct {
	db *DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateBatch inserts the batch row and its items in one transaction
func (r *BatchRepository) CreateBatch(job *models.BatchJob) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO batches (id, status, total_count, config, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(query, job.BatchID, job.Status, job.TotalCount, configJSON, job.CreatedAt); err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO batch_items (batch_id, video_id, status)
		VALUES ($1, $2, $3)
	`
	for _, item := range job.Videos {
		if _, err := tx.Exec(itemQuery, job.BatchID, item.VideoID, item.Status); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveBatch persists the batch counters, status, and all item states
func (r *BatchRepository) SaveBatch(job *models.BatchJob) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE batches
		SET status = $1, analyzed_count = $2, processed_count = $3,
			failed_count = $4, output_folder = $5, started_at = $6, completed_at = $7
		WHERE id = $8
	`
	_, err = tx.Exec(query,
		job.Status,
		job.AnalyzedCount,
		job.ProcessedCount,
		job.FailedCount,
		nullString(job.OutputFolder),
		job.StartedAt,
		job.CompletedAt,
		job.BatchID,
	)
	if err != nil {
		return err
	}

	itemQuery := `
		UPDATE batch_items
		SET title = $1, status = $2, score = $3, processed_path = $4, error = $5, updated_at = now()
		WHERE batch_id = $6 AND video_id = $7
	`
	for _, item := range job.Videos {
		_, err := tx.Exec(itemQuery,
			nullString(item.Title),
			item.Status,
			item.Score,
			nullString(item.ProcessedPath),
			nullString(item.Error),
			job.BatchID,
			item.VideoID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// BatchRecord is the persisted view of a batch job
type BatchRecord struct {
	BatchID        string
	Status         models.BatchStatus
	TotalCount     int
	AnalyzedCount  int
	ProcessedCount int
	FailedCount    int
	OutputFolder   string
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// GetBatch retrieves a batch by ID. Returns (nil, nil) when not found.
func (r *BatchRepository) GetBatch(batchID string) (*BatchRecord, error) {
	query := `
		SELECT id, status, total_count, analyzed_count, processed_count,
			failed_count, output_folder, created_at, started_at, completed_at
		FROM batches
		WHERE id = $1
	`

	var rec BatchRecord
	var outputFolder sql.NullString
	var startedAt, completedAt sql.NullTime

	err := r.db.QueryRow(query, batchID).Scan(
		&rec.BatchID,
		&rec.Status,
		&rec.TotalCount,
		&rec.AnalyzedCount,
		&rec.ProcessedCount,
		&rec.FailedCount,
		&outputFolder,
		&rec.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.OutputFolder = outputFolder.String
	if startedAt.Valid {
		rec.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
