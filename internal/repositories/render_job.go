package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// RenderJobRepository records render submissions and their last polled status.
type RenderJobRepository struct {
	db *sql.DB
}

// NewRenderJobRepository creates a new RenderJobRepository with the given database connection
func NewRenderJobRepository(db *sql.DB) *RenderJobRepository {
	return &RenderJobRepository{db: db}
}

const renderJobColumns = `id, project_id, status, url, message, attempts, created_at, updated_at`

// Save inserts the job for projectID or updates its status when it already exists.
func (r *RenderJobRepository) Save(projectID string, job models.RenderJob) (*models.RenderRecord, error) {
	if job.ProjectID == "" {
		return nil, fmt.Errorf("%w: render job id is required", shared.ErrMissingArgument)
	}
	if job.Status == "" {
		job.Status = models.StatusProcessing
	}

	now := time.Now()
	_, err := r.db.Exec(`
		INSERT INTO render_jobs (id, project_id, status, url, message, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			url = excluded.url,
			message = excluded.message,
			attempts = excluded.attempts,
			updated_at = excluded.updated_at
	`, job.ProjectID, projectID, string(job.Status), job.URL, job.Message, job.Attempts, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save render job: %w", err)
	}

	return r.Get(job.ProjectID)
}

// Get retrieves a render job by its provider id
func (r *RenderJobRepository) Get(jobID string) (*models.RenderRecord, error) {
	row := r.db.QueryRow(`SELECT `+renderJobColumns+` FROM render_jobs WHERE id = ?`, jobID)
	return scanRenderJob(row)
}

// ListByProject returns the jobs of projectID, newest first.
func (r *RenderJobRepository) ListByProject(projectID string) ([]*models.RenderRecord, error) {
	rows, err := r.db.Query(`SELECT `+renderJobColumns+` FROM render_jobs WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query render jobs: %w", err)
	}
	defer rows.Close()

	var records []*models.RenderRecord
	for rows.Next() {
		record, err := scanRenderJob(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

func scanRenderJob(row scanner) (*models.RenderRecord, error) {
	var (
		record models.RenderRecord
		status string
	)

	err := row.Scan(
		&record.ProjectID,
		&record.DraftID,
		&status,
		&record.URL,
		&record.Message,
		&record.Attempts,
		&record.Created,
		&record.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan render job: %w", err)
	}

	record.Status = models.JobStatus(status)
	return &record, nil
}
