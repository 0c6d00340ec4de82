package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/academicapex/strategist/constants"
)

// GenerationJob is one generation run, recorded whether it succeeded or not.
type GenerationJob struct {
	ID               string
	Kind             constants.GenerationKind
	Model            string
	Status           constants.JobStatus
	PromptTokens     int
	CompletionTokens int
	DurationMS       int64
	NotePath         string
	Error            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type GenerationJobRepository interface {
	Insert(ctx context.Context, job *GenerationJob) error
	UpdateStatus(ctx context.Context, id string, status constants.JobStatus, errMsg string) error
	Recent(ctx context.Context, limit int) ([]*GenerationJob, error)
}

type generationJobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewGenerationJobRepository(db *sql.DB, logger *slog.Logger) GenerationJobRepository {
	return &generationJobRepository{db: db, logger: logger}
}

func (r *generationJobRepository) Insert(ctx context.Context, job *GenerationJob) error {
	now := time.Now().UTC()
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = constants.JobStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO generation_jobs
		 (id, kind, model, status, prompt_tokens, completion_tokens, duration_ms, note_path, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Kind), job.Model, string(job.Status),
		job.PromptTokens, job.CompletionTokens, job.DurationMS,
		job.NotePath, job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert generation job", "id", job.ID, "error", err)
		return err
	}
	return nil
}

func (r *generationJobRepository) UpdateStatus(ctx context.Context, id string, status constants.JobStatus, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE generation_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error("failed to update generation job", "id", id, "error", err)
	}
	return err
}

func (r *generationJobRepository) Recent(ctx context.Context, limit int) ([]*GenerationJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, model, status, prompt_tokens, completion_tokens, duration_ms,
		        COALESCE(note_path, ''), COALESCE(error, ''), created_at, updated_at
		 FROM generation_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*GenerationJob
	for rows.Next() {
		job := &GenerationJob{}
		var kind, status string
		if err := rows.Scan(&job.ID, &kind, &job.Model, &status,
			&job.PromptTokens, &job.CompletionTokens, &job.DurationMS,
			&job.NotePath, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		job.Kind = constants.GenerationKind(kind)
		job.Status = constants.JobStatus(status)
		out = append(out, job)
	}
	return out, rows.Err()
}
