package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NoteRecord is the stored metadata for a vault note.
type NoteRecord struct {
	ID        string
	Title     string
	Category  string
	Path      string
	SizeBytes int64
	CreatedAt time.Time
}

type NoteRepository interface {
	Insert(ctx context.Context, rec *NoteRecord) error
	List(ctx context.Context, category string) ([]*NoteRecord, error)
}

type noteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewNoteRepository(db *sql.DB, logger *slog.Logger) NoteRepository {
	return &noteRepository{db: db, logger: logger}
}

func (r *noteRepository) Insert(ctx context.Context, rec *NoteRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, category, path, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.Category, rec.Path, rec.SizeBytes, rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert note record", "path", rec.Path, "error", err)
		return err
	}
	return nil
}

// List returns note metadata, newest first. An empty category matches all.
func (r *noteRepository) List(ctx context.Context, category string) ([]*NoteRecord, error) {
	const base = `SELECT id, title, category, path, size_bytes, created_at FROM notes`
	var (
		rows *sql.Rows
		err  error
	)
	if category != "" {
		rows, err = r.db.QueryContext(ctx, base+` WHERE category = ? ORDER BY created_at DESC`, category)
	} else {
		rows, err = r.db.QueryContext(ctx, base+` ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*NoteRecord
	for rows.Next() {
		rec := &NoteRecord{}
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Category, &rec.Path, &rec.SizeBytes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
