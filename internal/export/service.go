package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/repository"
)

// Lister is the note index source. *notes.Vault satisfies it.
type Lister interface {
	ListNotes(category string) ([]notes.Note, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	vault  Lister
	jobs   repository.GenerationJobRepository
	logger *slog.Logger
}

func NewService(vault Lister, jobs repository.GenerationJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{vault: vault, jobs: jobs, logger: logger}
}

// ExportNotesXLSX returns an XLSX workbook (as bytes) indexing the vault's
// notes, optionally filtered by category, with recent generation jobs on a
// second sheet.
func (s *Service) ExportNotesXLSX(ctx context.Context, category string) ([]byte, error) {
	start := time.Now()

	list, err := s.vault.ListNotes(category)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Notes"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Filename",
		"Category",
		"Size (bytes)",
		"Modified",
		"Path",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, n := range list {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, n.Filename)
		write(2, n.Category)
		write(3, n.Size)
		write(4, n.Modified.Format("2006-01-02 15:04:05"))
		write(5, n.Path)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // filename
	_ = f.SetColWidth(sheet, "B", "B", 16) // category
	_ = f.SetColWidth(sheet, "C", "C", 14) // size
	_ = f.SetColWidth(sheet, "D", "D", 20) // modified
	_ = f.SetColWidth(sheet, "E", "E", 72) // path

	if err := s.appendJobsSheet(ctx, f); err != nil {
		// Jobs are supplementary; the notes index alone is still useful.
		s.logger.Warn("export.jobs_sheet_skipped", "error", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"category", category,
		"rows", len(list),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) appendJobsSheet(ctx context.Context, f *excelize.File) error {
	if s.jobs == nil {
		return nil
	}
	recent, err := s.jobs.Recent(ctx, 100)
	if err != nil {
		return err
	}

	const sheet = "Generation Jobs"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"ID", "Kind", "Model", "Status", "Completion Tokens", "Duration (ms)", "Error", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range recent {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, j.ID)
		write(2, string(j.Kind))
		write(3, j.Model)
		write(4, string(j.Status))
		write(5, j.CompletionTokens)
		write(6, j.DurationMS)
		write(7, truncate(j.Error, 140))
		write(8, j.CreatedAt.Format("2006-01-02 15:04:05"))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "G", "G", 48)
	return nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
