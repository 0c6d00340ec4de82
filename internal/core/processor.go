package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/ingest"
	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/repository"
)

// Processor coordinates extraction then note persistence for uploaded
// documents. The queue workers call ProcessDocument.
type Processor struct {
	logger   *slog.Logger
	pipeline *ingest.Pipeline
	sink     notes.Sink
	noteRepo repository.NoteRepository
}

func NewProcessor(
	logger *slog.Logger,
	pipeline *ingest.Pipeline,
	sink notes.Sink,
	noteRepo repository.NoteRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:   logger,
		pipeline: pipeline,
		sink:     sink,
		noteRepo: noteRepo,
	}
}

// ProcessDocument extracts text from the document at path and files it as a
// vault note under the documents category. The extraction result itself never
// errors; only a failed extraction or a failed note write surfaces here.
func (p *Processor) ProcessDocument(ctx context.Context, path string) (notes.Location, error) {
	start := time.Now()

	res := p.pipeline.Process(ctx, path)
	if !res.Success {
		p.logger.Error("processor.extract.failed",
			"path", filepath.Base(path),
			"failure", string(res.FailureKind),
			"error", res.Error,
		)
		return notes.Location{}, common.Tag(common.ErrExtraction, res.Error, nil)
	}

	title := noteTitle(path)
	body := documentNoteBody(path, res)

	loc, err := p.sink.CreateNote(ctx, title, body, string(constants.Document))
	if err != nil {
		p.logger.Error("processor.note.failed", "path", filepath.Base(path), "error", err)
		return notes.Location{}, err
	}

	if p.noteRepo != nil {
		rec := &repository.NoteRecord{
			Title:     title,
			Category:  loc.Category,
			Path:      loc.Path,
			SizeBytes: int64(loc.Size),
			CreatedAt: loc.Created,
		}
		if err := p.noteRepo.Insert(ctx, rec); err != nil {
			p.logger.Warn("processor.note_record_failed", "path", loc.Path, "error", err)
		}
	}

	p.logger.Info("processor.document.ok",
		"path", filepath.Base(path),
		"method", res.Method,
		"confidence", res.Confidence,
		"chars", res.TextLength,
		"note_path", loc.Path,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return loc, nil
}

func noteTitle(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "_", " ")
	return "Document: " + strings.TrimSpace(name)
}

// documentNoteBody prefixes the extracted text with its provenance so a
// reader can judge how much to trust it.
func documentNoteBody(path string, res ingest.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Source:** %s\n", filepath.Base(path))
	fmt.Fprintf(&b, "**Extraction method:** %s\n", res.Method)
	fmt.Fprintf(&b, "**Confidence:** %.1f\n", res.Confidence)
	if res.Pages > 0 {
		fmt.Fprintf(&b, "**Pages:** %d\n", res.Pages)
	}
	if res.Warning != "" {
		fmt.Fprintf(&b, "**Warning:** %s\n", res.Warning)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(res.Text)
	return b.String()
}
