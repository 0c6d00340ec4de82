package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/ocr"
)

// Config holds pipeline limits.
type Config struct {
	MaxFileBytes int64 // default constants.MaxDocumentBytes
}

// Pipeline dispatches documents to the extractor registered for their kind
// and annotates results with timing and file metadata. Calls are independent
// and share no mutable state; concurrent Process calls are safe.
type Pipeline struct {
	cfg        Config
	caps       ocr.Capabilities
	extractors map[constants.DocumentKind]Extractor
	logger     *slog.Logger
}

// New probes the environment once through the engine and registers one
// extractor per supported kind.
func New(ctx context.Context, cfg Config, engine *ocr.Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	caps := engine.Probe(ctx)
	return newWithParts(cfg, caps, map[constants.DocumentKind]Extractor{
		constants.KindText:  NewTextExtractor(logger),
		constants.KindImage: NewImageExtractor(engine, caps.OCR(), logger),
		constants.KindPDF:   NewPDFExtractor(engine, engine, caps.PDF(), caps.OCR(), logger),
	}, logger)
}

func newWithParts(cfg Config, caps ocr.Capabilities, extractors map[constants.DocumentKind]Extractor, logger *slog.Logger) *Pipeline {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = constants.MaxDocumentBytes
	}
	return &Pipeline{cfg: cfg, caps: caps, extractors: extractors, logger: logger}
}

// Capabilities reports the cached environment probes.
func (p *Pipeline) Capabilities() ocr.Capabilities { return p.caps }

// Validate checks a document before any extractor runs: existence, regular
// file, supported kind, and the hard size ceiling.
func (p *Pipeline) Validate(path string) Validation {
	st, err := os.Stat(path)
	if err != nil {
		return Validation{Valid: false, Reason: "file does not exist"}
	}
	if !st.Mode().IsRegular() {
		return Validation{Valid: false, Reason: "path is not a regular file"}
	}

	ext := filepath.Ext(path)
	kind := constants.MapExtToKind(ext)
	if kind == constants.KindUnsupported {
		return Validation{
			Valid:  false,
			Reason: fmt.Sprintf("unsupported file type: %s", constants.ContentTypeForExt(ext)),
		}
	}

	if st.Size() > p.cfg.MaxFileBytes {
		return Validation{
			Valid: false,
			Reason: fmt.Sprintf("file too large: %.1fMB (max: %dMB)",
				float64(st.Size())/(1024*1024), p.cfg.MaxFileBytes/(1024*1024)),
		}
	}

	return Validation{
		Valid:       true,
		Kind:        kind,
		ContentType: constants.ContentTypeForExt(ext),
		Size:        st.Size(),
	}
}

// Process validates, extracts, and annotates one document. It always returns
// a Result, never an error.
func (p *Pipeline) Process(ctx context.Context, path string) Result {
	start := time.Now()

	v := p.Validate(path)
	if !v.Valid {
		res := failure(FailureValidation, v.Reason)
		res.Duration = time.Since(start)
		p.logger.Warn("document rejected", "path", path, "reason", v.Reason)
		return res
	}

	ex, ok := p.extractors[v.Kind]
	if !ok {
		res := failure(FailureValidation, fmt.Sprintf("no extractor for kind %s", v.Kind))
		res.Duration = time.Since(start)
		return res
	}

	res := ex.Extract(ctx, path)
	res.Duration = time.Since(start)
	res.FileSize = v.Size
	res.ContentType = v.ContentType

	if res.Success {
		p.logger.Info("document processed",
			"path", filepath.Base(path),
			"method", res.Method,
			"chars", res.TextLength,
			"confidence", res.Confidence,
			"elapsed_ms", res.Duration.Milliseconds(),
		)
	} else {
		p.logger.Warn("document processing failed",
			"path", filepath.Base(path),
			"failure", string(res.FailureKind),
			"error", res.Error,
		)
	}
	return res
}
