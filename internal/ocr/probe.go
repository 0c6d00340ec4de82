package ocr

import (
	"context"
	"time"
)

// Capabilities reports which external tools answered their version probes.
// Computed once at pipeline construction and cached for its lifetime.
type Capabilities struct {
	Tesseract bool
	Pdftotext bool
	Pdftoppm  bool
}

// OCR reports whether image OCR is possible. Rasterizing scanned PDF pages
// is part of the OCR path, so pdftoppm is required too.
func (c Capabilities) OCR() bool { return c.Tesseract && c.Pdftoppm }

// PDF reports whether the PDF text layer can be read.
func (c Capabilities) PDF() bool { return c.Pdftotext }

const probeTimeout = 10 * time.Second

// Probe checks each tool with its version flag. A failing probe degrades the
// pipeline to explicit capability failures instead of crashing later.
func (e *Engine) Probe(ctx context.Context) Capabilities {
	caps := Capabilities{
		Tesseract: e.probeTool(ctx, e.cfg.Tesseract, "--version"),
		Pdftotext: e.probeTool(ctx, e.cfg.Pdftotext, "-v"),
		Pdftoppm:  e.probeTool(ctx, e.cfg.Pdftoppm, "-v"),
	}
	if !caps.OCR() {
		e.logger.Warn("tesseract or pdftoppm not found - OCR functionality will be limited")
	}
	if !caps.PDF() {
		e.logger.Warn("pdftotext not found - PDF processing will be limited")
	}
	return caps
}

func (e *Engine) probeTool(ctx context.Context, name, versionFlag string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	_, _, err := e.runner.Run(ctx, name, versionFlag)
	if err != nil {
		e.logger.Debug("capability probe failed", "tool", name, "error", err)
		return false
	}
	return true
}
