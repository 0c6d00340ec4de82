package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/ocr"
)

const confidencePDF = 0.9

// pageState is the per-page fallback decision. Explicit states keep the
// page loop auditable and testable with a fake engine.
type pageState int

const (
	pageDirectText pageState = iota // text layer present
	pageNeedsOCR                    // scanned page, OCR available
	pageEmpty                       // scanned page, no OCR capability
)

// PDFExtractor reads the text layer page by page; scanned pages are
// rasterized one at a time and recursively fed through OCR. Page order is
// preserved and every page is prefixed with a provenance marker.
type PDFExtractor struct {
	text         PDFTextReader
	engine       OCREngine
	pdfAvailable bool
	ocrAvailable bool
	logger       *slog.Logger
}

func NewPDFExtractor(text PDFTextReader, engine OCREngine, pdfAvailable, ocrAvailable bool, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{
		text:         text,
		engine:       engine,
		pdfAvailable: pdfAvailable,
		ocrAvailable: ocrAvailable,
		logger:       logger,
	}
}

func classifyPage(text string, ocrAvailable bool) pageState {
	if strings.TrimSpace(text) != "" {
		return pageDirectText
	}
	if ocrAvailable {
		return pageNeedsOCR
	}
	return pageEmpty
}

func (x *PDFExtractor) Extract(ctx context.Context, path string) Result {
	if !x.pdfAvailable {
		return failure(FailureCapability, "PDF processing requires pdftotext (install poppler-utils)")
	}

	pages, err := x.text.PageTexts(ctx, path)
	if err != nil {
		return failure(FailureExtraction, fmt.Sprintf("PDF text extraction failed: %v", err))
	}

	var warnings []string
	if n, err := pageCount(path); err == nil && n != len(pages) {
		warnings = append(warnings, fmt.Sprintf("page count mismatch: text layer reported %d pages, document has %d", len(pages), n))
		if n > len(pages) {
			// trust the document; missing trailing pages behave as scanned
			for len(pages) < n {
				pages = append(pages, "")
			}
		}
	}

	var parts []string
	anyOCR := false
	for i, pg := range pages {
		n := i + 1
		switch classifyPage(pg, x.ocrAvailable) {
		case pageDirectText:
			parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", n, strings.TrimSpace(pg)))
		case pageNeedsOCR:
			txt, err := x.ocrPage(ctx, path, n)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("page %d OCR failed: %v", n, err))
				continue
			}
			if txt == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("--- Page %d (OCR) ---\n%s", n, txt))
			anyOCR = true
		case pageEmpty:
			warnings = append(warnings, fmt.Sprintf("page %d has no text layer and OCR is unavailable", n))
		}
	}

	full := strings.Join(parts, "\n\n")
	if strings.TrimSpace(full) == "" {
		return failure(FailureExtraction, "PDF contains no extractable text")
	}

	method := constants.MethodPDFText
	if anyOCR {
		method = constants.MethodPDFTextOCR
	}
	res := success(full, method, confidencePDF)
	res.Pages = len(pages)
	res.Warning = strings.Join(warnings, "; ")
	return res
}

// ocrPage rasterizes a single page into its own temp dir, OCRs the image,
// and removes the temp dir on every exit path before the next page runs.
func (x *PDFExtractor) ocrPage(ctx context.Context, pdfPath string, page int) (string, error) {
	dir, err := os.MkdirTemp("", "apex-page-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			x.logger.Warn("failed to remove temp dir", "dir", dir, "error", rerr)
		}
	}()

	img, err := x.engine.RasterizePage(ctx, pdfPath, page, dir)
	if err != nil {
		return "", err
	}
	txt, err := x.engine.OCRImage(ctx, img)
	if err != nil {
		return "", err
	}
	return ocr.Normalize(txt), nil
}

// pageCount cross-checks the form-feed page split against the document's
// page tree.
func pageCount(path string) (int, error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}
