package ingest

import (
	"context"
	"time"

	"github.com/academicapex/strategist/constants"
)

// FailureKind classifies why an extraction did not produce text.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureCapability FailureKind = "capability_missing"
	FailureExtraction FailureKind = "extraction"
	FailureEncoding   FailureKind = "encoding"
)

// Result is the structured outcome of processing one document. The pipeline
// never raises across its boundary: failures are Results too, so a batch can
// continue past a bad document.
//
// Invariants: Success == false implies Text == ""; Success == true implies
// TextLength == len(Text).
type Result struct {
	Success    bool
	Text       string
	TextLength int
	Confidence float32
	Method     string
	Pages      int
	Warning    string

	Error       string
	FailureKind FailureKind

	// Annotated by the pipeline after the extractor returns.
	ContentType string
	FileSize    int64
	Duration    time.Duration
}

// Validation is the outcome of pre-extraction document checks.
type Validation struct {
	Valid       bool
	Reason      string
	Kind        constants.DocumentKind
	ContentType string
	Size        int64
}

// Extractor turns one document kind into text. Exactly one extractor is
// registered per kind; fallback chains live inside extractors, not here.
type Extractor interface {
	Extract(ctx context.Context, path string) Result
}

// OCREngine is what extractors need from the OCR layer.
type OCREngine interface {
	OCRImage(ctx context.Context, path string) (string, error)
	RasterizePage(ctx context.Context, pdfPath string, page int, destDir string) (string, error)
}

// PDFTextReader reads the embedded text layer of a PDF, one string per page.
type PDFTextReader interface {
	PageTexts(ctx context.Context, path string) ([]string, error)
}

func failure(kind FailureKind, msg string) Result {
	return Result{Success: false, Error: msg, FailureKind: kind}
}

func success(text, method string, confidence float32) Result {
	return Result{
		Success:    true,
		Text:       text,
		TextLength: len(text),
		Confidence: confidence,
		Method:     method,
	}
}
