package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/ocr"
)

const confidenceOCR = 0.8

// ImageExtractor OCRs image documents. OCR is a hard requirement here; a
// missing tool is a capability failure, never a silent empty string.
type ImageExtractor struct {
	engine    OCREngine
	available bool
	logger    *slog.Logger
}

func NewImageExtractor(engine OCREngine, available bool, logger *slog.Logger) *ImageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageExtractor{engine: engine, available: available, logger: logger}
}

func (x *ImageExtractor) Extract(ctx context.Context, path string) Result {
	if !x.available {
		return failure(FailureCapability, "OCR requires tesseract (install tesseract-ocr)")
	}

	txt, err := x.engine.OCRImage(ctx, path)
	if err != nil {
		return failure(FailureExtraction, fmt.Sprintf("OCR processing failed: %v", err))
	}
	txt = ocr.Normalize(txt)
	if strings.TrimSpace(txt) == "" {
		return failure(FailureExtraction, "OCR produced no text")
	}

	res := success(txt, constants.MethodTesseractOCR, confidenceOCR)
	res.Pages = 1
	return res
}
