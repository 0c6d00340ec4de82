package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/academicapex/strategist/constants"
)

// Fixed per-method confidences. Deliberately constants, not derived from
// decoder or OCR statistics.
const (
	confidenceDirectText  = 1.0
	confidenceFallbackEnc = 0.9
)

// TextExtractor decodes plain-text documents: UTF-8 first, then a fixed
// ladder of legacy encodings at reduced confidence.
type TextExtractor struct {
	logger *slog.Logger
}

func NewTextExtractor(logger *slog.Logger) *TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExtractor{logger: logger}
}

type fallbackEncoding struct {
	name    string
	decoder *encoding.Decoder
}

func (t *TextExtractor) Extract(_ context.Context, path string) Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		return failure(FailureExtraction, fmt.Sprintf("read file: %v", err))
	}

	if utf8.Valid(raw) {
		return success(string(raw), constants.MethodDirectText, confidenceDirectText)
	}

	ladder := []fallbackEncoding{
		{"latin-1", charmap.ISO8859_1.NewDecoder()},
		{"cp1252", charmap.Windows1252.NewDecoder()},
	}
	for _, enc := range ladder {
		decoded, err := enc.decoder.Bytes(raw)
		if err != nil {
			continue
		}
		t.logger.Debug("decoded with fallback encoding", "path", path, "encoding", enc.name)
		res := success(string(decoded), constants.MethodTextEncoding(enc.name), confidenceFallbackEnc)
		res.Warning = fmt.Sprintf("Used %s encoding", enc.name)
		return res
	}

	return failure(FailureEncoding, "unable to decode text file with any supported encoding")
}
