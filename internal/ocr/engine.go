package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config configures the external extraction tools.
type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned pages, default 300
	PSM           int    // page segmentation mode; 3 = fully automatic
	OEM           int    // engine mode; 3 = LSTM + legacy

	Timeout time.Duration // per tool invocation, default 45s
}

// Engine wraps the OCR and PDF command-line tools behind context-aware calls.
// It holds no per-call state; concurrent use is safe.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 3
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

func (e *Engine) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	return e.runner.Run(ctx, name, args...)
}

// OCRImage runs tesseract over a single image and returns the raw text.
func (e *Engine) OCRImage(ctx context.Context, path string) (string, error) {
	args := []string{
		path, "stdout",
		"-l", e.cfg.TesseractLang,
		"--psm", strconv.Itoa(e.cfg.PSM),
		"--oem", strconv.Itoa(e.cfg.OEM),
	}
	out, errb, err := e.run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// PageTexts reads the embedded text layer of a PDF, one string per page.
// pdftotext separates pages with a form feed.
func (e *Engine) PageTexts(ctx context.Context, path string) ([]string, error) {
	out, errb, err := e.run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w (%s)", err, truncate(string(errb), 512))
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext terminates the last page with a form feed
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

// RasterizePage renders a single PDF page to a PNG under destDir and returns
// its path. The caller owns destDir and its cleanup.
func (e *Engine) RasterizePage(ctx context.Context, pdfPath string, page int, destDir string) (string, error) {
	prefix := filepath.Join(destDir, "page")
	p := strconv.Itoa(page)
	_, errb, err := e.run(ctx, e.cfg.Pdftoppm,
		"-f", p, "-l", p,
		"-r", strconv.Itoa(e.cfg.DPI),
		"-png", pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no image for page %d", page)
	}
	return matches[0], nil
}
