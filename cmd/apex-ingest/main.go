package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/core"
	"github.com/academicapex/strategist/internal/ingest"
	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/ocr"
	"github.com/academicapex/strategist/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to ingest documents from (required)")
		dryRun  = flag.Bool("dry-run", false, "extract only, do not write notes")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	engine := ocr.NewEngine(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		Timeout:       cfg.OCR.Timeout,
	}, nil, logger)
	pipeline := ingest.New(ctx, ingest.Config{MaxFileBytes: cfg.Ingest.MaxFileBytes}, engine, logger)

	var processor *core.Processor
	if !*dryRun {
		db, err := repository.Open(repository.Config{Path: cfg.Store.Path}, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer repository.Close(db, logger)

		vault, err := notes.NewVault(cfg.Vault.Path, logger)
		if err != nil {
			logger.Error("failed to set up vault", "error", err)
			os.Exit(1)
		}
		processor = core.NewProcessor(logger, pipeline, vault, repository.NewNoteRepository(db, logger))
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	// One bad document must not stop the batch.
	var processed, failed, skipped int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(*dir, entry.Name())
		if constants.MapExtToKind(filepath.Ext(path)) == constants.KindUnsupported {
			skipped++
			continue
		}

		if *dryRun {
			res := pipeline.Process(ctx, path)
			if res.Success {
				logger.Info("extracted", "file", entry.Name(), "method", res.Method, "chars", res.TextLength, "confidence", res.Confidence)
				processed++
			} else {
				logger.Error("extraction failed", "file", entry.Name(), "failure", string(res.FailureKind), "error", res.Error)
				failed++
			}
			continue
		}

		if _, err := processor.ProcessDocument(ctx, path); err != nil {
			logger.Error("failed to process document", "file", entry.Name(), "error", err)
			failed++
		} else {
			processed++
		}
	}

	logger.Info("batch ingestion complete",
		"processed", processed,
		"failed", failed,
		"skipped", skipped,
	)
	if processed == 0 && failed > 0 {
		os.Exit(1)
	}
}
