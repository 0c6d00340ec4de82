package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/academicapex/strategist/internal/async"
	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/core"
	"github.com/academicapex/strategist/internal/export"
	"github.com/academicapex/strategist/internal/ingest"
	"github.com/academicapex/strategist/internal/llm"
	"github.com/academicapex/strategist/internal/llm/ollama"
	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/ocr"
	"github.com/academicapex/strategist/internal/repository"
	"github.com/academicapex/strategist/internal/server"
	"github.com/academicapex/strategist/internal/studygen"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	db, err := repository.Open(repository.Config{Path: cfg.Store.Path}, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)
	if err := repository.HealthCheck(ctx, db, 3*time.Second, logger); err != nil {
		logger.Error("store health check failed", "error", err)
		os.Exit(1)
	}
	noteRepo := repository.NewNoteRepository(db, logger)
	jobRepo := repository.NewGenerationJobRepository(db, logger)

	// Vault
	vault, err := notes.NewVault(cfg.Vault.Path, logger)
	if err != nil {
		logger.Error("failed to set up vault", "error", err)
		os.Exit(1)
	}

	// Extraction pipeline
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

	// Generation backend
	client := ollama.NewClient(ollama.Config{
		BaseURL:        cfg.Ollama.BaseURL,
		Model:          cfg.Ollama.Model,
		MaxTokens:      cfg.Ollama.MaxTokens,
		Temperature:    cfg.Ollama.Temperature,
		AttemptTimeout: cfg.Ollama.AttemptTimeout,
		ProbeTimeout:   cfg.Ollama.ProbeTimeout,
		Retry:          llm.Policy{MaxAttempts: cfg.Ollama.MaxAttempts},
	}, logger)

	if client.TestConnection(ctx) {
		logger.Info("generation backend reachable", "host", cfg.Ollama.BaseURL, "models", client.ListModels(ctx))
	} else {
		logger.Warn("generation backend not reachable at startup", "host", cfg.Ollama.BaseURL)
	}

	var curator *llm.Curator
	if cfg.Curator.Enabled {
		curator = llm.NewCurator(client, llm.CuratorConfig{
			Model:       cfg.Curator.Model,
			MaxTokens:   cfg.Curator.MaxTokens,
			Temperature: cfg.Curator.Temperature,
		}, logger)
	}

	// Services
	sg := studygen.NewService(client, curator, vault, noteRepo, jobRepo, logger)
	processor := core.NewProcessor(logger, pipeline, vault, noteRepo)
	exporter := export.NewService(vault, jobRepo, logger)

	queue := async.NewIngestQueue(
		func(ctx context.Context, job async.Job) error {
			_, err := processor.ProcessDocument(ctx, job.Path)
			return err
		},
		logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(cfg.Ingest.ProcessTimeout),
	)

	api := server.NewServer(sg, pipeline, queue, vault, exporter, client, cfg.Curator.Enabled, cfg.Server.UploadDir, logger)

	httpSrv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown interrupted", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
