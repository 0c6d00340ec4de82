package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/llm"
	"github.com/academicapex/strategist/internal/llm/ollama"
	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/repository"
	"github.com/academicapex/strategist/internal/studygen"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		kind       = flag.String("kind", "quiz", "what to generate: quiz | study-plan | code")
		subject    = flag.String("subject", "", "subject for quiz/study-plan")
		difficulty = flag.String("difficulty", "intermediate", "beginner | intermediate | advanced")
		questions  = flag.Int("questions", 5, "number of quiz questions")
		structured = flag.Bool("structured", false, "request validated JSON quiz output")
		duration   = flag.String("duration", "1 week", "study plan duration")
		objectives = flag.String("objectives", "", "comma-separated learning objectives")
		moduleName = flag.String("module", "study_utils", "code module name")
		funcDesc   = flag.String("functionality", "", "what the code module should do")
		noCurate   = flag.Bool("no-curation", false, "skip the prompt curation pass")
		noNote     = flag.Bool("no-note", false, "print only, do not write a vault note")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client := ollama.NewClient(ollama.Config{
		BaseURL:        cfg.Ollama.BaseURL,
		Model:          cfg.Ollama.Model,
		MaxTokens:      cfg.Ollama.MaxTokens,
		Temperature:    cfg.Ollama.Temperature,
		AttemptTimeout: cfg.Ollama.AttemptTimeout,
		ProbeTimeout:   cfg.Ollama.ProbeTimeout,
		Retry:          llm.Policy{MaxAttempts: cfg.Ollama.MaxAttempts},
	}, logger)

	if !client.TestConnection(ctx) {
		printError("Error: generation backend not reachable at %s\n", cfg.Ollama.BaseURL)
		os.Exit(1)
	}

	var curator *llm.Curator
	if cfg.Curator.Enabled && !*noCurate {
		curator = llm.NewCurator(client, llm.CuratorConfig{
			Model:       cfg.Curator.Model,
			MaxTokens:   cfg.Curator.MaxTokens,
			Temperature: cfg.Curator.Temperature,
		}, logger)
	}

	var sink notes.Sink
	var noteRepo repository.NoteRepository
	var jobRepo repository.GenerationJobRepository
	if !*noNote {
		db, err := repository.Open(repository.Config{Path: cfg.Store.Path}, logger)
		if err != nil {
			printError("Error: failed to open store: %v\n", err)
			os.Exit(1)
		}
		defer repository.Close(db, logger)
		noteRepo = repository.NewNoteRepository(db, logger)
		jobRepo = repository.NewGenerationJobRepository(db, logger)

		vault, err := notes.NewVault(cfg.Vault.Path, logger)
		if err != nil {
			printError("Error: failed to set up vault: %v\n", err)
			os.Exit(1)
		}
		sink = vault
	}

	svc := studygen.NewService(client, curator, sink, noteRepo, jobRepo, logger)
	useCuration := curator != nil

	var out *studygen.Generated
	var err error
	switch *kind {
	case "quiz":
		out, err = svc.GenerateQuiz(ctx, studygen.QuizParams{
			Subject:      *subject,
			Difficulty:   *difficulty,
			NumQuestions: *questions,
			UseCuration:  useCuration,
			Structured:   *structured,
		})
	case "study-plan":
		var objs []string
		if *objectives != "" {
			objs = strings.Split(*objectives, ",")
		}
		out, err = svc.GenerateStudyPlan(ctx, studygen.StudyPlanParams{
			Subject:     *subject,
			Duration:    *duration,
			Difficulty:  *difficulty,
			Objectives:  objs,
			UseCuration: useCuration,
		})
	case "code":
		out, err = svc.GenerateCode(ctx, studygen.CodeParams{
			ModuleName:    *moduleName,
			Functionality: *funcDesc,
			IncludeTests:  true,
			UseCuration:   useCuration,
		})
	default:
		printError("Error: unknown kind %q (expected quiz, study-plan, or code)\n", *kind)
		os.Exit(1)
	}
	if err != nil {
		printError("Error: generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(out.Content)
	if out.Warning != "" {
		printError("Warning: %s\n", out.Warning)
	}
	if out.NotePath != "" {
		printError("Note saved: %s\n", out.NotePath)
	}
}
