package studygen

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/llm"
	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/repository"
)

// Per-kind generation tuning. Code runs coolest so output stays runnable.
var tuning = map[constants.GenerationKind]struct {
	maxTokens   int
	temperature float32
}{
	constants.GenQuiz:      {2000, 0.6},
	constants.GenStudyPlan: {2500, 0.5},
	constants.GenCode:      {3000, 0.3},
}

// Generated is the outcome of one generation run.
type Generated struct {
	Content    string
	Kind       constants.GenerationKind
	Model      string
	NotePath   string
	JobID      string
	Structured bool   // true when the structured quiz JSON validated
	Quiz       *StructuredQuiz
	Warning    string
	Tokens     int
	Duration   time.Duration
}

// Service orchestrates prompt building, optional curation, generation, and
// note persistence.
type Service struct {
	gen      llm.Generator
	curator  *llm.Curator // nil disables curation entirely
	sink     notes.Sink
	noteRepo repository.NoteRepository
	jobs     repository.GenerationJobRepository
	logger   *slog.Logger
}

func NewService(gen llm.Generator, curator *llm.Curator, sink notes.Sink,
	noteRepo repository.NoteRepository, jobs repository.GenerationJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gen:      gen,
		curator:  curator,
		sink:     sink,
		noteRepo: noteRepo,
		jobs:     jobs,
		logger:   logger,
	}
}

// GenerateQuiz builds a quiz. In structured mode it asks for JSON and falls
// back to the raw markdown content when the payload does not validate.
func (s *Service) GenerateQuiz(ctx context.Context, p QuizParams) (*Generated, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	prompt := buildQuizPrompt(p)
	if p.Structured {
		prompt = buildStructuredQuizPrompt(p)
	}
	prompt = s.maybeCurate(ctx, prompt, curateQuizInstruction, p.UseCuration)

	s.logger.Info("studygen.quiz.start",
		"subject", p.Subject,
		"difficulty", p.Difficulty,
		"questions", p.NumQuestions,
		"structured", p.Structured,
	)

	out, err := s.run(ctx, constants.GenQuiz, prompt)
	if err != nil {
		return nil, err
	}

	if p.Structured {
		quiz, perr := parseStructuredQuiz(out.Content)
		if perr != nil {
			out.Warning = "structured quiz payload invalid, kept raw content: " + perr.Error()
			s.logger.Warn("studygen.quiz.structured_fallback", "subject", p.Subject, "error", perr)
		} else {
			out.Structured = true
			out.Quiz = quiz
			out.Content = quiz.Markdown()
		}
	}

	s.saveNote(ctx, out, "Quiz: "+p.Subject, string(constants.Quiz))
	return out, nil
}

// GenerateStudyPlan builds a study plan note.
func (s *Service) GenerateStudyPlan(ctx context.Context, p StudyPlanParams) (*Generated, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	prompt := buildStudyPlanPrompt(p)
	prompt = s.maybeCurate(ctx, prompt, curateStudyPlanInstruction, p.UseCuration)

	s.logger.Info("studygen.study_plan.start",
		"subject", p.Subject,
		"duration", p.Duration,
		"difficulty", p.Difficulty,
	)

	out, err := s.run(ctx, constants.GenStudyPlan, prompt)
	if err != nil {
		return nil, err
	}
	s.saveNote(ctx, out, "Study Plan: "+p.Subject, string(constants.StudyPlan))
	return out, nil
}

// GenerateCode builds a code module note.
func (s *Service) GenerateCode(ctx context.Context, p CodeParams) (*Generated, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	prompt := buildCodePrompt(p)
	prompt = s.maybeCurate(ctx, prompt, curateCodeInstruction, p.UseCuration)

	s.logger.Info("studygen.code.start", "module_name", p.ModuleName)

	out, err := s.run(ctx, constants.GenCode, prompt)
	if err != nil {
		return nil, err
	}
	s.saveNote(ctx, out, "Code Module: "+p.ModuleName, string(constants.Code))
	return out, nil
}

func (s *Service) maybeCurate(ctx context.Context, prompt, instruction string, enabled bool) string {
	if !enabled || s.curator == nil {
		return prompt
	}
	return s.curator.Curate(ctx, prompt, instruction)
}

func (s *Service) run(ctx context.Context, kind constants.GenerationKind, prompt string) (*Generated, error) {
	t := tuning[kind]

	res, err := s.gen.Generate(ctx, llm.GenerationRequest{
		Prompt:      prompt,
		MaxTokens:   t.maxTokens,
		Temperature: t.temperature,
	})

	job := &repository.GenerationJob{
		Kind:  kind,
		Model: res.Model,
	}
	if err != nil {
		job.Status = constants.JobStatusFailed
		job.Error = err.Error()
		s.recordJob(ctx, job)
		return nil, err
	}
	job.Status = constants.JobStatusSucceeded
	job.PromptTokens = res.PromptTokens
	job.CompletionTokens = res.CompletionTokens
	job.DurationMS = res.Duration.Milliseconds()
	s.recordJob(ctx, job)

	return &Generated{
		Content:  strings.TrimSpace(res.Text),
		Kind:     kind,
		Model:    res.Model,
		JobID:    job.ID,
		Tokens:   res.CompletionTokens,
		Duration: res.Duration,
	}, nil
}

// saveNote is best effort. Generation already succeeded; a sink or store
// problem must not discard the content, so failures become warnings.
func (s *Service) saveNote(ctx context.Context, out *Generated, title, category string) {
	if s.sink == nil {
		return
	}
	loc, err := s.sink.CreateNote(ctx, title, out.Content, category)
	if err != nil {
		s.logger.Warn("studygen.note_save_failed", "title", title, "error", err)
		if out.Warning != "" {
			out.Warning += "; "
		}
		out.Warning += "note not saved: " + err.Error()
		return
	}
	out.NotePath = loc.Path

	if s.noteRepo != nil {
		rec := &repository.NoteRecord{
			Title:     title,
			Category:  loc.Category,
			Path:      loc.Path,
			SizeBytes: int64(loc.Size),
			CreatedAt: loc.Created,
		}
		if err := s.noteRepo.Insert(ctx, rec); err != nil {
			s.logger.Warn("studygen.note_record_failed", "path", loc.Path, "error", err)
		}
	}
}

func (s *Service) recordJob(ctx context.Context, job *repository.GenerationJob) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.Insert(ctx, job); err != nil {
		s.logger.Warn("studygen.job_record_failed", "kind", string(job.Kind), "error", err)
	}
}
