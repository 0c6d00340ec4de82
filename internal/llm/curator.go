package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const maxCuratablePromptLen = 10000

const curateWithInstruction = `You are a prompt curator. Your task is to refine and improve prompts for better clarity and effectiveness.

INSTRUCTION: %s

ORIGINAL PROMPT:
%s

REFINED PROMPT:`

const curateDefault = `You are a prompt curator. Your task is to refine and improve prompts for better clarity, specificity, and effectiveness while maintaining the original intent.

ORIGINAL PROMPT:
%s

Please provide a refined version that is:
1. More specific and clear
2. Better structured
3. More actionable

REFINED PROMPT:`

// CuratorConfig tunes the refinement pass. Temperature stays low so the
// curator rewrites rather than reinvents.
type CuratorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Curator refines prompts through a secondary model before they reach the
// main generator. It is strictly best-effort: any failure, however caused,
// yields the original prompt so generation is never blocked on curation.
type Curator struct {
	gen    Generator
	cfg    CuratorConfig
	logger *slog.Logger
}

func NewCurator(gen Generator, cfg CuratorConfig, logger *slog.Logger) *Curator {
	if cfg.Model == "" {
		cfg.Model = "mistral-7b"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Curator{gen: gen, cfg: cfg, logger: logger}
}

// Curate returns a refined version of prompt, or prompt itself when
// refinement is not possible. Instruction is optional.
func (c *Curator) Curate(ctx context.Context, prompt, instruction string) string {
	prompt = strings.TrimSpace(prompt)
	instruction = strings.TrimSpace(instruction)
	if prompt == "" || len(prompt) > maxCuratablePromptLen {
		return prompt
	}

	var curation string
	if instruction != "" {
		curation = fmt.Sprintf(curateWithInstruction, instruction, prompt)
	} else {
		curation = fmt.Sprintf(curateDefault, prompt)
	}

	start := time.Now()
	res, err := c.gen.Generate(ctx, GenerationRequest{
		Prompt:      curation,
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		c.logger.Warn("curator.refine.fallback",
			"model", c.cfg.Model,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return prompt
	}

	refined := strings.TrimSpace(res.Text)
	// Some models echo the template; keep only what follows the last marker.
	if idx := strings.LastIndex(refined, "REFINED PROMPT:"); idx >= 0 {
		refined = strings.TrimSpace(refined[idx+len("REFINED PROMPT:"):])
	}
	if refined == "" {
		c.logger.Warn("curator.refine.empty", "model", c.cfg.Model)
		return prompt
	}

	c.logger.Info("curator.refine.ok",
		"model", c.cfg.Model,
		"original_chars", len(prompt),
		"refined_chars", len(refined),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return refined
}
