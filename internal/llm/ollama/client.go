package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/llm"
)

// generateRequest is the Ollama /api/generate body. Streaming is always off;
// we want the complete response in one payload.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float32 `json:"temperature"`
}

// generateResponse mirrors the fields we care about. Response and Done are
// pointers so a payload that omits them is distinguishable from empty values.
type generateResponse struct {
	Model           string  `json:"model"`
	Response        *string `json:"response"`
	Done            *bool   `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// isTransient reports whether another attempt could succeed. Backend
// unavailability and malformed payloads both qualify; caller mistakes do not.
func isTransient(err error) bool {
	return errors.Is(err, common.ErrBackendUnreachable) || errors.Is(err, common.ErrMalformedResponse)
}

// Generate sends the prompt and retries transient failures per the client's
// policy. A request that fails validation is returned immediately without
// touching the network.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error) {
	req = c.applyDefaults(req)
	if err := validateRequest(req); err != nil {
		return llm.GenerationResult{}, err
	}

	reqID := uuid.New().String()
	start := time.Now()
	c.logger.Info("llm.generate.start",
		"req_id", reqID,
		"model", req.Model,
		"prompt_chars", len(req.Prompt),
		"max_tokens", req.MaxTokens,
	)

	var result llm.GenerationResult
	err := c.retry.Do(ctx, c.logger, "llm.generate", func(attempt int) error {
		res, aerr := c.attempt(ctx, req, reqID, attempt)
		if aerr != nil {
			return aerr
		}
		result = res
		return nil
	})
	if err != nil {
		c.logger.Error("llm.generate.failed",
			"req_id", reqID,
			"model", req.Model,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return llm.GenerationResult{}, err
	}

	result.Duration = time.Since(start)
	c.logger.Info("llm.generate.ok",
		"req_id", reqID,
		"model", result.Model,
		"response_chars", len(result.Text),
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens,
		"elapsed_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (c *Client) attempt(ctx context.Context, req llm.GenerationRequest, reqID string, attempt int) (llm.GenerationResult, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	body := generateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Options: generateOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
		Stream: false,
	}

	raw, status, err := llm.SendJSON(actx, c.http, c.cfg.BaseURL+"/api/generate", body, c.logger)
	if err != nil {
		if status != 0 {
			return llm.GenerationResult{}, common.Tag(common.ErrBackendUnreachable,
				fmt.Sprintf("generation backend returned status %d", status), err)
		}
		return llm.GenerationResult{}, common.Tag(common.ErrBackendUnreachable,
			"generation backend unreachable", err)
	}

	var parsed generateResponse
	if uerr := json.Unmarshal(raw, &parsed); uerr != nil {
		return llm.GenerationResult{}, common.Tag(common.ErrMalformedResponse,
			"generation backend returned invalid JSON", uerr)
	}
	if parsed.Response == nil {
		return llm.GenerationResult{}, common.Tag(common.ErrMalformedResponse,
			"response field missing from backend payload", nil)
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	done := parsed.Done == nil || *parsed.Done

	c.logger.Debug("llm.generate.attempt_ok", "req_id", reqID, "attempt", attempt+1, "done", done)

	return llm.GenerationResult{
		Text:             *parsed.Response,
		Model:            model,
		PromptTokens:     parsed.PromptEvalCount,
		CompletionTokens: parsed.EvalCount,
		Done:             done,
	}, nil
}

// TestConnection probes the backend once; it never retries and never errors.
func (c *Client) TestConnection(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("llm.probe.failed", "base_url", c.cfg.BaseURL, "error", err)
		return false
	}
	defer resp.Body.Close()
	ok := resp.StatusCode/100 == 2
	c.logger.Debug("llm.probe.ok", "base_url", c.cfg.BaseURL, "status", resp.StatusCode, "reachable", ok)
	return ok
}

// ListModels returns the names of locally available models. Best effort: any
// failure yields an empty slice so callers can render "no models" directly.
func (c *Client) ListModels(ctx context.Context) []string {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("llm.list_models.failed", "base_url", c.cfg.BaseURL, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		c.logger.Warn("llm.list_models.decode_failed", "error", err)
		return nil
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names
}

// DefaultModel is the model used when a request carries none.
func (c *Client) DefaultModel() string { return c.cfg.Model }

func (c *Client) applyDefaults(req llm.GenerationRequest) llm.GenerationRequest {
	if req.Model == "" {
		req.Model = c.cfg.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.cfg.Temperature
	}
	return req
}

func validateRequest(req llm.GenerationRequest) error {
	if req.Prompt == "" {
		return common.Tag(common.ErrValidation, "prompt must not be empty", nil)
	}
	if req.MaxTokens <= 0 {
		return common.Tag(common.ErrValidation, "max_tokens must be positive", nil)
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return common.Tag(common.ErrValidation, "temperature must be within [0, 1]", nil)
	}
	return nil
}
