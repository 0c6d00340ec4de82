package ollama

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/academicapex/strategist/internal/llm"
)

// Config for the Ollama client.
type Config struct {
	BaseURL        string        // default http://localhost:11434
	Model          string        // default model when the request has none
	MaxTokens      int           // default num_predict when the request has none
	Temperature    float32       // default temperature when the request has none
	AttemptTimeout time.Duration // per generate attempt, distinct from backoff
	ProbeTimeout   time.Duration // for TestConnection / ListModels
	Retry          llm.Policy    // zero value -> llm.DefaultPolicy with the transient predicate
}

// Client talks to a local Ollama instance. The http.Client is shared across
// concurrent calls for connection pooling; no per-call state is kept.
type Client struct {
	cfg    Config
	http   *http.Client
	retry  llm.Policy
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "deepseek-coder"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 2 * time.Minute
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = llm.DefaultPolicy()
		retry.Retryable = isTransient
	}
	if retry.Retryable == nil {
		retry.Retryable = isTransient
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		retry:  retry,
		logger: logger,
	}
}
