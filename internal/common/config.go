package common

import (
	"os"
	"strconv"
	"time"

	"github.com/academicapex/strategist/constants"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Vault   VaultConfig
	Ollama  OllamaConfig
	Curator CuratorConfig
	OCR     OCRConfig
	Ingest  IngestConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	UploadDir    string
}

// StoreConfig holds the sqlite store configuration
type StoreConfig struct {
	Path string
}

// VaultConfig holds the markdown note vault configuration
type VaultConfig struct {
	Path string
}

// OllamaConfig holds generation backend configuration
type OllamaConfig struct {
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float32
	AttemptTimeout time.Duration
	ProbeTimeout   time.Duration
	MaxAttempts    int
}

// CuratorConfig holds the optional prompt-curation configuration
type CuratorConfig struct {
	Enabled     bool
	Model       string
	MaxTokens   int
	Temperature float32
}

// OCRConfig holds external extraction tool configuration
type OCRConfig struct {
	Tesseract     string
	Pdftotext     string
	Pdftoppm      string
	TesseractLang string
	DPI           int
	PSM           int
	OEM           int
	Timeout       time.Duration
}

// IngestConfig holds ingestion pipeline configuration
type IngestConfig struct {
	MaxFileBytes   int64
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:     getEnv("HTTP_ADDR", ":8000"),
			ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 5*time.Minute),
			UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "./strategist.db"),
		},
		Vault: VaultConfig{
			Path: getEnv("VAULT_PATH", "./vault"),
		},
		Ollama: OllamaConfig{
			BaseURL:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
			Model:          getEnv("OLLAMA_MODEL", "deepseek-coder"),
			MaxTokens:      getEnvAsInt("OLLAMA_MAX_TOKENS", 1024),
			Temperature:    getEnvAsFloat32("OLLAMA_TEMPERATURE", 0.7),
			AttemptTimeout: getEnvAsDuration("OLLAMA_TIMEOUT", 2*time.Minute),
			ProbeTimeout:   getEnvAsDuration("OLLAMA_PROBE_TIMEOUT", 10*time.Second),
			MaxAttempts:    getEnvAsInt("OLLAMA_MAX_ATTEMPTS", 3),
		},
		Curator: CuratorConfig{
			Enabled:     getEnvAsBool("CURATOR_ENABLED", true),
			Model:       getEnv("CURATOR_MODEL", "mistral-7b"),
			MaxTokens:   getEnvAsInt("CURATOR_MAX_TOKENS", 2048),
			Temperature: getEnvAsFloat32("CURATOR_TEMPERATURE", 0.3),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			PSM:           getEnvAsInt("OCR_PSM", 3),
			OEM:           getEnvAsInt("OCR_OEM", 3),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 45*time.Second),
		},
		Ingest: IngestConfig{
			MaxFileBytes:   getEnvAsInt64("INGEST_MAX_FILE_BYTES", constants.MaxDocumentBytes),
			Workers:        getEnvAsInt("INGEST_WORKERS", 4),
			QueueSize:      getEnvAsInt("INGEST_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("INGEST_PROCESS_TIMEOUT", 3*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Ollama.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_HOST is required", ErrInvalidInput)
	}
	if c.Ollama.Model == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_MODEL is required", ErrInvalidInput)
	}
	if c.Ollama.MaxAttempts <= 0 {
		return NewAppError("CONFIG_ERROR", "OLLAMA_MAX_ATTEMPTS must be positive", ErrInvalidInput)
	}
	if c.Ingest.MaxFileBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "INGEST_MAX_FILE_BYTES must be positive", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
