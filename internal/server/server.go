package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/academicapex/strategist/internal/async"
	"github.com/academicapex/strategist/internal/export"
	"github.com/academicapex/strategist/internal/ingest"
	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/studygen"
)

const maxMultipartMemory = 8 << 20 // 8 MB

// BackendProber reports generation backend health. The Ollama client
// satisfies it.
type BackendProber interface {
	TestConnection(ctx context.Context) bool
	ListModels(ctx context.Context) []string
	DefaultModel() string
}

type Server struct {
	mux       *http.ServeMux
	studygen  *studygen.Service
	pipeline  *ingest.Pipeline
	queue     async.Queue
	vault     *notes.Vault
	exporter  *export.Service
	backend   BackendProber
	curation  bool
	uploadDir string
	logger    *slog.Logger
}

func NewServer(
	sg *studygen.Service,
	pipeline *ingest.Pipeline,
	queue async.Queue,
	vault *notes.Vault,
	exporter *export.Service,
	backend BackendProber,
	curationEnabled bool,
	uploadDir string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mux:       http.NewServeMux(),
		studygen:  sg,
		pipeline:  pipeline,
		queue:     queue,
		vault:     vault,
		exporter:  exporter,
		backend:   backend,
		curation:  curationEnabled,
		uploadDir: uploadDir,
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/system-status", s.handleSystemStatus)
	s.mux.HandleFunc("/api/generate-quiz", s.handleGenerateQuiz)
	s.mux.HandleFunc("/api/generate-study-plan", s.handleGenerateStudyPlan)
	s.mux.HandleFunc("/api/generate-code", s.handleGenerateCode)
	s.mux.HandleFunc("/api/upload-document", s.handleUploadDocument)
	s.mux.HandleFunc("/api/process-document", s.handleProcessDocument)
	s.mux.HandleFunc("/api/notes", s.handleListNotes)
	s.mux.HandleFunc("/api/export", s.handleExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	connected := s.backend.TestConnection(r.Context())
	status := http.StatusOK
	state := "healthy"
	if !connected {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	caps := s.pipeline.Capabilities()
	writeJSON(w, status, map[string]any{
		"status":           state,
		"ollama_connected": connected,
		"ocr_available":    caps.OCR(),
		"pdf_available":    caps.PDF(),
	})
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	var issues []string
	connected := s.backend.TestConnection(r.Context())
	var models []string
	if connected {
		models = s.backend.ListModels(r.Context())
	} else {
		issues = append(issues, "generation backend not reachable")
	}

	caps := s.pipeline.Capabilities()
	if !caps.OCR() {
		issues = append(issues, "OCR unavailable (tesseract or pdftoppm missing)")
	}
	if !caps.PDF() {
		issues = append(issues, "PDF extraction unavailable (pdftotext missing)")
	}
	issues = append(issues, s.vault.ValidateVault()...)

	writeJSON(w, http.StatusOK, map[string]any{
		"ollama_connected": connected,
		"default_model":    s.backend.DefaultModel(),
		"models_available": models,
		"curation_enabled": s.curation,
		"vault_path":       s.vault.Root(),
		"ocr_available":    caps.OCR(),
		"pdf_available":    caps.PDF(),
		"issues":           issues,
	})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	list, err := s.vault.ListNotes(category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": list,
		"count": len(list),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	data, err := s.exporter.ExportNotesXLSX(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="notes-index.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
