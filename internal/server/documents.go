package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/academicapex/strategist/constants"
	"github.com/academicapex/strategist/internal/async"
	"github.com/academicapex/strategist/internal/ingest"
)

type processRequest struct {
	Path string `json:"path"`
}

// handleUploadDocument stores the multipart file under the upload directory
// and queues it for ingestion. The response is 202: processing is async.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if constants.MapExtToKind(ext) == constants.KindUnsupported {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file type %q not supported", ext))
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "upload directory unavailable")
		return
	}

	safeName := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), sanitizeFilename(header.Filename))
	dest := filepath.Join(s.uploadDir, safeName)

	out, err := os.Create(dest)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dest)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	job := async.Job{
		ID:          uuid.New(),
		Path:        dest,
		SubmittedAt: time.Now(),
	}
	if err := s.queue.Enqueue(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to queue document")
		return
	}

	s.logger.Info("document uploaded", "job_id", job.ID, "filename", header.Filename, "stored_path", dest)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID.String(),
		"stored_path": dest,
		"status":      string(constants.JobStatusQueued),
	})
}

// handleProcessDocument runs the pipeline synchronously on a server-local
// path and returns the structured result, success or not.
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	res := s.pipeline.Process(r.Context(), req.Path)
	writeJSON(w, http.StatusOK, resultPayload(res))
}

func resultPayload(res ingest.Result) map[string]any {
	payload := map[string]any{
		"success":     res.Success,
		"text_length": res.TextLength,
		"confidence":  res.Confidence,
		"method":      res.Method,
		"pages":       res.Pages,
		"file_size":   res.FileSize,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if res.Success {
		payload["text"] = res.Text
	} else {
		payload["error"] = res.Error
		payload["failure_kind"] = string(res.FailureKind)
	}
	if res.Warning != "" {
		payload["warning"] = res.Warning
	}
	if res.ContentType != "" {
		payload["content_type"] = res.ContentType
	}
	return payload
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." {
		out = "upload"
	}
	return out
}
