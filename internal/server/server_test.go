package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academicapex/strategist/internal/async"
	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/export"
	"github.com/academicapex/strategist/internal/ingest"
	"github.com/academicapex/strategist/internal/llm"
	"github.com/academicapex/strategist/internal/notes"
	"github.com/academicapex/strategist/internal/ocr"
	"github.com/academicapex/strategist/internal/studygen"
)

type stubBackend struct {
	connected bool
	models    []string
}

func (b *stubBackend) TestConnection(context.Context) bool { return b.connected }
func (b *stubBackend) ListModels(context.Context) []string { return b.models }
func (b *stubBackend) DefaultModel() string                { return "deepseek-coder" }

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(context.Context, llm.GenerationRequest) (llm.GenerationResult, error) {
	if g.err != nil {
		return llm.GenerationResult{}, g.err
	}
	return llm.GenerationResult{Text: g.text, Model: "deepseek-coder", CompletionTokens: 5}, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}
func (q *recordingQueue) Shutdown(context.Context) {}

type noToolsRunner struct{}

func (noToolsRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return nil, nil, errors.New("executable file not found in $PATH")
}

type serverFixture struct {
	srv     *httptest.Server
	backend *stubBackend
	queue   *recordingQueue
	vault   *notes.Vault
}

func newFixture(t *testing.T, gen llm.Generator) *serverFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := ocr.NewEngine(ocr.Config{}, noToolsRunner{}, logger)
	pipeline := ingest.New(context.Background(), ingest.Config{}, engine, logger)

	vault, err := notes.NewVault(t.TempDir(), logger)
	require.NoError(t, err)

	backend := &stubBackend{connected: true, models: []string{"deepseek-coder"}}
	queue := &recordingQueue{}
	sg := studygen.NewService(gen, nil, vault, nil, nil, logger)
	exporter := export.NewService(vault, nil, logger)

	s := NewServer(sg, pipeline, queue, vault, exporter, backend, true, filepath.Join(t.TempDir(), "uploads"), logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &serverFixture{srv: srv, backend: backend, queue: queue, vault: vault}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandleHealth(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["ollama_connected"])

	f.backend.connected = false
	resp, err = http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "degraded", body["status"])
}

func TestHandleSystemStatus(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	resp, err := http.Get(f.srv.URL + "/api/system-status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "deepseek-coder", body["default_model"])
	assert.Equal(t, true, body["curation_enabled"])
	// no OCR binaries in the fixture, so the probe issues must surface
	issues, ok := body["issues"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, issues)
}

func TestHandleGenerateQuiz(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "## Question 1"})

	resp, err := http.Post(f.srv.URL+"/api/generate-quiz", "application/json",
		strings.NewReader(`{"subject": "Biology", "num_questions": 3}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "## Question 1", body["content"])
	assert.Equal(t, "quiz", body["kind"])
	assert.NotEmpty(t, body["note_path"])

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "deepseek-coder", stats["model"])
}

func TestHandleGenerateQuiz_ValidationError(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	resp, err := http.Post(f.srv.URL+"/api/generate-quiz", "application/json",
		strings.NewReader(`{"subject": ""}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "subject must not be empty")
}

func TestHandleGenerateQuiz_BackendDown(t *testing.T) {
	gen := &stubGenerator{err: common.Tag(common.ErrBackendUnreachable, "generation backend unreachable", nil)}
	f := newFixture(t, gen)

	resp, err := http.Post(f.srv.URL+"/api/generate-quiz", "application/json",
		strings.NewReader(`{"subject": "Biology"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandleGenerateQuiz_MethodAndBodyChecks(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	resp, err := http.Get(f.srv.URL + "/api/generate-quiz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "POST", resp.Header.Get("Allow"))

	resp, err = http.Post(f.srv.URL+"/api/generate-quiz", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGenerateCode(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "def f(): pass"})

	resp, err := http.Post(f.srv.URL+"/api/generate-code", "application/json",
		strings.NewReader(`{"functionality": "grade tracking"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "code", body["kind"])
}

func TestHandleProcessDocument(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("mitochondria"), 0o644))

	reqBody, _ := json.Marshal(map[string]string{"path": path})
	resp, err := http.Post(f.srv.URL+"/api/process-document", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "direct_text", body["method"])
	assert.Equal(t, "mitochondria", body["text"])
	assert.Equal(t, 1.0, body["confidence"])
}

func TestHandleProcessDocument_FailureIsStillOK(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	reqBody, _ := json.Marshal(map[string]string{"path": "/nonexistent/doc.txt"})
	resp, err := http.Post(f.srv.URL+"/api/process-document", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "extraction failures are payload, not transport errors")

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "validation", body["failure_kind"])
}

func TestHandleProcessDocument_MissingPath(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	resp, err := http.Post(f.srv.URL+"/api/process-document", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func multipartUpload(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandleUploadDocument(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	body, contentType := multipartUpload(t, "syllabus.txt", "week one: kinematics")
	resp, err := http.Post(f.srv.URL+"/api/upload-document", contentType, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "QUEUED", payload["status"])
	assert.NotEmpty(t, payload["job_id"])

	stored, ok := payload["stored_path"].(string)
	require.True(t, ok)
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "week one: kinematics", string(data))

	f.queue.mu.Lock()
	defer f.queue.mu.Unlock()
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, stored, f.queue.jobs[0].Path)
}

func TestHandleUploadDocument_UnsupportedType(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	body, contentType := multipartUpload(t, "malware.exe", "MZ")
	resp, err := http.Post(f.srv.URL+"/api/upload-document", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.queue.mu.Lock()
	defer f.queue.mu.Unlock()
	assert.Empty(t, f.queue.jobs)
}

func TestHandleListNotes(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	_, err := f.vault.CreateNote(context.Background(), "Quiz: Cells", "q", "quizzes")
	require.NoError(t, err)
	_, err = f.vault.CreateNote(context.Background(), "Plan: Cells", "p", "study-plans")
	require.NoError(t, err)

	resp, err := http.Get(f.srv.URL + "/api/notes?category=quizzes")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])
}

func TestHandleExport(t *testing.T) {
	f := newFixture(t, &stubGenerator{text: "x"})

	_, err := f.vault.CreateNote(context.Background(), "Quiz: Cells", "q", "quizzes")
	require.NoError(t, err)

	resp, err := http.Get(f.srv.URL + "/api/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "notes-index.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip container")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lecture notes.pdf", "lecture_notes.pdf"},
		{"../../etc/passwd", "passwd"},
		{"über.txt", "_ber.txt"},
		{"a b/c d.txt", "c_d.txt"},
		{"", "upload"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
