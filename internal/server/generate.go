package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/academicapex/strategist/internal/common"
	"github.com/academicapex/strategist/internal/studygen"
)

type quizRequest struct {
	Subject      string `json:"subject"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"num_questions"`
	UseCuration  *bool  `json:"use_curation"`
	Structured   bool   `json:"structured"`
}

type studyPlanRequest struct {
	Subject     string   `json:"subject"`
	Duration    string   `json:"duration"`
	Difficulty  string   `json:"difficulty"`
	Objectives  []string `json:"objectives"`
	UseCuration *bool    `json:"use_curation"`
}

type codeRequest struct {
	ModuleName    string `json:"module_name"`
	Functionality string `json:"functionality"`
	IncludeTests  *bool  `json:"include_tests"`
	UseCuration   *bool  `json:"use_curation"`
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := s.studygen.GenerateQuiz(r.Context(), studygen.QuizParams{
		Subject:      req.Subject,
		Difficulty:   req.Difficulty,
		NumQuestions: req.NumQuestions,
		UseCuration:  boolOrDefault(req.UseCuration, true),
		Structured:   req.Structured,
	})
	if err != nil {
		writeGenerationError(w, err)
		return
	}
	writeGenerated(w, out)
}

func (s *Server) handleGenerateStudyPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req studyPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := s.studygen.GenerateStudyPlan(r.Context(), studygen.StudyPlanParams{
		Subject:     req.Subject,
		Duration:    req.Duration,
		Difficulty:  req.Difficulty,
		Objectives:  req.Objectives,
		UseCuration: boolOrDefault(req.UseCuration, true),
	})
	if err != nil {
		writeGenerationError(w, err)
		return
	}
	writeGenerated(w, out)
}

func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := s.studygen.GenerateCode(r.Context(), studygen.CodeParams{
		ModuleName:    req.ModuleName,
		Functionality: req.Functionality,
		IncludeTests:  boolOrDefault(req.IncludeTests, true),
		UseCuration:   boolOrDefault(req.UseCuration, true),
	})
	if err != nil {
		writeGenerationError(w, err)
		return
	}
	writeGenerated(w, out)
}

func writeGenerated(w http.ResponseWriter, out *studygen.Generated) {
	resp := map[string]any{
		"success":    true,
		"content":    out.Content,
		"kind":       string(out.Kind),
		"note_path":  out.NotePath,
		"structured": out.Structured,
		"stats": map[string]any{
			"length": len(out.Content),
			"model":  out.Model,
			"tokens": out.Tokens,
		},
	}
	if out.Warning != "" {
		resp["warning"] = out.Warning
	}
	if out.Quiz != nil {
		resp["quiz"] = out.Quiz
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeGenerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrBackendUnreachable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
