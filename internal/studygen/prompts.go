package studygen

import (
	"fmt"
	"strings"

	"github.com/academicapex/strategist/internal/common"
)

// Difficulty levels accepted by the prompt builders.
var validDifficulties = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

const (
	minQuestions = 1
	maxQuestions = 50
)

// QuizParams describes a diagnostic quiz request.
type QuizParams struct {
	Subject      string
	Difficulty   string
	NumQuestions int
	UseCuration  bool
	Structured   bool // ask for JSON instead of free-form markdown
}

// StudyPlanParams describes a study plan request.
type StudyPlanParams struct {
	Subject     string
	Duration    string
	Difficulty  string
	Objectives  []string
	UseCuration bool
}

// CodeParams describes a code module request.
type CodeParams struct {
	ModuleName    string
	Functionality string
	IncludeTests  bool
	UseCuration   bool
}

func (p *QuizParams) normalize() error {
	p.Subject = strings.TrimSpace(p.Subject)
	if p.Subject == "" {
		return common.Tag(common.ErrValidation, "subject must not be empty", nil)
	}
	if p.Difficulty == "" {
		p.Difficulty = "intermediate"
	}
	if !validDifficulties[p.Difficulty] {
		return common.Tag(common.ErrValidation, fmt.Sprintf("unknown difficulty %q", p.Difficulty), nil)
	}
	if p.NumQuestions == 0 {
		p.NumQuestions = 5
	}
	if p.NumQuestions < minQuestions || p.NumQuestions > maxQuestions {
		return common.Tag(common.ErrValidation,
			fmt.Sprintf("num_questions must be between %d and %d", minQuestions, maxQuestions), nil)
	}
	return nil
}

func (p *StudyPlanParams) normalize() error {
	p.Subject = strings.TrimSpace(p.Subject)
	if p.Subject == "" {
		return common.Tag(common.ErrValidation, "subject must not be empty", nil)
	}
	if p.Duration == "" {
		p.Duration = "1 week"
	}
	if p.Difficulty == "" {
		p.Difficulty = "intermediate"
	}
	if !validDifficulties[p.Difficulty] {
		return common.Tag(common.ErrValidation, fmt.Sprintf("unknown difficulty %q", p.Difficulty), nil)
	}
	return nil
}

func (p *CodeParams) normalize() error {
	p.ModuleName = strings.TrimSpace(p.ModuleName)
	if p.ModuleName == "" {
		p.ModuleName = "study_utils"
	}
	p.Functionality = strings.TrimSpace(p.Functionality)
	if p.Functionality == "" {
		return common.Tag(common.ErrValidation, "functionality must not be empty", nil)
	}
	return nil
}

func buildQuizPrompt(p QuizParams) string {
	return fmt.Sprintf(`Create a %s level diagnostic quiz for %s with exactly %d questions.

Requirements:
- Include a mix of multiple choice, short answer, and essay questions
- Cover fundamental concepts and practical applications
- Provide clear instructions for each section
- End with "---ANSWERS---" section containing detailed answer explanations
- Format professionally for educational use
- Make questions challenging but fair for %s level learners

Subject focus: %s
Target difficulty: %s
Number of questions: %d

Create a comprehensive assessment that thoroughly evaluates understanding.`,
		p.Difficulty, p.Subject, p.NumQuestions, p.Difficulty, p.Subject, p.Difficulty, p.NumQuestions)
}

func buildStructuredQuizPrompt(p QuizParams) string {
	return fmt.Sprintf(`Create a %s level diagnostic quiz for %s with exactly %d questions.

Return ONLY a JSON object, no markdown fences, no commentary, with this shape:
{
  "topic": "the subject of the quiz",
  "questions": [
    {
      "question": "the question text",
      "choices": ["choice A", "choice B", "choice C", "choice D"],
      "answer": "the correct choice, verbatim",
      "explanation": "why the answer is correct"
    }
  ]
}

Every question must have exactly 4 choices. Questions should be challenging
but fair for %s level learners.

Subject focus: %s
Number of questions: %d`,
		p.Difficulty, p.Subject, p.NumQuestions, p.Difficulty, p.Subject, p.NumQuestions)
}

func buildStudyPlanPrompt(p StudyPlanParams) string {
	var objectives []string
	for _, o := range p.Objectives {
		if o = strings.TrimSpace(o); o != "" {
			objectives = append(objectives, "- "+o)
		}
	}
	objectivesText := strings.Join(objectives, "\n")
	if objectivesText == "" {
		objectivesText = fmt.Sprintf("- Master core concepts of %s\n- Apply knowledge practically\n- Build strong foundation", p.Subject)
	}

	return fmt.Sprintf(`Create a comprehensive %s study plan for "%s" at %s level.

Requirements:
- Break down into specific time blocks with exact timing (e.g., "0:00-0:15 - Introduction")
- Include variety: reading, hands-on practice, review, strategic breaks
- Add progress checkpoints and self-assessment moments
- Use active learning techniques and spaced repetition
- Format as clear markdown with timeline structure
- Include specific activities and resources for each time block
- Add motivational elements and difficulty progression

Subject: %s
Duration: %s
Level: %s

Learning Objectives:
%s

Create a detailed minute-by-minute timeline that maximizes learning effectiveness and retention.`,
		p.Duration, p.Subject, p.Difficulty, p.Subject, p.Duration, p.Difficulty, objectivesText)
}

func buildCodePrompt(p CodeParams) string {
	return fmt.Sprintf(`Create a complete Python module named '%s' that provides %s.

Requirements:
- Write complete, runnable Python code
- Include comprehensive docstrings for all functions and classes
- Add type hints where appropriate
- Include proper error handling and input validation
- Follow PEP 8 style guidelines
- Make functions practical for real academic/educational use
- Add logging where appropriate
- Include usage examples in docstrings

Include unit tests: %t

Focus on creating clean, maintainable code that would be useful for students and educators. The module should be production-ready with clear documentation and robust error handling.`,
		p.ModuleName, p.Functionality, p.IncludeTests)
}

// Curation instructions passed alongside each prompt kind.
const (
	curateQuizInstruction      = "Optimize this prompt for generating high-quality educational quizzes"
	curateStudyPlanInstruction = "Optimize this prompt for creating effective, engaging study plans"
	curateCodeInstruction      = "Optimize this prompt for generating high-quality, educational Python code"
)
