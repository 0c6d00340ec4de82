package studygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academicapex/strategist/internal/common"
)

func TestQuizParamsNormalize_Defaults(t *testing.T) {
	p := QuizParams{Subject: "  Linear Algebra  "}
	require.NoError(t, p.normalize())

	assert.Equal(t, "Linear Algebra", p.Subject)
	assert.Equal(t, "intermediate", p.Difficulty)
	assert.Equal(t, 5, p.NumQuestions)
}

func TestQuizParamsNormalize_Bounds(t *testing.T) {
	for _, n := range []int{1, 25, 50} {
		p := QuizParams{Subject: "x", NumQuestions: n}
		assert.NoError(t, p.normalize())
	}
	for _, n := range []int{-3, 51, 200} {
		p := QuizParams{Subject: "x", NumQuestions: n}
		err := p.normalize()
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrValidation)
	}
}

func TestStudyPlanParamsNormalize_Defaults(t *testing.T) {
	p := StudyPlanParams{Subject: "Thermodynamics"}
	require.NoError(t, p.normalize())

	assert.Equal(t, "1 week", p.Duration)
	assert.Equal(t, "intermediate", p.Difficulty)
}

func TestCodeParamsNormalize(t *testing.T) {
	p := CodeParams{Functionality: "spaced repetition scheduling"}
	require.NoError(t, p.normalize())
	assert.Equal(t, "study_utils", p.ModuleName)

	empty := CodeParams{ModuleName: "helpers"}
	err := empty.normalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestBuildQuizPrompt(t *testing.T) {
	p := QuizParams{Subject: "Organic Chemistry", Difficulty: "advanced", NumQuestions: 12}
	prompt := buildQuizPrompt(p)

	assert.Contains(t, prompt, "advanced level diagnostic quiz for Organic Chemistry with exactly 12 questions")
	assert.Contains(t, prompt, `End with "---ANSWERS---" section`)
	assert.Contains(t, prompt, "Target difficulty: advanced")
}

func TestBuildStructuredQuizPrompt(t *testing.T) {
	p := QuizParams{Subject: "Geometry", Difficulty: "beginner", NumQuestions: 3}
	prompt := buildStructuredQuizPrompt(p)

	assert.Contains(t, prompt, "Return ONLY a JSON object")
	assert.Contains(t, prompt, "exactly 4 choices")
	assert.Contains(t, prompt, "Number of questions: 3")
}

func TestBuildStudyPlanPrompt_Objectives(t *testing.T) {
	p := StudyPlanParams{
		Subject:    "Statistics",
		Duration:   "2 weeks",
		Difficulty: "intermediate",
		Objectives: []string{"understand distributions", "  ", "run hypothesis tests"},
	}
	prompt := buildStudyPlanPrompt(p)

	assert.Contains(t, prompt, "- understand distributions")
	assert.Contains(t, prompt, "- run hypothesis tests")
	assert.Contains(t, prompt, "Duration: 2 weeks")
	assert.NotContains(t, prompt, "Master core concepts", "defaults only apply when no objectives are given")
}

func TestBuildCodePrompt(t *testing.T) {
	p := CodeParams{ModuleName: "flashcards", Functionality: "deck management", IncludeTests: true}
	prompt := buildCodePrompt(p)

	assert.Contains(t, prompt, "Python module named 'flashcards'")
	assert.Contains(t, prompt, "deck management")
	assert.Contains(t, prompt, "Include unit tests: true")
}
