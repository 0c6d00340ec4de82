package constants

import "strings"

// Category organizes generated notes inside the vault.
type Category string

const (
	Quiz      Category = "quizzes"
	StudyPlan Category = "study-plans"
	Code      Category = "code"
	Document  Category = "documents"
	General   Category = "general"
)

var allCategories = []Category{
	Quiz,
	StudyPlan,
	Code,
	Document,
	General,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-form label onto a known category.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return General, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"quiz":       Quiz,
		"assessment": Quiz,
		"exam":       Quiz,
		"study plan": StudyPlan,
		"study_plan": StudyPlan,
		"plan":       StudyPlan,
		"module":     Code,
		"snippet":    Code,
		"upload":     Document,
		"document":   Document,
		"ingested":   Document,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return General, false
}
