package studygen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// StructuredQuiz is the JSON shape the structured quiz mode asks for.
type StructuredQuiz struct {
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

var quizSchema = map[string]any{
	"type":     "object",
	"required": []any{"topic", "questions"},
	"properties": map[string]any{
		"topic": map[string]any{"type": "string"},
		"questions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"question", "choices", "answer"},
				"properties": map[string]any{
					"question": map[string]any{"type": "string", "minLength": 1},
					"choices": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "string"},
						"minItems": 4,
						"maxItems": 4,
					},
					"answer":      map[string]any{"type": "string", "minLength": 1},
					"explanation": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// validateAgainstSchema validates data against schemaMap.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// parseStructuredQuiz strips markdown fencing from raw model output and
// validates the payload before decoding it.
func parseStructuredQuiz(raw string) (*StructuredQuiz, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object found in model output")
	}
	if err := validateAgainstSchema(quizSchema, []byte(payload)); err != nil {
		return nil, err
	}
	var quiz StructuredQuiz
	if err := json.Unmarshal([]byte(payload), &quiz); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return &quiz, nil
}

// extractJSON removes markdown code block formatting if present and extracts
// the JSON object.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		start := 3
		if newlineIdx := strings.Index(content[start:], "\n"); newlineIdx != -1 {
			start += newlineIdx + 1
		}
		if endIdx := strings.Index(content[start:], "```"); endIdx != -1 {
			content = content[start : start+endIdx]
		} else {
			content = content[start:]
		}
	}

	content = strings.TrimSpace(content)

	if startIdx := strings.Index(content, "{"); startIdx != -1 {
		if endIdx := strings.LastIndex(content, "}"); endIdx != -1 && endIdx > startIdx {
			return strings.TrimSpace(content[startIdx : endIdx+1])
		}
	}
	return ""
}

// Markdown renders the quiz as a vault-ready note body with the answer key
// after the ---ANSWERS--- divider.
func (q *StructuredQuiz) Markdown() string {
	var b strings.Builder
	for i, question := range q.Questions {
		fmt.Fprintf(&b, "## Question %d\n\n%s\n\n", i+1, question.Question)
		for j, choice := range question.Choices {
			fmt.Fprintf(&b, "%c. %s\n", 'A'+j, choice)
		}
		b.WriteString("\n")
	}
	b.WriteString("---ANSWERS---\n\n")
	for i, question := range q.Questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, question.Answer)
		if question.Explanation != "" {
			fmt.Fprintf(&b, "   %s\n", question.Explanation)
		}
	}
	return b.String()
}
