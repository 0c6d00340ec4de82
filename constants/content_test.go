package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExtToKind(t *testing.T) {
	tests := []struct {
		ext  string
		want DocumentKind
	}{
		{".pdf", KindPDF},
		{"PDF", KindPDF},
		{".txt", KindText},
		{".md", KindText},
		{".JPG", KindImage},
		{"png", KindImage},
		{".exe", KindUnsupported},
		{"", KindUnsupported},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapExtToKind(tt.ext), tt.ext)
	}
}

func TestContentTypeForExt(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeForExt(".pdf"))
	assert.Equal(t, "text/plain", ContentTypeForExt("md"))
	assert.Equal(t, "application/octet-stream", ContentTypeForExt(".zip"))
}

func TestMethodTextEncoding(t *testing.T) {
	assert.Equal(t, "text_latin-1", MethodTextEncoding("latin-1"))
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in    string
		want  Category
		known bool
	}{
		{"quizzes", Quiz, true},
		{"quiz", Quiz, true},
		{"Exam", Quiz, true},
		{"study_plan", StudyPlan, true},
		{"STUDY-PLANS", StudyPlan, true},
		{"snippet", Code, true},
		{"upload", Document, true},
		{"", General, false},
		{"whatever", General, false},
	}
	for _, tt := range tests {
		got, known := Canonicalize(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.known, known, tt.in)
	}
}

func TestSupportedContentTypes_Deduplicated(t *testing.T) {
	types := SupportedContentTypes()
	seen := map[string]bool{}
	for _, ct := range types {
		assert.False(t, seen[ct], ct)
		seen[ct] = true
	}
	assert.Contains(t, types, "application/pdf")
	assert.Contains(t, types, "image/jpeg")
}
