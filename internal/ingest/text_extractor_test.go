package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestTextExtractor_UTF8(t *testing.T) {
	path := writeTestFile(t, "notes.txt", []byte("plain UTF-8 content with ünïcode"))

	res := NewTextExtractor(nil).Extract(context.Background(), path)

	require.True(t, res.Success)
	assert.Equal(t, "plain UTF-8 content with ünïcode", res.Text)
	assert.Equal(t, len(res.Text), res.TextLength)
	assert.Equal(t, "direct_text", res.Method)
	assert.EqualValues(t, 1.0, res.Confidence)
	assert.Empty(t, res.Warning)
}

func TestTextExtractor_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in latin-1 but is not valid UTF-8 on its own.
	path := writeTestFile(t, "legacy.txt", []byte{'c', 'a', 'f', 0xE9})

	res := NewTextExtractor(nil).Extract(context.Background(), path)

	require.True(t, res.Success)
	assert.Equal(t, "café", res.Text)
	assert.Equal(t, "text_latin-1", res.Method)
	assert.EqualValues(t, float32(0.9), res.Confidence)
	assert.Equal(t, "Used latin-1 encoding", res.Warning)
}

func TestTextExtractor_EmptyFile(t *testing.T) {
	path := writeTestFile(t, "empty.txt", nil)

	res := NewTextExtractor(nil).Extract(context.Background(), path)

	require.True(t, res.Success, "an empty file is valid UTF-8")
	assert.Equal(t, "", res.Text)
	assert.Equal(t, 0, res.TextLength)
	assert.Equal(t, "direct_text", res.Method)
}

func TestTextExtractor_MissingFile(t *testing.T) {
	res := NewTextExtractor(nil).Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))

	require.False(t, res.Success)
	assert.Equal(t, FailureExtraction, res.FailureKind)
	assert.Empty(t, res.Text)
}
