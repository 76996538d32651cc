package questions_test

import (
	"os"
	"path/filepath"
	"testing"

	"tcpquiz-backend/internal/questions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSet(t *testing.T) {
	qs := questions.Default()
	require.Len(t, qs, 10)

	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		assert.NotEmpty(t, q.Text)
		assert.Len(t, q.Options, 4)
		assert.Contains(t, []string{"A", "B", "C", "D"}, q.Correct)
	}
}

func TestLoadFileValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	data := []byte(`[
		{"id": 1, "text": "What is 2+2?", "options": ["A) 3", "B) 4"], "correct": "B"},
		{"id": 2, "text": "What is 1+1?", "options": ["A) 2", "B) 11"], "correct": "A"}
	]`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	qs, err := questions.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "What is 2+2?", qs[0].Text)
	assert.Equal(t, "B", qs[0].Correct)
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := questions.LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	_, err := questions.LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFallsBackToDefault(t *testing.T) {
	qs := questions.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, questions.Default(), qs)
}

func TestLoadWithoutPathUsesDefault(t *testing.T) {
	assert.Equal(t, questions.Default(), questions.Load(""))
}
