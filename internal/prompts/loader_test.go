package prompts

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get("qa.json", "extract-answer")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Question}}")
	assert.Contains(t, prompt, "{{.Context}}")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get("qa.json", "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
	assert.NotPanics(t, func() {
		assert.NotEmpty(t, MustGet("qa.json", "retry-not-extractive"))
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			name:     "replaces every placeholder",
			template: "Q: {{.Question}} ({{.Question}}) C: {{.Context}}",
			data:     map[string]string{"Question": "who?", "Context": "Foaad"},
			want:     "Q: who? (who?) C: Foaad",
		},
		{
			name:     "unknown placeholder stays",
			template: "Hello {{.Name}}",
			data:     map[string]string{},
			want:     "Hello {{.Name}}",
		},
		{
			name:     "values are not re-expanded",
			template: "{{.Context}} / {{.Question}}",
			data:     map[string]string{"Context": "{{.Question}}", "Question": "q"},
			want:     "{{.Question}} / q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}

func TestRender(t *testing.T) {
	prompt, err := Render("qa.json", "extract-answer", map[string]string{
		"Question": "where is the CSC office?",
		"Context":  "The CSC office is in 14-254.",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Question: where is the CSC office?")
	assert.Contains(t, prompt, "The CSC office is in 14-254.")
	assert.NotContains(t, prompt, "{{.")

	_, err = Render("qa.json", "missing", nil)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	keys, err := List("qa.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"extract-answer", "retry-not-extractive"}, keys)
}

func TestLibrary_ParsesOnce(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json": {Data: []byte(`{"greet": "hello {{.Name}}"}`)},
	}
	lib := NewLibrary(fsys)

	got, err := lib.Get("a.json", "greet")
	require.NoError(t, err)
	assert.Equal(t, "hello {{.Name}}", got)

	// Later reads come from the parsed copy.
	delete(fsys, "a.json")
	got, err = lib.Get("a.json", "greet")
	require.NoError(t, err)
	assert.Equal(t, "hello {{.Name}}", got)
}

func TestLibrary_MalformedFile(t *testing.T) {
	lib := NewLibrary(fstest.MapFS{
		"bad.json": {Data: []byte(`{"greet": `)},
	})

	_, err := lib.Get("bad.json", "greet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse prompt file")
}
