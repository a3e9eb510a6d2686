// Package prompts loads the LLM prompt templates embedded in the binary.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Library is a set of prompt files, each a JSON object of key to template.
// Files are parsed on first use.
type Library struct {
	fsys fs.FS

	mu    sync.RWMutex
	files map[string]map[string]string
}

// NewLibrary returns a Library reading prompt files from fsys.
func NewLibrary(fsys fs.FS) *Library {
	return &Library{fsys: fsys, files: make(map[string]map[string]string)}
}

// embedded backs the package-level functions.
var embedded = NewLibrary(promptFiles)

// Get retrieves a prompt by filename and key (e.g. "qa.json", "extract-answer").
func (l *Library) Get(filename, key string) (string, error) {
	prompts, err := l.file(filename)
	if err != nil {
		return "", err
	}
	prompt, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// Keys returns the prompt keys of a file in sorted order.
func (l *Library) Keys(filename string) ([]string, error) {
	prompts, err := l.file(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (l *Library) file(filename string) (map[string]string, error) {
	l.mu.RLock()
	prompts, ok := l.files[filename]
	l.mu.RUnlock()
	if ok {
		return prompts, nil
	}

	data, err := fs.ReadFile(l.fsys, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.files[filename] = prompts
	l.mu.Unlock()
	return prompts, nil
}

// Get retrieves an embedded prompt.
func Get(filename, key string) (string, error) {
	return embedded.Get(filename, key)
}

// MustGet is Get for prompts that ship with the binary. It panics when the
// prompt is missing.
func MustGet(filename, key string) string {
	prompt, err := embedded.Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// List returns the keys of an embedded prompt file.
func List(filename string) ([]string, error) {
	return embedded.Keys(filename)
}

// Format replaces {{.Key}} placeholders in template with values from data.
// Unknown placeholders are left in place and values are not re-expanded.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Render loads an embedded prompt and formats it.
func Render(filename, key string, data map[string]string) (string, error) {
	template, err := embedded.Get(filename, key)
	if err != nil {
		return "", err
	}
	return Format(template, data), nil
}
