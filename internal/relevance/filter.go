// Package relevance narrows fetched page text down to the lines worth
// handing to the question-answering model.
package relevance

import (
	"strings"
	"unicode/utf8"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// Default filter settings.
const (
	DefaultMinLength     = 20
	DefaultFuzzThreshold = 50
	DefaultLimit         = 100
)

// maxLineLength is the rune length above which a line is split into sentences.
const maxLineLength = 300

// Options controls which lines survive Filter.
type Options struct {
	// MinLength is the minimum line length in runes.
	MinLength int `json:"min_length" validate:"gte=0"`
	// FuzzThreshold is the minimum word-aligned PartialRatio (0..100) for a
	// line without a keyword. 0 keeps every line.
	FuzzThreshold int `json:"fuzz_threshold" validate:"gte=0,lte=100"`
	// Limit caps the number of kept lines. 0 keeps every line.
	Limit int `json:"limit" validate:"gte=0"`
}

// DefaultOptions returns the default filter settings.
func DefaultOptions() Options {
	return Options{
		MinLength:     DefaultMinLength,
		FuzzThreshold: DefaultFuzzThreshold,
		Limit:         DefaultLimit,
	}
}

// Filter keeps the lines of text that are long enough and either mention a
// question keyword or fuzzily match the question. Fuzzy matching compares
// the question against windows of the line that start on a word. Kept lines stay in
// document order and are joined with newlines.
func Filter(question types.Question, text string, opts Options) types.Context {
	keywords := Keywords(string(question))
	q := []rune(strings.ToLower(strings.TrimSpace(string(question))))

	kept := make([]string, 0)
	for _, line := range Lines(text) {
		if opts.Limit > 0 && len(kept) >= opts.Limit {
			break
		}
		if utf8.RuneCountInString(line) < opts.MinLength {
			continue
		}
		if containsAny(line, keywords) || fuzzyMatch(q, line, opts.FuzzThreshold) {
			kept = append(kept, line)
		}
	}
	return types.Context(strings.Join(kept, "\n"))
}

// FilterSections keeps the sections that contain a question keyword.
// A question without keywords keeps every section.
func FilterSections(question types.Question, sections []string) types.Context {
	keywords := Keywords(string(question))

	kept := make([]string, 0, len(sections))
	for _, section := range sections {
		if len(keywords) == 0 || containsAny(section, keywords) {
			kept = append(kept, section)
		}
	}
	return types.Context(strings.Join(kept, "\n"))
}

// Lines splits text into trimmed non-empty lines. Lines longer than
// maxLineLength are further split into sentences.
func Lines(text string) []string {
	lines := make([]string, 0)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxLineLength {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, sentences(line)...)
	}
	return lines
}

// sentences splits s after '.', '?' or '!' followed by a space.
func sentences(s string) []string {
	out := make([]string, 0)
	start := 0
	runes := []rune(s)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '?', '!':
			if runes[i+1] == ' ' {
				if sentence := strings.TrimSpace(string(runes[start : i+1])); sentence != "" {
					out = append(out, sentence)
				}
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		out = append(out, rest)
	}
	return out
}
