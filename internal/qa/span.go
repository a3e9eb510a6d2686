package qa

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span locates answer inside context and returns its rune offsets, End exclusive.
// An exact match wins over a case-insensitive one. The returned text is the
// matched slice of context, so a case-insensitive hit keeps the context's casing.
func Span(context, answer string) (text string, start, end int, ok bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", 0, 0, false
	}

	if i := strings.Index(context, answer); i >= 0 {
		start = utf8.RuneCountInString(context[:i])
		end = start + utf8.RuneCountInString(answer)
		return answer, start, end, true
	}

	hay := []rune(context)
	needle := []rune(answer)
	start = indexFold(hay, needle)
	if start < 0 {
		return "", 0, 0, false
	}
	end = start + len(needle)
	return string(hay[start:end]), start, end, true
}

// indexFold is a rune-wise case-insensitive search.
func indexFold(hay, needle []rune) int {
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j, r := range needle {
			if unicode.ToLower(hay[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
