package relevance

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minKeywordLength is the shortest keyword kept unless it is a number or an
// upper-case acronym such as "AI".
const minKeywordLength = 3

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "arent": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "cant": {}, "could": {}, "did": {}, "didnt": {}, "do": {},
	"does": {}, "doesnt": {}, "dont": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"how": {}, "hows": {}, "i": {}, "im": {}, "in": {}, "is": {}, "isnt": {}, "it": {},
	"its": {}, "ive": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "should": {},
	"tell": {}, "that": {}, "the": {}, "their": {}, "there": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "what": {}, "whats": {}, "when": {}, "where": {}, "wheres": {},
	"which": {}, "who": {}, "whom": {}, "whos": {}, "whose": {}, "why": {}, "will": {},
	"with": {}, "wont": {}, "would": {}, "you": {}, "your": {},
}

// Keywords returns the lower-cased, de-duplicated words of question that
// are not stop words, in order of first appearance. Possessive "'s" is
// dropped and other apostrophes are removed, so "don't" becomes "dont".
func Keywords(question string) []string {
	words := splitWords(question)

	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		token := strings.ToLower(word)
		if _, stop := stopWords[token]; stop {
			continue
		}
		if utf8.RuneCountInString(token) < minKeywordLength && !isNumber(word) && !isAcronym(word) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}

// containsAny reports whether text has a word equal to any keyword, or to
// its plural, ignoring case.
func containsAny(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	words := make(map[string]struct{})
	for _, word := range splitWords(text) {
		words[strings.ToLower(word)] = struct{}{}
	}
	for _, keyword := range keywords {
		for _, form := range []string{keyword, keyword + "s", keyword + "es"} {
			if _, ok := words[form]; ok {
				return true
			}
		}
	}
	return false
}

// splitWords splits s into runs of letters and digits. Apostrophes inside
// a word are removed after a trailing possessive "'s" is cut.
func splitWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !isApostrophe(r)
	})

	words := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.ReplaceAll(field, "’", "'")
		field = strings.Trim(field, "'")
		if len(field) > 2 && strings.EqualFold(field[len(field)-2:], "'s") {
			field = field[:len(field)-2]
		}
		field = strings.ReplaceAll(field, "'", "")
		if field != "" {
			words = append(words, field)
		}
	}
	return words
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func isNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return word != ""
}

func isAcronym(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	for _, r := range word {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
