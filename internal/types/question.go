// Package types provides the tagged string types and result structures passed between
// the stages of the question-answering pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Question is a sentence that elicits information about Cal Poly staff, clubs, etc.
// Example: "what is foaad khosmood's email?"
type Question string

// Query is the text typed into the search box: a Question plus a site scope.
// Example: "what is foaad khosmood's email? site:calpoly.edu"
type Query string

// SanitizedQuery is a Query escaped for use as a URL parameter.
// Example: "what+is+foaad+khosmood%27s+email%3F+site%3Acalpoly.edu"
type SanitizedQuery string

// URL is an absolute web address.
type URL string

// WebPage is the raw HTML of a fetched URL.
type WebPage string

// Context is the block of text supplied to the QA model alongside a Question.
// Example: "The email is foaad@calpoly.edu."
type Context string

// Answer is a span of a Context that answers a Question.
// Example: "foaad@calpoly.edu"
type Answer string

// IDK is the placeholder Answer used when no context or no span is available.
const IDK Answer = "¯\\_(ツ)_/¯"

// String implementations keep fmt output free of type noise.
func (q Question) String() string { return string(q) }

func (q Query) String() string { return string(q) }

func (s SanitizedQuery) String() string { return string(s) }

func (u URL) String() string { return string(u) }

func (c Context) String() string { return string(c) }

func (a Answer) String() string { return string(a) }

// IsEmpty reports whether the context holds no non-whitespace text.
func (c Context) IsEmpty() bool {
	for _, r := range c {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			continue
		}
		return false
	}
	return true
}

// IsIDK reports whether the answer is the placeholder.
func (a Answer) IsIDK() bool {
	return a == IDK || a == ""
}
