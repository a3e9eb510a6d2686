package types

// ExtraData is the auxiliary output of the QA model.
// Start and End are rune offsets into the Context; End is exclusive.
type ExtraData struct {
	Score     float64 `json:"score"`
	Start     int     `json:"start"`
	End       int     `json:"end"`
	Tokenizer string  `json:"tokenizer"`
	Model     string  `json:"model"`
}

// Source represents a single fetched page that contributed to a Context
type Source struct {
	URL        URL    `json:"url"`
	Timestamp  string `json:"timestamp"` // RFC3339 format
	Hash       string `json:"hash"`      // SHA256 hex digest of extracted text
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result is the full outcome of answering one Question.
type Result struct {
	ID            string    `json:"id,omitempty"`
	Question      Question  `json:"question"`
	Query         Query     `json:"query,omitempty"`
	Answer        Answer    `json:"answer"`
	ExtraData     ExtraData `json:"extra_data"`
	Sources       []Source  `json:"sources,omitempty"`
	Context       Context   `json:"-"`
	ContextLength int       `json:"context_length"`
	Cached        bool      `json:"cached,omitempty"`
}

// Found reports whether the result carries a real answer span.
func (r *Result) Found() bool {
	return r != nil && !r.Answer.IsIDK()
}
