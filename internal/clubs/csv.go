package clubs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingClubName is returned when the CSV header has no club_name column.
var ErrMissingClubName = errors.New("CSV header has no club_name column")

// RowError reports an invalid CSV row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("clubs CSV line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// normalizeEscapes rewrites the directory export's backslash escapes into
// standard CSV. A backslash makes the next character literal in any field:
// inside quotes `\"` becomes `""`, and an unquoted field holding an escape is
// re-quoted so an escaped comma or quote stays part of the value. Newlines
// are never added or removed, so reader line numbers still match the input.
func normalizeEscapes(data string) string {
	r := []rune(data)
	n := len(r)
	var b strings.Builder
	b.Grow(len(data))

	for i := 0; i < n; {
		for i < n && (r[i] == ' ' || r[i] == '\t') {
			b.WriteRune(r[i])
			i++
		}

		if i < n && r[i] == '"' {
			b.WriteRune('"')
			i++
			for i < n {
				switch {
				case r[i] == '\\' && i+1 < n:
					if r[i+1] == '"' {
						b.WriteString(`""`)
					} else {
						b.WriteRune(r[i+1])
					}
					i += 2
					continue
				case r[i] == '"' && i+1 < n && r[i+1] == '"':
					b.WriteString(`""`)
					i += 2
					continue
				case r[i] == '"':
					b.WriteRune('"')
					i++
				default:
					b.WriteRune(r[i])
					i++
					continue
				}
				break
			}
			for i < n && !fieldEnd(r, i) {
				b.WriteRune(r[i])
				i++
			}
		} else {
			var field strings.Builder
			escaped := false
			for i < n && !fieldEnd(r, i) {
				if r[i] == '\\' && i+1 < n {
					field.WriteRune(r[i+1])
					escaped = true
					i += 2
					continue
				}
				field.WriteRune(r[i])
				i++
			}
			if escaped {
				b.WriteString(`"` + strings.ReplaceAll(field.String(), `"`, `""`) + `"`)
			} else {
				b.WriteString(field.String())
			}
		}

		if i < n {
			b.WriteRune(r[i])
			i++
		}
	}
	return b.String()
}

// fieldEnd reports whether r[i] ends an unquoted field.
func fieldEnd(r []rune, i int) bool {
	switch r[i] {
	case ',', '\n':
		return true
	case '\r':
		return i+1 < len(r) && r[i+1] == '\n'
	}
	return false
}

// ReadCSV parses a club CSV. Columns are matched by header name,
// case-insensitively; unknown columns are ignored.
// A backslash escapes the next character, in quoted and unquoted fields.
func ReadCSV(r io.Reader) ([]Club, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read clubs CSV: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(normalizeEscapes(string(data))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []Club{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read clubs CSV header: %w", err)
	}

	columns := make([]string, len(header))
	hasName := false
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if columns[i] == "club_name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, ErrMissingClubName
	}

	clubs := make([]Club, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse clubs CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		var club Club
		for i, value := range record {
			if i < len(columns) {
				club.setField(columns[i], strings.TrimSpace(value))
			}
		}
		if err := club.Validate(); err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		clubs = append(clubs, club)
	}

	return clubs, nil
}
