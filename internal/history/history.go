// Package history appends one row per answered question to a local CSV file.
package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// DefaultPath is the history file used when none is configured.
const DefaultPath = "history.csv"

// Header is the first row of every history file.
var Header = []string{"timestamp", "question", "answer", "score", "start", "end", "model", "tokenizer"}

// Record is one history row.
type Record struct {
	Timestamp time.Time
	Question  types.Question
	Answer    types.Answer
	ExtraData types.ExtraData
}

// NewRecord builds a Record from a pipeline result.
func NewRecord(result *types.Result, now time.Time) Record {
	return Record{
		Timestamp: now.UTC(),
		Question:  result.Question,
		Answer:    result.Answer,
		ExtraData: result.ExtraData,
	}
}

func (r Record) row() []string {
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		string(r.Question),
		string(r.Answer),
		strconv.FormatFloat(r.ExtraData.Score, 'f', -1, 64),
		strconv.Itoa(r.ExtraData.Start),
		strconv.Itoa(r.ExtraData.End),
		r.ExtraData.Model,
		r.ExtraData.Tokenizer,
	}
}

// serializes appends within the process
var mu sync.Mutex

// Append writes rec to the CSV file at path, creating the file and its
// header when it does not exist yet.
func Append(path string, rec Record) error {
	if path == "" {
		path = DefaultPath
	}

	mu.Lock()
	defer mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat history file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}
	if err := w.Write(rec.row()); err != nil {
		return fmt.Errorf("failed to write history row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush history file: %w", err)
	}
	return nil
}
