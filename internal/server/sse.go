package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/calpoly-csai/nimbus-transformer/internal/pipeline"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// Event names on /ask/stream.
const (
	eventProgress = "progress"
	eventResult   = "result"
	eventError    = "error"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// SSEWriter streams the stages of one question as Server-Sent Events.
// Progress callbacks may come from fetch goroutines, so writes are serialized.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers on w.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends data as JSON under the named event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteProgress sends a pipeline stage update. Stage content such as the
// filtered context is left out of the stream.
func (s *SSEWriter) WriteProgress(e pipeline.ProgressEvent) error {
	return s.WriteEvent(eventProgress, map[string]string{"stage": e.Stage, "message": e.Message})
}

// WriteResult sends the final answer.
func (s *SSEWriter) WriteResult(result *types.Result) error {
	return s.WriteEvent(eventResult, result)
}

// WriteError sends an error event. The stream is over after it.
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent(eventError, map[string]string{"error": message}) //nolint:errcheck
}
