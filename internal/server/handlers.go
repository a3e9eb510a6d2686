package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/pipeline"
	"github.com/calpoly-csai/nimbus-transformer/internal/schemas"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// healthTimeout bounds each dependency check.
const healthTimeout = 2 * time.Second

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
	Results  int    `json:"results,omitempty"`
	Sections *bool  `json:"sections,omitempty"`
}

// FeedbackRequest is the body of POST /answers/{id}/feedback.
type FeedbackRequest struct {
	Helpful bool   `json:"helpful"`
	Comment string `json:"comment,omitempty"`
}

// readJSON reads the body, validates it against schema and decodes it into v.
func readJSON(w http.ResponseWriter, r *http.Request, schema string, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := schemas.Validate(schema, body); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// errorMessage returns the client-facing message for err.
func errorMessage(err error) string {
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		return ve.Summary()
	}
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusBadGateway:
		return upstreamMessage
	}
	return err.Error()
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error("request failed", zap.Error(err))
	case http.StatusBadGateway:
		s.logger.Warn("upstream failed", zap.Error(err))
	}
	s.errorResponse(w, status, errorMessage(err))
}

// handleAsk answers a question.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := readJSON(w, r, schemas.AskRequest, &req); err != nil {
		s.fail(w, err)
		return
	}

	result, err := s.asker.AskWith(r.Context(), types.Question(req.Question), pipeline.Overrides{
		Results:  req.Results,
		Sections: req.Sections,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAskStream answers a question and streams progress as Server-Sent Events.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := readJSON(w, r, schemas.AskRequest, &req); err != nil {
		s.fail(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.asker.AskWith(r.Context(), types.Question(req.Question), pipeline.Overrides{
		Results:  req.Results,
		Sections: req.Sections,
		OnProgress: func(e pipeline.ProgressEvent) {
			if err := sse.WriteProgress(e); err != nil {
				s.logger.Debug("failed to stream progress", zap.Error(err))
			}
		},
	})
	if err != nil {
		s.logger.Warn("streamed question failed", zap.Error(err))
		sse.WriteError(errorMessage(err))
		return
	}
	if err := sse.WriteResult(result); err != nil {
		s.logger.Debug("failed to stream result", zap.Error(err))
	}
}

// handleGetAnswer returns a stored answer with its context.
func (s *Server) handleGetAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}
	if s.store == nil {
		s.fail(w, ErrStoreDisabled)
		return
	}

	answer, err := s.store.GetAnswer(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if answer == nil {
		s.errorResponse(w, http.StatusNotFound, "answer not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, answer)
}

// handleFeedback marks an answer as helpful or not.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}
	if s.store == nil {
		s.fail(w, ErrStoreDisabled)
		return
	}

	var req FeedbackRequest
	if err := readJSON(w, r, schemas.FeedbackRequest, &req); err != nil {
		s.fail(w, err)
		return
	}

	feedback, err := s.store.SaveFeedback(r.Context(), id, req.Helpful, req.Comment)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, feedback)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	s.jsonResponse(w, status, body)
}
