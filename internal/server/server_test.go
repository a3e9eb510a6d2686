package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/calpoly-csai/nimbus-transformer/internal/db"
	"github.com/calpoly-csai/nimbus-transformer/internal/fetch"
	"github.com/calpoly-csai/nimbus-transformer/internal/metrics"
	"github.com/calpoly-csai/nimbus-transformer/internal/pipeline"
	"github.com/calpoly-csai/nimbus-transformer/internal/schemas"
	"github.com/calpoly-csai/nimbus-transformer/internal/search"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

type fakeAsker struct {
	mu        sync.Mutex
	overrides []pipeline.Overrides
	err       error
}

func (f *fakeAsker) AskWith(_ context.Context, q types.Question, o pipeline.Overrides) (*types.Result, error) {
	f.mu.Lock()
	f.overrides = append(f.overrides, o)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(string(q)) == "" {
		return nil, pipeline.ErrEmptyQuestion
	}
	if o.OnProgress != nil {
		o.OnProgress(pipeline.ProgressEvent{Stage: pipeline.StageSearch, Message: "searching"})
		o.OnProgress(pipeline.ProgressEvent{Stage: pipeline.StageQA, Message: "asking the model"})
	}
	return &types.Result{
		ID:        "11111111-1111-1111-1111-111111111111",
		Question:  q,
		Answer:    "building 35",
		ExtraData: types.ExtraData{Score: 0.8, Start: 10, End: 21, Model: "fake", Tokenizer: "fake"},
		Context:   "secret context",
	}, nil
}

type fakeStore struct {
	answers  map[uuid.UUID]*db.AnswerRecord
	feedback []db.Feedback
	err      error
}

func (f *fakeStore) GetAnswer(_ context.Context, id uuid.UUID) (*db.AnswerRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.answers[id], nil
}

func (f *fakeStore) SaveFeedback(_ context.Context, id uuid.UUID, helpful bool, comment string) (*db.Feedback, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.answers[id]; !ok {
		return nil, db.ErrAnswerNotFound
	}
	fb := db.Feedback{ID: uuid.New(), AnswerID: id, Helpful: helpful}
	if comment != "" {
		fb.Comment = &comment
	}
	f.feedback = append(f.feedback, fb)
	return &fb, nil
}

var knownAnswer = uuid.MustParse("22222222-2222-2222-2222-222222222222")

func newTestServer(t *testing.T, asker Asker, store AnswerStore) *Server {
	t.Helper()
	cfg := Config{Port: 0, RateLimit: 100, RateBurst: 100, Gatherer: prometheus.NewRegistry()}
	return New(cfg, asker, store, zaptest.NewLogger(t))
}

func newFakeStore() *fakeStore {
	return &fakeStore{answers: map[uuid.UUID]*db.AnswerRecord{
		knownAnswer: {ID: knownAnswer, Question: "where is the library?", Answer: "building 35"},
	}}
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleAsk(t *testing.T) {
	asker := &fakeAsker{}
	s := newTestServer(t, asker, nil)

	rec := do(t, s, "POST", "/ask", `{"question": "where is the kennedy library?", "results": 3, "sections": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, "building 35", body["answer"])
	assert.Equal(t, "where is the kennedy library?", body["question"])
	assert.NotContains(t, rec.Body.String(), "secret context")

	require.Len(t, asker.overrides, 1)
	assert.Equal(t, 3, asker.overrides[0].Results)
	require.NotNil(t, asker.overrides[0].Sections)
	assert.True(t, *asker.overrides[0].Sections)
}

func TestHandleAsk_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing question", `{}`, "question"},
		{"empty question", `{"question": ""}`, "question"},
		{"unknown field", `{"question": "q", "foo": 1}`, "foo"},
		{"too many results", `{"question": "q", "results": 50}`, "results"},
		{"not json", `{question`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker := &fakeAsker{}
			s := newTestServer(t, asker, nil)

			rec := do(t, s, "POST", "/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.want)
			assert.Empty(t, asker.overrides)
		})
	}
}

func TestHandleAsk_BlankQuestion(t *testing.T) {
	s := newTestServer(t, &fakeAsker{}, nil)

	rec := do(t, s, "POST", "/ask", `{"question": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAsk_PipelineError(t *testing.T) {
	s := newTestServer(t, &fakeAsker{err: errors.New("search failed: dial tcp")}, nil)

	rec := do(t, s, "POST", "/ask", `{"question": "where is the library?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
}

func TestHandleAsk_SearchEngineError(t *testing.T) {
	err := fmt.Errorf("search failed: %w", &search.Error{Query: "where is the library?", Message: "HTTP status 429"})
	s := newTestServer(t, &fakeAsker{err: err}, nil)

	rec := do(t, s, "POST", "/ask", `{"question": "where is the library?"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream search unavailable", decode(t, rec)["error"])
}

func TestHandleAskStream(t *testing.T) {
	s := newTestServer(t, &fakeAsker{}, nil)

	rec := do(t, s, "POST", "/ask/stream", `{"question": "where is the library?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	out := rec.Body.String()
	assert.Contains(t, out, "event: progress\ndata: {\"message\":\"searching\",\"stage\":\"search\"}\n\n")
	assert.Contains(t, out, "event: result\n")
	assert.Less(t, strings.Index(out, "event: progress"), strings.Index(out, "event: result"))
}

func TestHandleAskStream_Error(t *testing.T) {
	s := newTestServer(t, &fakeAsker{err: pipeline.ErrEmptyQuestion}, nil)

	rec := do(t, s, "POST", "/ask/stream", `{"question": "q"}`)
	assert.Contains(t, rec.Body.String(), "event: error\n")
	assert.Contains(t, rec.Body.String(), "question is empty")
}

func TestHandleGetAnswer(t *testing.T) {
	s := newTestServer(t, &fakeAsker{}, newFakeStore())

	rec := do(t, s, "GET", "/answers/"+knownAnswer.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "building 35", decode(t, rec)["answer"])

	rec = do(t, s, "GET", "/answers/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, "GET", "/answers/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFeedback(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, &fakeAsker{}, store)

	rec := do(t, s, "POST", "/answers/"+knownAnswer.String()+"/feedback", `{"helpful": false, "comment": "wrong building"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.feedback, 1)
	assert.False(t, store.feedback[0].Helpful)
	assert.Equal(t, "wrong building", *store.feedback[0].Comment)

	rec = do(t, s, "POST", "/answers/"+uuid.NewString()+"/feedback", `{"helpful": true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, "POST", "/answers/"+knownAnswer.String()+"/feedback", `{"comment": "no verdict"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFeedback_NoStore(t *testing.T) {
	s := newTestServer(t, &fakeAsker{}, nil)

	rec := do(t, s, "POST", "/answers/"+knownAnswer.String()+"/feedback", `{"helpful": true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeAsker{}, nil)

	rec := do(t, s, "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	s.WithHealthCheck("redis", func(context.Context) error { return nil })
	s.WithHealthCheck("postgres", func(context.Context) error { return errors.New("connection refused") })

	rec = do(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["redis"])
	assert.Equal(t, "connection refused", checks["postgres"])
}

func TestHandleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Question("web")

	s := New(Config{Gatherer: reg, RateLimit: 1, RateBurst: 1}, &fakeAsker{}, nil, zaptest.NewLogger(t))
	rec := do(t, s, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nimbus_questions_total{source="web"} 1`)
}

func TestRateLimit(t *testing.T) {
	s := New(Config{RateLimit: 0.01, RateBurst: 2, Gatherer: prometheus.NewRegistry()}, &fakeAsker{}, nil, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		rec := do(t, s, "POST", "/ask", `{"question": "q"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do(t, s, "POST", "/ask", `{"question": "q"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode(t, rec)["error"])

	// Health is never limited.
	rec = do(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &fakeAsker{}, nil)

	rec := do(t, s, "OPTIONS", "/ask", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&ErrValidation{Field: "id"}))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&schemas.ValidationError{}))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(pipeline.ErrEmptyQuestion))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(db.ErrAnswerNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrStoreDisabled))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(fmt.Errorf("search failed: %w", &search.Error{Query: "q", Message: "HTTP status 429"})))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&search.LinkExtractionError{Message: "bad page"}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&fetch.Error{URL: "https://www.calpoly.edu/", Message: "HTTP status 503"}))
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, &fakeAsker{}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Post(url+"/ask", "application/json", bytes.NewBufferString(`{"question": "q"}`))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
