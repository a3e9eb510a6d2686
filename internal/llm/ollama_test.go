package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ollamaServer streams chunks as newline-delimited GenerateResponse objects.
func ollamaServer(t *testing.T, chunks []string, check func(req map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(req)
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for i, chunk := range chunks {
			_ = enc.Encode(map[string]any{
				"model":    req["model"],
				"response": chunk,
				"done":     i == len(chunks)-1,
			})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestOllama(t *testing.T, server *httptest.Server) *OllamaClient {
	t.Helper()
	config := DefaultOllamaConfig()
	config.Host = server.URL
	client, err := NewOllamaClient(config, server.Client())
	require.NoError(t, err)
	return client
}

func TestOllamaClient_GenerateContent(t *testing.T) {
	server := ollamaServer(t, []string{"Foaad ", "Khosmood"}, func(req map[string]any) {
		assert.Equal(t, "llama3.2:1b", req["model"])
		assert.Equal(t, "who?", req["prompt"])
		assert.Nil(t, req["format"])
	})
	client := newTestOllama(t, server)

	text, err := client.GenerateContent(context.Background(), "who?", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "Foaad Khosmood", text)
}

func TestOllamaClient_GenerateJSON(t *testing.T) {
	server := ollamaServer(t, []string{"```json\n{\"answer\": ", "\"14-210\", \"score\": 0.8}\n```"}, func(req map[string]any) {
		assert.Equal(t, "json", req["format"])
	})
	client := newTestOllama(t, server)

	text, err := client.GenerateJSON(context.Background(), "where?", TierStandard)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer": "14-210", "score": 0.8}`, text)
}

func TestOllamaClient_EmptyResponse(t *testing.T) {
	server := ollamaServer(t, []string{""}, nil)
	client := newTestOllama(t, server)

	_, err := client.GenerateContent(context.Background(), "who?", TierStandard)
	assert.Error(t, err)
}

func TestOllamaClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama3.2\" not found"}`))
	}))
	defer server.Close()
	client := newTestOllama(t, server)

	_, err := client.GenerateContent(context.Background(), "who?", TierStandard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNewOllamaClient_InvalidHost(t *testing.T) {
	_, err := NewOllamaClient(&Config{Provider: ProviderOllama, Host: "::bad"}, nil)
	assert.Error(t, err)
}

func TestOllamaClient_NoModel(t *testing.T) {
	client, err := NewOllamaClient(&Config{Provider: ProviderOllama, Host: "http://localhost:1"}, nil)
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), "who?", TierStandard)
	assert.ErrorContains(t, err, "no model configured")
}
