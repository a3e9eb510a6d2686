package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaClient implements Client for an Ollama server.
type OllamaClient struct {
	client *api.Client
	config *Config
}

// NewOllamaClient creates a client for config.Host, falling back to OLLAMA_HOST.
// A nil httpClient uses a client with DefaultRequestTimeout.
func NewOllamaClient(config *Config, httpClient *http.Client) (*OllamaClient, error) {
	if config == nil {
		config = DefaultOllamaConfig()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}

	hostURL := envconfig.Host()
	if config.Host != "" {
		parsed, err := url.Parse(config.Host)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid Ollama host %q", config.Host)
		}
		hostURL = parsed
	}

	return &OllamaClient{
		client: api.NewClient(hostURL, httpClient),
		config: config,
	}, nil
}

// GenerateContent generates text content using the specified model tier.
func (c *OllamaClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, nil)
}

// GenerateJSON asks Ollama for JSON output using the specified model tier.
func (c *OllamaClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, json.RawMessage(`"json"`))
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *OllamaClient) generate(ctx context.Context, prompt string, tier ModelTier, format json.RawMessage) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	req := api.GenerateRequest{
		Model:  modelName,
		Prompt: prompt,
		Format: format,
		Options: map[string]interface{}{
			"temperature": c.config.Temperature,
			"num_predict": 256,
		},
	}

	var responseBuilder strings.Builder
	err := c.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	if responseBuilder.Len() == 0 {
		return "", fmt.Errorf("empty response from model %s", modelName)
	}
	return responseBuilder.String(), nil
}

// GetModel returns the model name for a tier.
func (c *OllamaClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no resources of its own.
func (c *OllamaClient) Close() error {
	return nil
}
