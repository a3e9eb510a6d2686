// Package llm provides the language model clients behind question answering.
// A Client hides whether answers come from Gemini or a local Ollama server.
package llm

import "time"

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for short extractive answers over small contexts.
	TierLite ModelTier = "lite"
	// TierStandard is the default tier for question answering.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long or noisy contexts.
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider.
type Provider string

// Supported providers.
const (
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini Provider = "gemini"
	// ProviderOllama is a local or self-hosted Ollama server.
	ProviderOllama Provider = "ollama"
)

// DefaultTemperature keeps answers close to the context.
const DefaultTemperature = 0.1

// DefaultRequestTimeout bounds a single generation call.
const DefaultRequestTimeout = 60 * time.Second

// Config holds the model configuration for the application.
type Config struct {
	Provider    Provider             `json:"provider" mapstructure:"provider" validate:"oneof=gemini ollama"`
	Models      map[ModelTier]string `json:"models" mapstructure:"models"`
	Temperature float32              `json:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	// Host is the Ollama server URL. Empty uses OLLAMA_HOST or the local default.
	Host string `json:"host,omitempty" mapstructure:"host"`
	// APIKey is the Gemini API key.
	APIKey string `json:"-" mapstructure:"api_key"`
}

// DefaultConfig returns the default configuration (Gemini).
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration.
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// DefaultOllamaConfig returns the default Ollama configuration.
func DefaultOllamaConfig() *Config {
	return &Config{
		Provider: ProviderOllama,
		Models: map[ModelTier]string{
			TierLite:     "llama3.2:1b",
			TierStandard: "llama3.2",
			TierAdvanced: "llama3.1:8b",
		},
		Temperature: DefaultTemperature,
	}
}

// DefaultConfigFor returns the default configuration of provider.
// Unknown providers get the Gemini defaults.
func DefaultConfigFor(provider Provider) *Config {
	if provider == ProviderOllama {
		return DefaultOllamaConfig()
	}
	return DefaultGeminiConfig()
}

// GetModel returns the model name for a given tier.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	// Fallback chain: standard, then lite
	if model, ok := c.Models[TierStandard]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierLite]; ok && model != "" {
		return model
	}
	return ""
}

// WithModel returns a copy of the Config with a specific model for a tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
