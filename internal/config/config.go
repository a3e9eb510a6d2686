// Package config loads the CLI and server configuration from an optional
// config file, a .env file and NIMBUS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/calpoly-csai/nimbus-transformer/internal/cache"
	"github.com/calpoly-csai/nimbus-transformer/internal/fetch"
	"github.com/calpoly-csai/nimbus-transformer/internal/llm"
	"github.com/calpoly-csai/nimbus-transformer/internal/logger"
	"github.com/calpoly-csai/nimbus-transformer/internal/query"
	"github.com/calpoly-csai/nimbus-transformer/internal/relevance"
	"github.com/calpoly-csai/nimbus-transformer/internal/search"
)

// EnvPrefix prefixes every environment override, e.g. NIMBUS_FUZZ.
const EnvPrefix = "NIMBUS"

// Config represents the CLI and server configuration.
// All fields are optional; missing values use Defaults.
type Config struct {
	// Search
	Site          string        `mapstructure:"site" validate:"required"`
	SearchBaseURL string        `mapstructure:"search_base_url" validate:"required,url"`
	Results       int           `mapstructure:"results" validate:"gte=1,lte=20"`
	Pause         time.Duration `mapstructure:"pause"`

	// Fetch
	Concurrency  int           `mapstructure:"concurrency" validate:"gte=1,lte=32"`
	UseBrowser   bool          `mapstructure:"use_browser"`
	IgnoreRobots bool          `mapstructure:"ignore_robots"`
	Sections     bool          `mapstructure:"sections"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	PageCacheTTL time.Duration `mapstructure:"page_cache_ttl"`
	UserAgent    string        `mapstructure:"user_agent"`

	// Relevance filter
	Fuzz      int `mapstructure:"fuzz" validate:"gte=0,lte=100"`
	Limit     int `mapstructure:"limit" validate:"gte=0"`
	MinLength int `mapstructure:"min_length" validate:"gte=0"`

	// Model
	Provider    string  `mapstructure:"provider" validate:"oneof=gemini ollama"`
	Model       string  `mapstructure:"model"`
	Tokenizer   string  `mapstructure:"tokenizer"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	OllamaHost  string  `mapstructure:"ollama_host" validate:"omitempty,url"`
	APIKey      string  `mapstructure:"api_key" json:"-"`

	// Storage
	DatabaseURL   string        `mapstructure:"database_url" json:"-"`
	RedisAddress  string        `mapstructure:"redis_address"`
	RedisPassword string        `mapstructure:"redis_password" json:"-"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`
	AnswerTTL     time.Duration `mapstructure:"answer_ttl"`
	History       string        `mapstructure:"history"`

	// Server
	Port      int     `mapstructure:"port" validate:"gte=0,lte=65535"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gte=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=console json"`
	LogFile   string `mapstructure:"log_file"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Site:          query.DefaultSite,
		SearchBaseURL: query.DefaultSearchBaseURL,
		Results:       search.DefaultResults,
		Pause:         search.DefaultPause,
		Concurrency:   fetch.DefaultConcurrency,
		FetchTimeout:  fetch.DefaultTimeout,
		PageCacheTTL:  fetch.DefaultPageCacheTTL,
		UserAgent:     fetch.DefaultUserAgent,
		Fuzz:          relevance.DefaultFuzzThreshold,
		Limit:         relevance.DefaultLimit,
		MinLength:     relevance.DefaultMinLength,
		Provider:      string(llm.ProviderGemini),
		Temperature:   llm.DefaultTemperature,
		AnswerTTL:     cache.DefaultTTL,
		Port:          8080,
		RateLimit:     1,
		RateBurst:     5,
		LogLevel:      "warn",
		LogFormat:     logger.FormatConsole,
	}
}

// envAliases are environment variables read in addition to NIMBUS_<KEY>.
var envAliases = map[string][]string{
	"api_key":       {"GEMINI_API_KEY"},
	"database_url":  {"DATABASE_URL"},
	"ollama_host":   {"OLLAMA_HOST"},
	"redis_address": {"REDIS_ADDR"},
}

// Load reads .env (when present), the config file at path (when non-empty)
// and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(key)}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every field so AutomaticEnv applies to Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("site", d.Site)
	v.SetDefault("search_base_url", d.SearchBaseURL)
	v.SetDefault("results", d.Results)
	v.SetDefault("pause", d.Pause)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("use_browser", d.UseBrowser)
	v.SetDefault("ignore_robots", d.IgnoreRobots)
	v.SetDefault("sections", d.Sections)
	v.SetDefault("fetch_timeout", d.FetchTimeout)
	v.SetDefault("page_cache_ttl", d.PageCacheTTL)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("fuzz", d.Fuzz)
	v.SetDefault("limit", d.Limit)
	v.SetDefault("min_length", d.MinLength)
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("tokenizer", d.Tokenizer)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("ollama_host", d.OllamaHost)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("redis_address", d.RedisAddress)
	v.SetDefault("redis_password", d.RedisPassword)
	v.SetDefault("redis_db", d.RedisDB)
	v.SetDefault("answer_ttl", d.AnswerTTL)
	v.SetDefault("history", d.History)
	v.SetDefault("port", d.Port)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("rate_burst", d.RateBurst)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_file", d.LogFile)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	// The API key is checked when a client is created so commands without
	// a model still work.
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// Bool fields cannot distinguish unset from false and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	mergeInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}
	mergeDuration := func(dst *time.Duration, def time.Duration) {
		if *dst == 0 {
			*dst = def
		}
	}

	mergeString(&result.Site, defaults.Site)
	mergeString(&result.SearchBaseURL, defaults.SearchBaseURL)
	mergeString(&result.UserAgent, defaults.UserAgent)
	mergeString(&result.Provider, defaults.Provider)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.Tokenizer, defaults.Tokenizer)
	mergeString(&result.OllamaHost, defaults.OllamaHost)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.RedisAddress, defaults.RedisAddress)
	mergeString(&result.History, defaults.History)
	mergeString(&result.LogLevel, defaults.LogLevel)
	mergeString(&result.LogFormat, defaults.LogFormat)
	mergeString(&result.LogFile, defaults.LogFile)

	mergeInt(&result.Results, defaults.Results)
	mergeInt(&result.Concurrency, defaults.Concurrency)
	mergeInt(&result.Fuzz, defaults.Fuzz)
	mergeInt(&result.Limit, defaults.Limit)
	mergeInt(&result.MinLength, defaults.MinLength)
	mergeInt(&result.Port, defaults.Port)
	mergeInt(&result.RateBurst, defaults.RateBurst)

	mergeDuration(&result.Pause, defaults.Pause)
	mergeDuration(&result.FetchTimeout, defaults.FetchTimeout)
	mergeDuration(&result.PageCacheTTL, defaults.PageCacheTTL)
	mergeDuration(&result.AnswerTTL, defaults.AnswerTTL)

	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}
	if result.RateLimit == 0 {
		result.RateLimit = defaults.RateLimit
	}

	return result
}

// LLMConfig returns the model client configuration.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfigFor(llm.Provider(c.Provider))
	if c.Model != "" {
		cfg = cfg.WithModel(llm.TierStandard, c.Model)
	}
	cfg.Temperature = c.Temperature
	cfg.Host = c.OllamaHost
	cfg.APIKey = c.APIKey
	return cfg
}

// RelevanceOptions returns the relevance filter settings.
func (c *Config) RelevanceOptions() relevance.Options {
	return relevance.Options{
		MinLength:     c.MinLength,
		FuzzThreshold: c.Fuzz,
		Limit:         c.Limit,
	}
}

// FetchOptions returns the HTTP options shared by search and fetch.
func (c *Config) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.FetchTimeout > 0 {
		opts.Timeout = c.FetchTimeout
	}
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	return opts
}

// FetcherConfig returns the page fetcher configuration.
func (c *Config) FetcherConfig() *fetch.FetcherConfig {
	fc := fetch.DefaultFetcherConfig()
	fc.Options = c.FetchOptions()
	fc.RespectRobots = !c.IgnoreRobots
	fc.UseBrowser = c.UseBrowser
	return fc
}

// SearchConfig returns the searcher configuration.
func (c *Config) SearchConfig() search.Config {
	return search.Config{
		BaseURL: c.SearchBaseURL,
		Pause:   c.Pause,
		Options: c.FetchOptions(),
	}
}

// CacheOptions returns the Redis answer cache settings.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Address:  c.RedisAddress,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TTL:      c.AnswerTTL,
	}
}

// LoggerOptions returns the logger settings.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.DefaultOptions()
	if c.LogLevel != "" {
		opts.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		opts.Format = c.LogFormat
	}
	opts.File = c.LogFile
	return opts
}
