package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/cache"
	"github.com/calpoly-csai/nimbus-transformer/internal/db"
	"github.com/calpoly-csai/nimbus-transformer/internal/fetch"
	"github.com/calpoly-csai/nimbus-transformer/internal/llm"
	"github.com/calpoly-csai/nimbus-transformer/internal/metrics"
	"github.com/calpoly-csai/nimbus-transformer/internal/pipeline"
	"github.com/calpoly-csai/nimbus-transformer/internal/qa"
	"github.com/calpoly-csai/nimbus-transformer/internal/search"
)

// app holds everything a question needs plus the resources to release.
type app struct {
	pipeline *pipeline.Pipeline
	client   llm.Client
	database *db.DB
	answers  *cache.AnswerCache
}

// Close releases the model client and storage connections.
func (a *app) Close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			log.Debug("failed to close model client", zap.Error(err))
		}
	}
	if a.answers != nil {
		_ = a.answers.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}

// appOptions selects the optional parts of an app.
type appOptions struct {
	Pipeline pipeline.Options
	// Storage connects Postgres and Redis when they are configured.
	Storage bool
	Metrics prometheus.Registerer
}

// newExtractor creates the QA model client and extractor.
func newExtractor(ctx context.Context) (llm.Client, *qa.Extractor, error) {
	llmConfig := cfg.LLMConfig()
	if llmConfig.Provider == llm.ProviderGemini && llmConfig.APIKey == "" {
		return nil, nil, fmt.Errorf("%w: set NIMBUS_API_KEY or GEMINI_API_KEY, or use provider ollama", llm.ErrMissingAPIKey)
	}

	client, err := llm.NewClient(ctx, llmConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	qaConfig := qa.DefaultConfig()
	qaConfig.Tokenizer = cfg.Tokenizer
	return client, qa.NewExtractor(client, qaConfig, log), nil
}

// pipelineOptions returns the pipeline options from the loaded config.
func pipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Site = cfg.Site
	opts.Results = cfg.Results
	opts.Concurrency = cfg.Concurrency
	opts.Relevance = cfg.RelevanceOptions()
	opts.Sections = cfg.Sections
	opts.History = cfg.History
	return opts
}

// newApp wires search, fetch, the model and the optional sinks.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	client, extractor, err := newExtractor(ctx)
	if err != nil {
		return nil, err
	}
	a := &app{client: client}

	var fetcher fetch.PageFetcher = fetch.NewFetcher(cfg.FetcherConfig(), log)
	searcher := search.New(cfg.SearchConfig(), log)

	if opts.Storage && cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("continuing without database", zap.Error(err))
		} else if err := database.Migrate(ctx); err != nil {
			log.Warn("continuing without database", zap.Error(err))
			database.Close()
		} else {
			a.database = database
			fetcher = fetch.NewCachedFetcher(fetcher, database.Pages(), cfg.PageCacheTTL, log)
		}
	}

	a.pipeline = pipeline.New(searcher, fetcher, extractor, opts.Pipeline, log)
	if a.database != nil {
		a.pipeline.WithStore(a.database)
	}

	if opts.Storage && cfg.RedisAddress != "" {
		answers := cache.New(cfg.CacheOptions())
		if err := answers.Ping(ctx); err != nil {
			log.Warn("continuing without answer cache", zap.Error(err))
			_ = answers.Close()
		} else {
			a.answers = answers
			a.pipeline.WithCache(answers)
		}
	}

	if opts.Metrics != nil {
		a.pipeline.WithMetrics(metrics.New(opts.Metrics))
	}
	return a, nil
}

// requireDatabase connects to the configured database or fails.
func requireDatabase(ctx context.Context) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("no database configured: set NIMBUS_DATABASE_URL or DATABASE_URL")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
