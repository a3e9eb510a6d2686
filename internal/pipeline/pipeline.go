// Package pipeline wires search, fetch, relevance filtering and the QA model
// into a single question answering call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/cache"
	"github.com/calpoly-csai/nimbus-transformer/internal/fetch"
	"github.com/calpoly-csai/nimbus-transformer/internal/metrics"
	"github.com/calpoly-csai/nimbus-transformer/internal/qa"
	"github.com/calpoly-csai/nimbus-transformer/internal/query"
	"github.com/calpoly-csai/nimbus-transformer/internal/relevance"
	"github.com/calpoly-csai/nimbus-transformer/internal/search"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("question is empty")

// Stage names reported through ProgressEvent.
const (
	StageCache  = "cache"
	StageSearch = "search"
	StageFetch  = "fetch"
	StageFilter = "filter"
	StageQA     = "qa"
	StageStore  = "store"
)

// ProgressEvent represents a progress update during a question
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Searcher returns result URLs for a query.
type Searcher interface {
	Search(ctx context.Context, q types.Query, limit int) ([]types.URL, error)
}

var _ Searcher = (*search.Searcher)(nil)

// AnswerCache caches results by question and scope. The scope string
// identifies every setting that changes the answer for a question.
type AnswerCache interface {
	Get(ctx context.Context, question types.Question, scope string) (*types.Result, error)
	Set(ctx context.Context, scope string, result *types.Result) error
}

var _ AnswerCache = (*cache.AnswerCache)(nil)

// AnswerStore persists results.
type AnswerStore interface {
	SaveAnswer(ctx context.Context, result *types.Result) (uuid.UUID, error)
}

// Options holds per-pipeline settings.
type Options struct {
	Site        string
	Results     int
	Concurrency int
	Relevance   relevance.Options

	// Sections builds the context from the first HTML sections of each page
	// instead of the full page text.
	Sections     bool
	SectionLimit int

	// History is the CSV file each answer is appended to. Empty disables it.
	History    string
	OnProgress ProgressCallback
}

// DefaultOptions returns the settings used by the ask command.
func DefaultOptions() Options {
	return Options{
		Site:         query.DefaultSite,
		Results:      search.DefaultResults,
		Concurrency:  fetch.DefaultConcurrency,
		Relevance:    relevance.DefaultOptions(),
		SectionLimit: fetch.DefaultSectionLimit,
	}
}

// Pipeline answers questions about the campus.
type Pipeline struct {
	searcher    Searcher
	fetcher     fetch.PageFetcher
	transformer qa.Transformer
	cache       AnswerCache
	store       AnswerStore
	metrics     *metrics.Metrics
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a Pipeline. searcher and fetcher may be nil for a pipeline
// that only answers from documents.
func New(searcher Searcher, fetcher fetch.PageFetcher, transformer qa.Transformer, opts Options, logger *zap.Logger) *Pipeline {
	if opts.Results <= 0 {
		opts.Results = search.DefaultResults
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = fetch.DefaultConcurrency
	}
	if opts.SectionLimit <= 0 {
		opts.SectionLimit = fetch.DefaultSectionLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		searcher:    searcher,
		fetcher:     fetcher,
		transformer: transformer,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// WithCache enables the answer cache.
func (p *Pipeline) WithCache(c AnswerCache) *Pipeline {
	p.cache = c
	return p
}

// WithStore enables answer persistence.
func (p *Pipeline) WithStore(s AnswerStore) *Pipeline {
	p.store = s
	return p
}

// WithMetrics enables Prometheus metrics.
func (p *Pipeline) WithMetrics(m *metrics.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// emitProgress calls the progress callback if configured
func (p *Pipeline) emitProgress(stage, message string, content any) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{Stage: stage, Message: message, Content: content})
	}
}

// Ask answers question from the pages a web search returns for it.
func (p *Pipeline) Ask(ctx context.Context, question types.Question) (*types.Result, error) {
	question = types.Question(strings.TrimSpace(string(question)))
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if p.searcher == nil || p.fetcher == nil {
		return nil, fmt.Errorf("pipeline has no searcher or fetcher")
	}

	start := p.now()
	p.metrics.Question("web")
	log := p.logger.With(zap.String("question", string(question)))

	if cached := p.lookupCache(ctx, question); cached != nil {
		p.emitProgress(StageCache, "answer served from cache", cached)
		return cached, nil
	}

	q := query.Create(question, p.opts.Site)
	p.emitProgress(StageSearch, "searching", q)
	searchStart := time.Now()
	urls, err := p.searcher.Search(ctx, q, p.opts.Results)
	p.metrics.ObserveStage(metrics.StageSearch, searchStart)
	if err != nil {
		if len(urls) == 0 {
			p.metrics.Answer(metrics.OutcomeError)
			return nil, fmt.Errorf("search failed: %w", err)
		}
		log.Warn("search stopped early", zap.Int("urls", len(urls)), zap.Error(err))
	}
	log.Debug("search results", zap.Int("urls", len(urls)))

	p.emitProgress(StageFetch, fmt.Sprintf("fetching %d pages", len(urls)), urls)
	fetchStart := time.Now()
	outcomes, err := fetch.FetchAll(ctx, p.fetcher, urlStrings(urls), p.opts.Concurrency)
	p.metrics.ObserveStage(metrics.StageFetch, fetchStart)
	if err != nil {
		p.metrics.Answer(metrics.OutcomeError)
		return nil, fmt.Errorf("fetch cancelled: %w", err)
	}

	sources, pages := p.collect(outcomes, log)

	filterStart := time.Now()
	c := p.buildContext(question, pages)
	p.metrics.ObserveStage(metrics.StageFilter, filterStart)
	p.recordContext(c)

	result, err := p.answer(ctx, question, c)
	if err != nil {
		return nil, err
	}
	result.Query = q
	result.Sources = sources

	p.finish(ctx, result, log)
	p.metrics.ObserveStage(metrics.StageTotal, start)
	return result, nil
}

// Overrides changes Options for a single question.
type Overrides struct {
	Results    int
	Sections   *bool
	OnProgress ProgressCallback
}

// AskWith is Ask with per-question overrides. Zero fields keep the pipeline settings.
func (p *Pipeline) AskWith(ctx context.Context, question types.Question, o Overrides) (*types.Result, error) {
	clone := *p
	if o.Results > 0 {
		clone.opts.Results = o.Results
	}
	if o.Sections != nil {
		clone.opts.Sections = *o.Sections
	}
	if o.OnProgress != nil {
		clone.opts.OnProgress = o.OnProgress
	}
	return clone.Ask(ctx, question)
}

// AskDocument answers question from a local document, such as the clubs
// document, skipping search and fetch.
func (p *Pipeline) AskDocument(ctx context.Context, question types.Question, document string) (*types.Result, error) {
	question = types.Question(strings.TrimSpace(string(question)))
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	start := p.now()
	p.metrics.Question("document")
	log := p.logger.With(zap.String("question", string(question)))

	filterStart := time.Now()
	c := relevance.Filter(question, document, p.opts.Relevance)
	p.metrics.ObserveStage(metrics.StageFilter, filterStart)
	p.recordContext(c)

	result, err := p.answer(ctx, question, c)
	if err != nil {
		return nil, err
	}

	p.appendHistory(result, log)
	p.metrics.ObserveStage(metrics.StageTotal, start)
	return result, nil
}

// page is the usable content of one fetched URL.
type page struct {
	html string
	text string
}

// collect turns fetch outcomes into sources and the pages with content.
func (p *Pipeline) collect(outcomes []fetch.Outcome, log *zap.Logger) ([]types.Source, []page) {
	sources := make([]types.Source, 0, len(outcomes))
	pages := make([]page, 0, len(outcomes))

	for _, o := range outcomes {
		src := types.Source{URL: types.URL(o.URL), Timestamp: p.now().UTC().Format(time.RFC3339)}
		if o.Result != nil {
			src.StatusCode = o.Result.StatusCode
			if !o.Result.FetchedAt.IsZero() {
				src.Timestamp = o.Result.FetchedAt.UTC().Format(time.RFC3339)
			}
		}
		if o.Err != nil {
			src.Error = o.Err.Error()
			p.metrics.Fetch(false)
			log.Debug("fetch failed", zap.String("url", o.URL), zap.Error(o.Err))
			sources = append(sources, src)
			continue
		}

		p.metrics.Fetch(true)
		src.Hash = hashText(o.Result.Text)
		sources = append(sources, src)
		pages = append(pages, page{html: o.Result.HTML, text: o.Result.Text})
	}
	return sources, pages
}

// buildContext filters the fetched pages down to the lines relevant to question.
func (p *Pipeline) buildContext(question types.Question, pages []page) types.Context {
	if p.opts.Sections {
		sections := make([]string, 0)
		for _, pg := range pages {
			sections = append(sections, p.pageSections(pg)...)
		}
		return relevance.FilterSections(question, sections)
	}

	texts := make([]string, 0, len(pages))
	for _, pg := range pages {
		if pg.text != "" {
			texts = append(texts, pg.text)
		}
	}
	return relevance.Filter(question, strings.Join(texts, "\n"), p.opts.Relevance)
}

// pageSections returns the first sections of a page. Pages without HTML,
// such as PDFs, contribute their first text lines instead.
func (p *Pipeline) pageSections(pg page) []string {
	if pg.html != "" {
		sections, err := fetch.ExtractSections(pg.html, p.opts.SectionLimit)
		if err == nil && len(sections) > 0 {
			return sections
		}
	}
	lines := relevance.Lines(pg.text)
	if len(lines) > p.opts.SectionLimit {
		lines = lines[:p.opts.SectionLimit]
	}
	return lines
}

// recordContext reports the filtered context size in runes.
func (p *Pipeline) recordContext(c types.Context) {
	n := utf8.RuneCountInString(string(c))
	p.metrics.Context(n)
	p.emitProgress(StageFilter, fmt.Sprintf("context has %d characters", n), c)
}

// answer runs the QA model and builds the result.
func (p *Pipeline) answer(ctx context.Context, question types.Question, c types.Context) (*types.Result, error) {
	p.emitProgress(StageQA, "asking the model", nil)
	qaStart := time.Now()
	answer, extra, err := p.transformer.Answer(ctx, question, c)
	p.metrics.ObserveStage(metrics.StageQA, qaStart)
	if err != nil {
		p.metrics.Answer(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	if answer.IsIDK() {
		p.metrics.Answer(metrics.OutcomeIDK)
	} else {
		p.metrics.Answer(metrics.OutcomeFound)
	}

	return &types.Result{
		ID:            uuid.NewString(),
		Question:      question,
		Answer:        answer,
		ExtraData:     extra,
		Context:       c,
		ContextLength: utf8.RuneCountInString(string(c)),
	}, nil
}
