// Package qa answers a question from a context by extracting a span of the
// context, the way an extractive question-answering model does.
package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/llm"
	"github.com/calpoly-csai/nimbus-transformer/internal/prompts"
	"github.com/calpoly-csai/nimbus-transformer/internal/schemas"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// ErrNotExtractive is reported when the model answer is not a span of the context.
var ErrNotExtractive = errors.New("answer is not a span of the context")

// DefaultMaxContextRunes bounds the context sent to the model.
const DefaultMaxContextRunes = 16000

const promptFile = "qa.json"

// Transformer answers a question from a context.
type Transformer interface {
	Answer(ctx context.Context, question types.Question, c types.Context) (types.Answer, types.ExtraData, error)
}

// Config configures an Extractor.
type Config struct {
	Tier llm.ModelTier
	// Tokenizer is reported in ExtraData. Empty means the model name.
	Tokenizer       string
	MaxContextRunes int
	// RetryNotExtractive asks the model once more when its answer is not a span.
	RetryNotExtractive bool
}

// DefaultConfig returns the standard extractor configuration.
func DefaultConfig() Config {
	return Config{
		Tier:               llm.TierStandard,
		MaxContextRunes:    DefaultMaxContextRunes,
		RetryNotExtractive: true,
	}
}

// Extractor is a Transformer backed by an llm.Client.
type Extractor struct {
	client llm.Client
	config Config
	logger *zap.Logger
}

// NewExtractor creates an Extractor. A nil logger disables logging.
func NewExtractor(client llm.Client, config Config, logger *zap.Logger) *Extractor {
	if config.Tier == "" {
		config.Tier = llm.TierStandard
	}
	if config.MaxContextRunes <= 0 {
		config.MaxContextRunes = DefaultMaxContextRunes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, config: config, logger: logger}
}

type modelAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// Answer returns the best answer span for question in c.
// An empty context, an empty model answer, and an answer that is not a span
// of the context all yield IDK with score 0.
func (e *Extractor) Answer(ctx context.Context, question types.Question, c types.Context) (types.Answer, types.ExtraData, error) {
	extra := e.extraData()
	if c.IsEmpty() {
		return types.IDK, extra, nil
	}

	text := truncateRunes(string(c), e.config.MaxContextRunes)
	data := map[string]string{
		"Question": string(question),
		"Context":  text,
	}

	got, err := e.ask(ctx, "extract-answer", data)
	if err != nil {
		return types.IDK, extra, err
	}

	span, start, end, ok := Span(text, got.Answer)
	if !ok && got.Answer != "" && e.config.RetryNotExtractive {
		e.logger.Debug("retrying non-extractive answer", zap.String("answer", got.Answer))
		data["Answer"] = got.Answer
		if got, err = e.ask(ctx, "retry-not-extractive", data); err != nil {
			return types.IDK, extra, err
		}
		span, start, end, ok = Span(text, got.Answer)
	}

	if !ok {
		if got.Answer != "" {
			e.logger.Info("discarding answer",
				zap.String("answer", got.Answer),
				zap.Error(ErrNotExtractive),
			)
		}
		return types.IDK, extra, nil
	}

	extra.Score = clamp(got.Score)
	extra.Start = start
	extra.End = end
	return types.Answer(span), extra, nil
}

func (e *Extractor) ask(ctx context.Context, key string, data map[string]string) (modelAnswer, error) {
	prompt, err := prompts.Render(promptFile, key, data)
	if err != nil {
		return modelAnswer{}, err
	}

	raw, err := e.client.GenerateJSON(ctx, prompt, e.config.Tier)
	if err != nil {
		return modelAnswer{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	if err := schemas.Validate(schemas.Answer, []byte(raw)); err != nil {
		return modelAnswer{}, fmt.Errorf("invalid model answer: %w", err)
	}

	var got modelAnswer
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		return modelAnswer{}, fmt.Errorf("failed to decode model answer: %w", err)
	}
	return got, nil
}

func (e *Extractor) extraData() types.ExtraData {
	model := e.client.GetModel(e.config.Tier)
	tokenizer := e.config.Tokenizer
	if tokenizer == "" {
		tokenizer = model
	}
	return types.ExtraData{Tokenizer: tokenizer, Model: model}
}

func clamp(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
