package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/calpoly-csai/nimbus-transformer/internal/llm"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// fakeClient replays canned JSON responses in order.
type fakeClient struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no more responses")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-qa-model" }

func (f *fakeClient) Close() error { return nil }

const csaiContext = types.Context("The advisor for Computer Science and Artificial Intelligence is Foaad Khosmood.\nThe club meets on Fridays.")

func TestExtractor_Answer(t *testing.T) {
	client := &fakeClient{responses: []string{`{"answer": "Foaad Khosmood", "score": 0.87}`}}
	e := NewExtractor(client, DefaultConfig(), zaptest.NewLogger(t))

	answer, extra, err := e.Answer(context.Background(), "who is the advisor for CSAI?", csaiContext)
	require.NoError(t, err)
	assert.Equal(t, types.Answer("Foaad Khosmood"), answer)
	assert.Equal(t, types.ExtraData{
		Score:     0.87,
		Start:     64,
		End:       78,
		Tokenizer: "fake-qa-model",
		Model:     "fake-qa-model",
	}, extra)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Question: who is the advisor for CSAI?")
	assert.Contains(t, client.prompts[0], string(csaiContext))
}

func TestExtractor_EmptyContextSkipsModel(t *testing.T) {
	client := &fakeClient{}
	e := NewExtractor(client, Config{Tokenizer: "bert-base-cased"}, nil)

	for _, c := range []types.Context{"", "  \n\t "} {
		answer, extra, err := e.Answer(context.Background(), "anything?", c)
		require.NoError(t, err)
		assert.Equal(t, types.IDK, answer)
		assert.Zero(t, extra.Score)
		assert.Equal(t, "bert-base-cased", extra.Tokenizer)
		assert.Equal(t, "fake-qa-model", extra.Model)
	}
	assert.Empty(t, client.prompts)
}

func TestExtractor_EmptyAnswerIsIDK(t *testing.T) {
	client := &fakeClient{responses: []string{`{"answer": "", "score": 0.4}`}}
	e := NewExtractor(client, DefaultConfig(), nil)

	answer, extra, err := e.Answer(context.Background(), "what is the wifi password?", csaiContext)
	require.NoError(t, err)
	assert.Equal(t, types.IDK, answer)
	assert.Zero(t, extra.Score)
	assert.Len(t, client.prompts, 1)
}

func TestExtractor_RetriesNonExtractiveAnswer(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"answer": "Dr. Khosmood", "score": 0.9}`,
		`{"answer": "foaad khosmood", "score": 0.7}`,
	}}
	e := NewExtractor(client, DefaultConfig(), zaptest.NewLogger(t))

	answer, extra, err := e.Answer(context.Background(), "who advises CSAI?", csaiContext)
	require.NoError(t, err)
	assert.Equal(t, types.Answer("Foaad Khosmood"), answer)
	assert.InDelta(t, 0.7, extra.Score, 1e-9)
	require.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], `"Dr. Khosmood"`)
}

func TestExtractor_NonExtractiveWithoutRetry(t *testing.T) {
	client := &fakeClient{responses: []string{`{"answer": "Dr. Khosmood", "score": 0.9}`}}
	config := DefaultConfig()
	config.RetryNotExtractive = false
	e := NewExtractor(client, config, zaptest.NewLogger(t))

	answer, extra, err := e.Answer(context.Background(), "who advises CSAI?", csaiContext)
	require.NoError(t, err)
	assert.Equal(t, types.IDK, answer)
	assert.Zero(t, extra.Score)
	assert.Zero(t, extra.Start)
	assert.Zero(t, extra.End)
}

func TestExtractor_ClampsScore(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`{"answer": "Fridays", "score": 3.5}`, 1},
		{`{"answer": "Fridays", "score": -0.2}`, 0},
		{`{"answer": "Fridays", "score": 0.5}`, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			e := NewExtractor(&fakeClient{responses: []string{tt.raw}}, DefaultConfig(), nil)
			_, extra, err := e.Answer(context.Background(), "when does the club meet?", csaiContext)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, extra.Score, 1e-9)
		})
	}
}

func TestExtractor_InvalidModelOutput(t *testing.T) {
	tests := []string{
		`{"answer": "Fridays"}`,
		`{"answer": 12, "score": 1}`,
		`not json at all`,
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			e := NewExtractor(&fakeClient{responses: []string{raw}}, DefaultConfig(), nil)
			answer, _, err := e.Answer(context.Background(), "when?", csaiContext)
			require.Error(t, err)
			assert.Equal(t, types.IDK, answer)
		})
	}
}

func TestExtractor_ClientError(t *testing.T) {
	e := NewExtractor(&fakeClient{err: errors.New("quota exceeded")}, DefaultConfig(), nil)

	_, _, err := e.Answer(context.Background(), "when?", csaiContext)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExtractor_TruncatesContext(t *testing.T) {
	long := types.Context(strings.Repeat("a", 50) + "NEEDLE")
	client := &fakeClient{responses: []string{`{"answer": "NEEDLE", "score": 1}`}}
	e := NewExtractor(client, Config{MaxContextRunes: 50}, nil)

	answer, _, err := e.Answer(context.Background(), "where is the needle?", long)
	require.NoError(t, err)
	assert.Equal(t, types.IDK, answer)
	assert.NotContains(t, client.prompts[0], "NEEDLE")
}

func TestExtractor_ImplementsTransformer(t *testing.T) {
	var _ Transformer = NewExtractor(&fakeClient{}, DefaultConfig(), nil)
}
