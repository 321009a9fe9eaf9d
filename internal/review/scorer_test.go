package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
	"LeadScout/internal/infrastructure/llm"
)

type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", fmt.Errorf("%w: 429", llm.ErrQuotaExceeded)
}

func newScorer(gen *fakeGenerator, keys []string, maxCandidates int) *BatchScorer {
	caller := llm.NewCaller(gen, llm.NewKeyRotator(keys), llm.WithRotateDelay(0))
	return NewBatchScorer(caller, ScorerConfig{MaxCandidates: maxCandidates, BodyChars: 20}, nil)
}

func leads(titles ...string) []domain.Lead {
	out := make([]domain.Lead, 0, len(titles))
	for i, title := range titles {
		out = append(out, domain.Lead{
			Title:           title,
			URL:             "https://example.com/" + title,
			BodyText:        strings.Repeat("x", 50),
			EngagementCount: i + 1,
		})
	}
	return out
}

func TestBatchScorerMapsIndicesAndSorts(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{"```json\n" + `[
		{"index": 1, "score": 3, "analysis": "meh"},
		{"index": 2, "score": 9, "analysis": "hot"},
		{"index": 7, "score": 10, "analysis": "hallucinated"},
		{"index": 2, "score": 1, "analysis": "duplicate"},
		{"index": 3, "score": 11, "analysis": "off scale"},
		{"index": 4, "score": 9, "analysis": "tie", "extra": true}
	]` + "\n```"}}
	scorer := newScorer(gen, []string{"k1"}, 0)

	scored, err := scorer.Score(context.Background(), leads("a", "b", "c", "d"))
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.Equal(t, "b", scored[0].Title)
	assert.Equal(t, "d", scored[1].Title, "ties keep arrival order")
	assert.Equal(t, "a", scored[2].Title)
	assert.Equal(t, 2, scored[0].EngagementCount)
	assert.Equal(t, "https://example.com/b", scored[0].URL)
	assert.Equal(t, 1, gen.calls)
}

func TestBatchScorerAllQuotaReturnsEmpty(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	scorer := newScorer(gen, []string{"k1", "k2", "k3"}, 0)

	scored, err := scorer.Score(context.Background(), leads("a"))
	require.NoError(t, err)
	assert.Empty(t, scored)
	assert.LessOrEqual(t, gen.calls, 6)

	calls := gen.calls
	scored, err = scorer.Score(context.Background(), leads("b"))
	require.NoError(t, err)
	assert.Empty(t, scored)
	assert.Equal(t, calls, gen.calls, "exhausted scorer issues no further calls")
}

func TestBatchScorerRotatesOnMalformedReply(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{
		"Sure! Here are the scores: [...]",
		`[{"index": 1, "score": 6}]`,
		`[{"index": 1, "score": 6, "analysis": "fits"}]`,
	}}
	scorer := newScorer(gen, []string{"k1", "k2", "k3"}, 0)

	scored, err := scorer.Score(context.Background(), leads("a"))
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, 6, scored[0].RelevanceScore)
	assert.Equal(t, 3, gen.calls)
}

func TestBatchScorerTransportErrorAborts(t *testing.T) {
	t.Parallel()

	transport := errors.New("dial tcp: connection refused")
	gen := &fakeGenerator{errs: []error{transport}}
	scorer := newScorer(gen, []string{"k1", "k2"}, 0)

	scored, err := scorer.Score(context.Background(), leads("a"))
	require.ErrorIs(t, err, transport)
	assert.Nil(t, scored)
	assert.Equal(t, 1, gen.calls)
}

func TestBatchScorerCapsCandidates(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{`[{"index": 3, "score": 5, "analysis": "dropped"}]`}}
	scorer := newScorer(gen, []string{"k1"}, 2)

	scored, err := scorer.Score(context.Background(), leads("a", "b", "c"))
	require.NoError(t, err)
	assert.Empty(t, scored, "index 3 is out of range once the batch is capped to 2")
	require.Len(t, gen.prompts, 1)
	assert.NotContains(t, gen.prompts[0], "title: c")
}

func TestBatchScorerEmptyInputSkipsCall(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	scorer := newScorer(gen, []string{"k1"}, 0)

	scored, err := scorer.Score(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, scored)
	assert.Zero(t, gen.calls)
}

func TestBuildScoringPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildScoringPrompt("NitroStack builds MCP servers", []domain.Lead{
		{Title: "Best MCP server for Claude", BodyText: "line one\nline two", EngagementCount: 4},
		{Title: "SDK question", BodyText: "αβγδεζηθ", EngagementCount: 0},
	}, 4)

	assert.Contains(t, prompt, "1. title: Best MCP server for Claude")
	assert.Contains(t, prompt, "   body: line\n")
	assert.Contains(t, prompt, "2. title: SDK question")
	assert.Contains(t, prompt, "   body: αβγδ\n")
	assert.Contains(t, prompt, "engagement_count: 4")
	assert.Contains(t, prompt, "NitroStack builds MCP servers")
}

func TestBatchScorerThresholdBetweenFourAndFive(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{`[
		{"index": 1, "score": 4, "analysis": "almost"},
		{"index": 2, "score": 5, "analysis": "just enough"}
	]`}}
	scored, err := newScorer(gen, []string{"k1"}, 0).Score(context.Background(), leads("four", "five"))
	require.NoError(t, err)
	require.Len(t, scored, 2)

	high := domain.HighSignal(scored)
	require.Len(t, high, 1)
	assert.Equal(t, "five", high[0].Title)
}
