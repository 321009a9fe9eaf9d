package review

import (
	"context"
	"fmt"
	"log/slog"

	"LeadScout/internal/domain"
	"LeadScout/internal/infrastructure/llm"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

const (
	defaultMaxCandidates = 100
	defaultBodyChars     = 400
	minScore             = 0
	maxScore             = 10
)

// BatchScorer rates all prefiltered candidates of one platform in a single prompt.
// One instance is shared across platforms so credential exhaustion carries over.
type BatchScorer struct {
	caller        ports.PromptCaller
	product       string
	maxCandidates int
	bodyChars     int
	logger        *slog.Logger
}

var _ ports.LeadScorer = (*BatchScorer)(nil)

// ScorerConfig bounds the prompt.
type ScorerConfig struct {
	Product       string
	MaxCandidates int
	BodyChars     int
}

// NewBatchScorer binds a caller that owns its own key rotation.
func NewBatchScorer(caller ports.PromptCaller, cfg ScorerConfig, logger *slog.Logger) *BatchScorer {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}
	if cfg.BodyChars <= 0 {
		cfg.BodyChars = defaultBodyChars
	}
	return &BatchScorer{
		caller:        caller,
		product:       cfg.Product,
		maxCandidates: cfg.MaxCandidates,
		bodyChars:     cfg.BodyChars,
		logger:        logging.Component(logger, "scorer"),
	}
}

// Score returns every valid verdict sorted by descending score. Exhausted credentials or
// retries yield (nil, nil); only non-retryable failures are returned as errors.
func (s *BatchScorer) Score(ctx context.Context, candidates []domain.Lead) ([]domain.ScoredLead, error) {
	if len(candidates) == 0 {
		return []domain.ScoredLead{}, nil
	}
	if s.caller == nil {
		return nil, fmt.Errorf("scorer has no llm caller")
	}

	if len(candidates) > s.maxCandidates {
		s.logger.Warn("candidate batch capped", "candidates", len(candidates), "kept", s.maxCandidates)
		candidates = candidates[:s.maxCandidates]
	}

	prompt := BuildScoringPrompt(s.product, candidates, s.bodyChars)

	var items []ScoreItem
	_, err := s.caller.Call(ctx, prompt, func(text string) error {
		parsed, perr := ParseScoreResponse(text)
		if perr != nil {
			return perr
		}
		items = parsed
		return nil
	})
	if err != nil {
		if llm.Exhausted(err) {
			s.logger.Warn("scoring skipped, llm unavailable", "candidates", len(candidates), "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("score batch of %d: %w", len(candidates), err)
	}

	scored := s.assign(candidates, items)
	domain.SortByScore(scored)
	s.logger.Info("batch scored", "candidates", len(candidates), "scored", len(scored))
	return scored, nil
}

// assign maps 1-based indices back onto candidates, dropping out-of-range,
// duplicate, and out-of-scale items one by one.
func (s *BatchScorer) assign(candidates []domain.Lead, items []ScoreItem) []domain.ScoredLead {
	seen := make(map[int]struct{}, len(items))
	out := make([]domain.ScoredLead, 0, len(items))

	for _, item := range items {
		if item.Index < 1 || item.Index > len(candidates) {
			s.logger.Warn("dropped out-of-range index", "index", item.Index, "candidates", len(candidates))
			continue
		}
		if _, dup := seen[item.Index]; dup {
			s.logger.Warn("dropped duplicate index", "index", item.Index)
			continue
		}
		seen[item.Index] = struct{}{}
		if item.Score < minScore || item.Score > maxScore {
			s.logger.Warn("dropped out-of-scale score", "index", item.Index, "score", item.Score)
			continue
		}

		lead := candidates[item.Index-1]
		out = append(out, domain.ScoredLead{
			Title:           lead.Title,
			URL:             lead.URL,
			RelevanceScore:  item.Score,
			Analysis:        item.Analysis,
			EngagementCount: lead.EngagementCount,
		})
	}
	return out
}
