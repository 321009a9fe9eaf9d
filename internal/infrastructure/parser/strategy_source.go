package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
	"LeadScout/internal/scanner"
)

// StrategySource implements LeadSource via registered scanner strategies.
type StrategySource struct {
	registry  *scanner.Registry
	platforms []config.PlatformConfig
	logger    *slog.Logger
}

var _ ports.LeadSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined platforms.
func NewStrategySource(reg *scanner.Registry, platforms []config.PlatformConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:  reg,
		platforms: platforms,
		logger:    logging.Component(log, "source"),
	}
}

// Platforms lists configured platforms in configuration order.
func (s *StrategySource) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(s.platforms))
	for _, p := range s.platforms {
		out = append(out, toPlatform(p))
	}
	return out
}

// Scan runs the platform's scanner strategy.
func (s *StrategySource) Scan(ctx context.Context, platform domain.Platform, now time.Time) ([]domain.Lead, error) {
	strategy, req, err := s.resolve(platform, now)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scan platform", "platform", platform.Name, "scanner", strategy.Name(), "channels", len(req.Channels))
	leads, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scan platform %s: %w", platform.Name, err)
	}

	for i := range leads {
		if leads[i].Source == "" {
			leads[i].Source = platform.Tag
		}
		if leads[i].Comments == nil {
			leads[i].Comments = []domain.Comment{}
		}
	}
	s.logger.Debug("platform produced leads", "platform", platform.Name, "count", len(leads))
	return leads, nil
}

// Enrich deepens the selected leads when the strategy supports a second phase; otherwise it is a no-op.
func (s *StrategySource) Enrich(ctx context.Context, platform domain.Platform, leads []domain.Lead, titles map[string]struct{}) ([]domain.Lead, int, error) {
	if len(titles) == 0 {
		return leads, 0, nil
	}

	strategy, req, err := s.resolve(platform, time.Now())
	if err != nil {
		return leads, 0, err
	}

	enricher, ok := strategy.(scanner.Enricher)
	if !ok {
		s.logger.Debug("scanner has no enrichment phase", "platform", platform.Name, "scanner", strategy.Name())
		return leads, 0, nil
	}

	enriched, count := enricher.Enrich(ctx, req, leads, titles)
	return enriched, count, nil
}

func (s *StrategySource) resolve(platform domain.Platform, now time.Time) (scanner.Scanner, scanner.Request, error) {
	if s.registry == nil {
		return nil, scanner.Request{}, fmt.Errorf("scanner registry is not configured")
	}

	for _, p := range s.platforms {
		if p.Name != platform.Name {
			continue
		}
		strategy, err := s.registry.Resolve(p.Scanner)
		if err != nil {
			return nil, scanner.Request{}, fmt.Errorf("platform %s: %w", p.Name, err)
		}
		return strategy, toRequest(p, now), nil
	}
	return nil, scanner.Request{}, fmt.Errorf("platform %s is not configured", platform.Name)
}

func toPlatform(p config.PlatformConfig) domain.Platform {
	return domain.Platform{Name: p.Name, Tag: p.Tag, Label: p.Label}
}

func toRequest(p config.PlatformConfig, now time.Time) scanner.Request {
	return scanner.Request{
		Now:              now,
		Platform:         toPlatform(p),
		Channels:         p.Channels,
		Limit:            p.Limit,
		Sort:             p.Sort,
		Lookback:         p.Lookback,
		ReplyCap:         p.ReplyCap,
		MaxDepth:         p.MaxDepth,
		RequestDelay:     p.RequestDelay,
		RateLimitBackoff: p.RateLimitBackoff,
	}
}
