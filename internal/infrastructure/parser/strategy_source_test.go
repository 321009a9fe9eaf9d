package parser

import (
	"context"
	"testing"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/scanner"
)

type stubScanner struct {
	name string
	req  scanner.Request
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(_ context.Context, req scanner.Request) ([]domain.Lead, error) {
	s.req = req
	return []domain.Lead{{Title: "a"}}, nil
}

func TestStrategySourceBuildsRequestFromConfig(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: "stub"}
	reg := scanner.NewRegistry()
	reg.Register(stub)

	src := NewStrategySource(reg, []config.PlatformConfig{{
		Name: "forum", Tag: "FR", Label: "Forum", Scanner: "stub",
		Channels: []string{"x"}, Limit: 7, ReplyCap: 3, Lookback: time.Hour,
	}}, nil)

	platforms := src.Platforms()
	if len(platforms) != 1 || platforms[0].Tag != "FR" {
		t.Fatalf("unexpected platforms: %+v", platforms)
	}

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	leads, err := src.Scan(context.Background(), platforms[0], now)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(leads) != 1 || leads[0].Source != "FR" || leads[0].Comments == nil {
		t.Fatalf("expected defaults applied to leads: %+v", leads)
	}
	if stub.req.Limit != 7 || stub.req.ReplyCap != 3 || !stub.req.Now.Equal(now) || stub.req.Lookback != time.Hour {
		t.Fatalf("unexpected request: %+v", stub.req)
	}

	_, count, err := src.Enrich(context.Background(), platforms[0], leads, map[string]struct{}{"a": {}})
	if err != nil || count != 0 {
		t.Fatalf("single-phase scanner enrichment should be a no-op, got %d, %v", count, err)
	}
}

func TestStrategySourceUnknownScanner(t *testing.T) {
	t.Parallel()

	src := NewStrategySource(scanner.NewRegistry(), []config.PlatformConfig{{Name: "p", Scanner: "missing"}}, nil)
	if _, err := src.Scan(context.Background(), domain.Platform{Name: "p"}, time.Now()); err == nil {
		t.Fatalf("expected resolve error")
	}
	if _, err := src.Scan(context.Background(), domain.Platform{Name: "other"}, time.Now()); err == nil {
		t.Fatalf("expected unknown platform error")
	}
}
