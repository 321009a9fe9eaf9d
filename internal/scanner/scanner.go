package scanner

import (
	"context"
	"fmt"
	"time"

	"LeadScout/internal/domain"
)

// Request carries all parameters required to execute a scan for one platform.
type Request struct {
	Now      time.Time
	Platform domain.Platform
	// Channels are subreddits, search keywords, or whatever the strategy lists one request per.
	Channels []string
	Limit    int
	Sort     string
	// Lookback discards threads older than Now-Lookback; zero keeps everything.
	Lookback time.Duration
	ReplyCap int
	MaxDepth int
	// RequestDelay is the fixed gap between consecutive requests of one scan.
	RequestDelay time.Duration
	// RateLimitBackoff is slept once before retrying a rate-limited request.
	RateLimitBackoff time.Duration
}

// Scanner captures a single platform strategy (Hacker News search, Reddit feeds, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Lead, error)
}

// Enricher is implemented by two-phase strategies that defer reply retrieval.
// Leads outside titles are returned untouched.
type Enricher interface {
	Enrich(ctx context.Context, req Request, leads []domain.Lead, titles map[string]struct{}) ([]domain.Lead, int)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
