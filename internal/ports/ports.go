package ports

import (
	"context"
	"time"

	"LeadScout/internal/domain"
)

// LeadSource harvests threads for configured platforms and deepens selected ones.
type LeadSource interface {
	Platforms() []domain.Platform
	Scan(ctx context.Context, platform domain.Platform, now time.Time) ([]domain.Lead, error)
	// Enrich fetches replies for the leads whose titles are in titles and reports how many were enriched.
	Enrich(ctx context.Context, platform domain.Platform, leads []domain.Lead, titles map[string]struct{}) ([]domain.Lead, int, error)
}

// TextGenerator sends one prompt to a language model using the given credential.
type TextGenerator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// PromptCaller sends one prompt with retry and credential rotation. accept validates
// a reply; a rejected reply counts as a failed attempt.
type PromptCaller interface {
	Call(ctx context.Context, prompt string, accept func(string) error) (string, error)
}

// LeadScorer rates prefiltered candidates in a single batch.
type LeadScorer interface {
	Score(ctx context.Context, candidates []domain.Lead) ([]domain.ScoredLead, error)
}

// InsightSynthesizer turns top leads into a free-form brief; empty means unavailable.
type InsightSynthesizer interface {
	Synthesize(ctx context.Context, platform domain.Platform, top []domain.ScoredLead, threads []domain.Lead) string
}

// PlaybookBuilder produces the cross-platform campaign playbook for a date.
type PlaybookBuilder interface {
	Run(ctx context.Context, day time.Time) (string, bool, error)
}

// ArtifactStore persists per-platform lead maps, reports, and playbooks.
type ArtifactStore interface {
	SaveLeads(platform domain.Platform, day time.Time, leads []domain.Lead) (string, error)
	SaveReport(platform domain.Platform, day time.Time, markdown string) (string, error)
	CollectReports(day time.Time) ([]domain.PlatformReport, error)
	SavePlaybook(day time.Time, markdown string) (string, error)
}

// LeadLedger keeps scored leads across runs for auditing.
type LeadLedger interface {
	RecordScored(ctx context.Context, runID, platform string, day time.Time, scored []domain.ScoredLead) error
	RecentHighSignal(ctx context.Context, platform string, since time.Time, limit int) ([]domain.LedgerEntry, error)
}

// Notifier streams heartbeat digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
