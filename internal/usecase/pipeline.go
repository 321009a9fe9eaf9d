package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
	"LeadScout/internal/report"
)

// digestLeadsPerPlatform bounds the outbound notification.
const digestLeadsPerPlatform = 3

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Insight, Ledger, Playbook, Notifier, and Output are optional.
type PipelineDeps struct {
	Source   ports.LeadSource
	Scorer   ports.LeadScorer
	Insight  ports.InsightSynthesizer
	Store    ports.ArtifactStore
	Ledger   ports.LeadLedger
	Playbook ports.PlaybookBuilder
	Notifier ports.Notifier
	Output   io.Writer
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Pipeline implements the heartbeat: harvest, prefilter, score, enrich, report, synthesize.
type Pipeline struct {
	source   ports.LeadSource
	scorer   ports.LeadScorer
	insight  ports.InsightSynthesizer
	store    ports.ArtifactStore
	ledger   ports.LeadLedger
	playbook ports.PlaybookBuilder
	notifier ports.Notifier
	output   io.Writer
	logger   *slog.Logger
	clock    func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		source:   deps.Source,
		scorer:   deps.Scorer,
		insight:  deps.Insight,
		store:    deps.Store,
		ledger:   deps.Ledger,
		playbook: deps.Playbook,
		notifier: deps.Notifier,
		output:   deps.Output,
		logger:   logging.Component(deps.Logger, "pipeline"),
		clock:    clock,
	}
}

// ProcessDay runs every platform in order, then the campaign stage and the digest.
// A failing platform never stops its siblings; failures are joined into the result.
func (p *Pipeline) ProcessDay(ctx context.Context, now time.Time) error {
	if p.source == nil || p.store == nil || p.scorer == nil {
		return fmt.Errorf("pipeline is not configured")
	}

	runID := uuid.NewString()
	p.logger.Info("heartbeat started", "run_id", runID, "day", domain.DayKey(now))

	var (
		errs      []error
		summaries []domain.RunSummary
	)
	for _, platform := range p.source.Platforms() {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		summary, err := p.RunPlatform(ctx, runID, platform, now)
		if err != nil {
			p.logger.Error("platform failed", "platform", platform.Name, "error", err)
			errs = append(errs, fmt.Errorf("platform %s: %w", platform.Name, err))
			continue
		}
		summaries = append(summaries, summary)
	}

	playbookPath := ""
	if p.playbook != nil {
		path, ok, err := p.playbook.Run(ctx, now)
		switch {
		case err != nil:
			p.logger.Error("campaign stage failed", "error", err)
			errs = append(errs, fmt.Errorf("campaign: %w", err))
		case ok:
			playbookPath = path
		}
	}

	if p.notifier != nil {
		if digest := BuildDigest(now, summaries, playbookPath); digest != "" {
			if err := p.notifier.PublishDigest(ctx, digest); err != nil {
				p.logger.Warn("digest not delivered", "error", err)
			}
		}
	}

	p.logger.Info("heartbeat finished", "run_id", runID, "platforms", len(summaries), "failed", len(errs))
	return errors.Join(errs...)
}

// RunPlatform executes the two-phase flow for one platform.
func (p *Pipeline) RunPlatform(ctx context.Context, runID string, platform domain.Platform, now time.Time) (domain.RunSummary, error) {
	summary := domain.RunSummary{RunID: runID, Platform: platform, Day: now}
	log := p.logger.With("platform", platform.Name)

	leads, err := p.source.Scan(ctx, platform, now)
	if err != nil {
		return summary, fmt.Errorf("scan: %w", err)
	}
	summary.Harvested = len(leads)

	jsonPath, err := p.store.SaveLeads(platform, now, leads)
	if err != nil {
		return summary, fmt.Errorf("save leads: %w", err)
	}
	summary.JSONPath = jsonPath

	candidates := SelectCandidates(leads)
	summary.Candidates = len(candidates)
	log.Info("leads harvested", "harvested", len(leads), "candidates", len(candidates), "path", jsonPath)

	scored, err := p.scorer.Score(ctx, candidates)
	if err != nil {
		log.Warn("scoring failed, reporting empty batch", "error", err)
		scored = nil
	}
	high := domain.HighSignal(scored)
	summary.HighSignal = high
	log.Info("batch reviewed", "scored", len(scored), "high_signal", len(high))

	if len(high) > 0 {
		enriched, count, err := p.source.Enrich(ctx, platform, leads, domain.Titles(high))
		if err != nil {
			log.Warn("enrichment failed", "error", err)
		} else if count > 0 {
			leads = enriched
			summary.Enriched = count
			if _, err := p.store.SaveLeads(platform, now, leads); err != nil {
				return summary, fmt.Errorf("save enriched leads: %w", err)
			}
			log.Info("high-signal leads enriched", "enriched", count)
		}
	}

	insight := ""
	if p.insight != nil && len(high) > 0 {
		insight = p.insight.Synthesize(ctx, platform, high, leads)
	}

	markdown := report.RenderMarkdown(report.MarkdownInput{
		Platform:    platform,
		Day:         now,
		GeneratedAt: p.clock(),
		Leads:       high,
		Insight:     insight,
	})
	reportPath, err := p.store.SaveReport(platform, now, markdown)
	if err != nil {
		return summary, fmt.Errorf("save report: %w", err)
	}
	summary.ReportPath = reportPath
	log.Info("report written", "path", reportPath)

	if p.output != nil {
		fmt.Fprintf(p.output, "\n%s: high-signal leads\n", platform.Label)
		if err := report.RenderTable(p.output, high); err != nil {
			log.Warn("table not rendered", "error", err)
		}
	}

	if p.ledger != nil {
		if err := p.ledger.RecordScored(ctx, runID, platform.Name, now, scored); err != nil {
			log.Warn("ledger write failed", "error", err)
		}
	}

	return summary, nil
}

// BuildDigest renders a plain-text summary of the top leads per platform; empty when nothing was found.
func BuildDigest(now time.Time, summaries []domain.RunSummary, playbookPath string) string {
	var b strings.Builder
	total := 0
	for _, s := range summaries {
		if len(s.HighSignal) == 0 {
			continue
		}
		label := s.Platform.Label
		if label == "" {
			label = s.Platform.Name
		}
		fmt.Fprintf(&b, "%s: %d high-signal of %d harvested\n", label, len(s.HighSignal), s.Harvested)
		for i, lead := range s.HighSignal {
			if i == digestLeadsPerPlatform {
				break
			}
			fmt.Fprintf(&b, "- [%d/10] %s\n%s\n", lead.RelevanceScore, lead.Title, lead.URL)
		}
		b.WriteString("\n")
		total += len(s.HighSignal)
	}
	if total == 0 {
		return ""
	}

	header := fmt.Sprintf("LeadScout heartbeat %s\n\n", domain.DayKey(now))
	footer := ""
	if playbookPath != "" {
		footer = "Playbook: " + playbookPath + "\n"
	}
	return header + b.String() + footer
}
