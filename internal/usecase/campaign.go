package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

// Prompt budgets, in runes.
const (
	campaignReportChars      = 6000
	campaignProductChars     = 800
	campaignStrategyChars    = 1200
	campaignSoulChars        = 400
	campaignCompetitorsChars = 400
)

// CampaignManager turns the day's platform reports into one cross-platform playbook.
type CampaignManager struct {
	store  ports.ArtifactStore
	caller ports.PromptCaller
	brand  domain.BrandContext
	logger *slog.Logger
}

var _ ports.PlaybookBuilder = (*CampaignManager)(nil)

// NewCampaignManager binds its own caller so it rotates keys independently of the scorer.
func NewCampaignManager(store ports.ArtifactStore, caller ports.PromptCaller, brand domain.BrandContext, logger *slog.Logger) *CampaignManager {
	return &CampaignManager{
		store:  store,
		caller: caller,
		brand:  brand,
		logger: logging.Component(logger, "campaign"),
	}
}

// BuildPlaybook returns the playbook markdown, or false when there are no reports or the model gave nothing.
func (m *CampaignManager) BuildPlaybook(ctx context.Context, day time.Time) (string, bool, error) {
	if m.store == nil {
		return "", false, fmt.Errorf("campaign manager has no artifact store")
	}

	reports, err := m.store.CollectReports(day)
	if err != nil {
		return "", false, fmt.Errorf("collect reports: %w", err)
	}
	if len(reports) == 0 {
		m.logger.Info("no platform reports found, skipping playbook", "day", domain.DayKey(day))
		return "", false, nil
	}
	if m.caller == nil {
		m.logger.Warn("no llm configured, skipping playbook")
		return "", false, nil
	}

	m.logger.Info("synthesizing playbook", "reports", len(reports))
	text, err := m.caller.Call(ctx, BuildCampaignPrompt(day, reports, m.brand), nil)
	if err != nil {
		m.logger.Warn("playbook unavailable", "error", err)
		return "", false, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// Run builds the playbook and persists it. The path is empty when nothing was produced.
func (m *CampaignManager) Run(ctx context.Context, day time.Time) (string, bool, error) {
	playbook, ok, err := m.BuildPlaybook(ctx, day)
	if err != nil || !ok {
		return "", ok, err
	}

	path, err := m.store.SavePlaybook(day, playbook)
	if err != nil {
		return "", false, fmt.Errorf("save playbook: %w", err)
	}
	m.logger.Info("playbook saved", "path", path)
	return path, true, nil
}

// BuildCampaignPrompt assembles brand context and report excerpts under fixed budgets.
func BuildCampaignPrompt(day time.Time, reports []domain.PlatformReport, brand domain.BrandContext) string {
	var reportsBlock strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&reportsBlock, "\n\n---\n### Platform: %s\n%s", r.Platform, clipRunes(r.Content, campaignReportChars))
	}

	var b strings.Builder
	b.WriteString("You are the Campaign Manager for NitroStack, the team's Developer Relations strategist.\n\n")
	fmt.Fprintf(&b, "== YOUR PERSONA (non-negotiable) ==\n%s\n\n", clipRunes(brand.Soul, campaignSoulChars))
	fmt.Fprintf(&b, "== PRODUCT CONTEXT ==\n%s\n\n", clipRunes(brand.Product, campaignProductChars))
	fmt.Fprintf(&b, "== MARKETING STRATEGY ==\n%s\n\n", clipRunes(brand.Strategy, campaignStrategyChars))
	fmt.Fprintf(&b, "== COMPETITIVE LANDSCAPE ==\n%s\n\n", clipRunes(brand.Competitors, campaignCompetitorsChars))
	fmt.Fprintf(&b, "== TODAY'S SCOUT REPORTS (across all platforms) ==%s\n\n---\n\n", reportsBlock.String())

	b.WriteString(`YOUR TASK:
Produce a concrete, actionable Campaign Playbook for today in two parts:

PART 1: STRATEGIC BRIEF (think, don't just list)
PART 2: TACTICAL DRAFTS (ready-to-post content)

STRICT RULES:
- Max 5 REPLY opportunities, max 3 NEW POST opportunities
- Persona is ALWAYS "Show, don't sell": answer the real question first, mention NitroStack only when naturally relevant
- NEVER invent features; only reference what is in the Product Context
- Each draft must be complete and ready to copy-paste
- Rank all actions by impact and urgency at the end

OUTPUT FORMAT (use exactly this Markdown structure):

`)
	fmt.Fprintf(&b, "# NitroStack Campaign Playbook: %s\n\n", day.Format("January 02, 2006"))
	b.WriteString(`## Strategic Brief

### Community Focus
[Rank the top communities from today's reports by opportunity level, one sentence each on the signal you saw.]

### Brand Relevance Intel
[2-3 sentences on trending developer pain points NitroStack addresses, citing actual thread topics.]

### New Marketing Angles
[A short numbered list of 3 fresh content angles suggested by today's data.]

## Reply Opportunities

### Reply #N: [Platform] · [Score]/10
**Thread:** [Title](URL)
**Why engage:** [1 sentence]
**Draft reply:**
> [Full reply text, 3-8 sentences, first-person, helpful tone]

## New Post Opportunities

### Post #N: [Suggested community]
**Suggested title:** "[Title]"
**Why now:** [1 sentence]
**Draft post:**
> [Full post body]

## Priority Ranking
| Priority | Action | Platform | Expected Impact |
|----------|--------|----------|-----------------|
| 1 | ... | ... | ... |
`)
	return b.String()
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
