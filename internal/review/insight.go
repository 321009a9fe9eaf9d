package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

// InsightSynthesizer writes a short strategic brief for one platform's top leads.
type InsightSynthesizer struct {
	caller     ports.PromptCaller
	brand      domain.BrandContext
	maxLeads   int
	fieldChars int
	logger     *slog.Logger
}

var _ ports.InsightSynthesizer = (*InsightSynthesizer)(nil)

// NewInsightSynthesizer caps input to maxLeads leads and fieldChars runes per field.
func NewInsightSynthesizer(caller ports.PromptCaller, brand domain.BrandContext, maxLeads, fieldChars int, logger *slog.Logger) *InsightSynthesizer {
	if maxLeads <= 0 {
		maxLeads = 5
	}
	if fieldChars <= 0 {
		fieldChars = 300
	}
	return &InsightSynthesizer{
		caller:     caller,
		brand:      brand,
		maxLeads:   maxLeads,
		fieldChars: fieldChars,
		logger:     logging.Component(logger, "insight"),
	}
}

// Synthesize returns the model text verbatim, or "" when there is nothing to say or the call failed.
func (s *InsightSynthesizer) Synthesize(ctx context.Context, platform domain.Platform, top []domain.ScoredLead, threads []domain.Lead) string {
	if s == nil || s.caller == nil || len(top) == 0 {
		return ""
	}

	text, err := s.caller.Call(ctx, s.prompt(platform, top, threads), nil)
	if err != nil {
		s.logger.Warn("insight unavailable", "platform", platform.Name, "error", err)
		return ""
	}
	return text
}

func (s *InsightSynthesizer) prompt(platform domain.Platform, top []domain.ScoredLead, threads []domain.Lead) string {
	byTitle := make(map[string]domain.Lead, len(threads))
	for _, t := range threads {
		if _, ok := byTitle[t.Title]; !ok {
			byTitle[t.Title] = t
		}
	}

	if len(top) > s.maxLeads {
		top = top[:s.maxLeads]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are NitroStack's developer-relations strategist reviewing today's %s threads.\n\n", platform.Label)
	if soul := strings.TrimSpace(s.brand.Soul); soul != "" {
		fmt.Fprintf(&b, "== PERSONA ==\n%s\n\n", truncate(soul, s.fieldChars))
	}
	if product := strings.TrimSpace(s.brand.Product); product != "" {
		fmt.Fprintf(&b, "== PRODUCT ==\n%s\n\n", truncate(product, s.fieldChars))
	}

	b.WriteString("== TOP LEADS ==\n")
	for i, lead := range top {
		fmt.Fprintf(&b, "%d. [%d/10] %s\n", i+1, lead.RelevanceScore, oneLine(lead.Title))
		fmt.Fprintf(&b, "   analysis: %s\n", oneLine(truncate(lead.Analysis, s.fieldChars)))

		thread, ok := byTitle[lead.Title]
		if !ok {
			continue
		}
		if body := oneLine(truncate(thread.BodyText, s.fieldChars)); body != "" {
			fmt.Fprintf(&b, "   post: %s\n", body)
		}
		if replies := joinComments(thread.Comments); replies != "" {
			fmt.Fprintf(&b, "   replies: %s\n", oneLine(truncate(replies, s.fieldChars)))
		}
	}

	b.WriteString("\nWrite a concise strategic insight (3 to 5 sentences): the recurring developer pain points, ")
	b.WriteString("where NitroStack fits naturally, and which thread to engage first. Plain markdown, no headings.\n")
	return b.String()
}

func joinComments(comments []domain.Comment) string {
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		if text := strings.TrimSpace(c.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " | ")
}
