package report

import (
	"fmt"
	"strings"
	"time"

	"LeadScout/internal/domain"
)

const emptyBatch = "_No high-signal leads identified in this batch._"

// MarkdownInput is everything RenderMarkdown needs; GeneratedAt is the only volatile field.
type MarkdownInput struct {
	Platform    domain.Platform
	Day         time.Time
	GeneratedAt time.Time
	Leads       []domain.ScoredLead
	Insight     string
}

// RenderMarkdown produces the per-platform report: a scoreboard table and an optional insight section.
// Identical input yields byte-identical output.
func RenderMarkdown(in MarkdownInput) string {
	var b strings.Builder

	label := in.Platform.Label
	if label == "" {
		label = in.Platform.Name
	}

	fmt.Fprintf(&b, "# High-Signal Leads: %s\n\n", label)
	fmt.Fprintf(&b, "- Run date: %s\n", domain.DayKey(in.Day))
	fmt.Fprintf(&b, "- Generated: %s\n", in.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Leads: %d\n\n", len(in.Leads))

	b.WriteString("## Scoreboard\n\n")
	if len(in.Leads) == 0 {
		b.WriteString(emptyBatch)
		b.WriteString("\n")
	} else {
		b.WriteString("| # | Score | Title | Engagement | Analysis |\n")
		b.WriteString("|---|-------|-------|------------|----------|\n")
		for i, lead := range in.Leads {
			fmt.Fprintf(&b, "| %d | %d/10 | %s | %d | %s |\n",
				i+1,
				lead.RelevanceScore,
				titleCell(lead),
				lead.EngagementCount,
				escapeCell(lead.Analysis),
			)
		}
	}

	if insight := strings.TrimSpace(in.Insight); insight != "" {
		b.WriteString("\n## Strategic Insight\n\n")
		b.WriteString(insight)
		b.WriteString("\n")
	}

	return b.String()
}

func titleCell(lead domain.ScoredLead) string {
	title := escapeCell(lead.Title)
	if lead.URL == "" {
		return title
	}
	title = strings.NewReplacer("[", `\[`, "]", `\]`).Replace(title)
	return fmt.Sprintf("[%s](%s)", title, lead.URL)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
