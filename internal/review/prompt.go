package review

import (
	"fmt"
	"strings"

	"LeadScout/internal/domain"
)

// BuildScoringPrompt enumerates candidates with 1-based indices in insertion order.
// Bodies are truncated to bodyChars runes; product is optional background.
func BuildScoringPrompt(product string, candidates []domain.Lead, bodyChars int) string {
	var b strings.Builder

	b.WriteString("You are a developer-relations analyst for NitroStack, a toolkit for building MCP (Model Context Protocol) servers and AI agents.\n")
	b.WriteString("Rate how strategically relevant each community thread below is for the team to engage with.\n\n")

	if product = strings.TrimSpace(product); product != "" {
		b.WriteString("== PRODUCT CONTEXT ==\n")
		b.WriteString(truncate(product, 800))
		b.WriteString("\n\n")
	}

	b.WriteString("== THREADS ==\n")
	for i, lead := range candidates {
		fmt.Fprintf(&b, "%d. title: %s\n", i+1, oneLine(lead.Title))
		if body := oneLine(truncate(lead.BodyText, bodyChars)); body != "" {
			fmt.Fprintf(&b, "   body: %s\n", body)
		}
		fmt.Fprintf(&b, "   engagement_count: %d\n", lead.EngagementCount)
	}

	b.WriteString("\nScore every thread from 0 (irrelevant) to 10 (must engage today). ")
	b.WriteString("Reward developers asking about MCP servers, SDKs, tool calling, agent tooling pain points, or comparisons with competitors.\n")
	b.WriteString("Respond with ONLY a raw JSON array, no prose, one object per thread:\n")
	b.WriteString(`[{"index": 1, "score": 7, "analysis": "one sentence rationale"}]`)
	b.WriteString("\n")

	return b.String()
}

// truncate cuts s to at most n runes; n <= 0 keeps s whole.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
