package usecase

import (
	"strings"

	"LeadScout/internal/domain"
)

// prefilterVocabulary is matched case-insensitively as plain substrings.
var prefilterVocabulary = []string{
	"mcp",
	"model context protocol",
	"nitrostack",
	"sdk",
	"llm",
	"ai agent",
	"tool calling",
}

// Prefilter reports whether title or body mentions any domain keyword.
func Prefilter(title, body string) bool {
	text := strings.ToLower(title + " " + body)
	for _, kw := range prefilterVocabulary {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// SelectCandidates keeps the leads passing Prefilter, preserving order.
func SelectCandidates(leads []domain.Lead) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if Prefilter(lead.Title, lead.BodyText) {
			out = append(out, lead)
		}
	}
	return out
}
