package brand

import (
	"log/slog"
	"os"
	"strings"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
)

// Fallbacks used when a brand document is missing or empty.
const (
	DefaultProduct     = "NitroStack is a toolkit for building, testing, and deploying MCP (Model Context Protocol) servers."
	DefaultSoul        = "Show, don't sell. Answer the developer's real question first and mention NitroStack only when it genuinely helps."
	DefaultCompetitors = "No competitor notes loaded."
	DefaultStrategy    = "No marketing strategy loaded."
)

// Load reads the configured brand documents. It never fails; absent files fall back to defaults.
func Load(cfg config.BrandConfig, logger *slog.Logger) domain.BrandContext {
	logger = logging.Component(logger, "brand")
	return domain.BrandContext{
		Product:     readOr(cfg.KnowledgeBase, DefaultProduct, logger),
		Soul:        readOr(cfg.Soul, DefaultSoul, logger),
		Competitors: readOr(cfg.Competitors, DefaultCompetitors, logger),
		Strategy:    readOr(cfg.Strategy, DefaultStrategy, logger),
	}
}

func readOr(path, fallback string, logger *slog.Logger) string {
	if path == "" {
		return fallback
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("brand document unavailable", "path", path, "error", err)
		return fallback
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fallback
	}
	logger.Debug("brand document loaded", "path", path, "chars", len(text))
	return text
}
