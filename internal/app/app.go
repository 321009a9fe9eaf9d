package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/infrastructure/brand"
	"LeadScout/internal/infrastructure/llm"
	"LeadScout/internal/infrastructure/parser"
	"LeadScout/internal/infrastructure/scheduler"
	"LeadScout/internal/infrastructure/storage"
	"LeadScout/internal/infrastructure/telegram"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
	"LeadScout/internal/report"
	"LeadScout/internal/review"
	"LeadScout/internal/scanner"
	"LeadScout/internal/usecase"
)

// historyLimit caps one ledger listing.
const historyLimit = 200

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	campaign *usecase.CampaignManager
	ledger   *storage.SQLLedger
	output   io.Writer
}

// New builds the application graph. Only an unreachable ledger is fatal here.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := scanner.NewRegistry()
	for _, p := range cfg.Platforms {
		if _, err := registry.Resolve(p.Scanner); err == nil {
			continue
		}
		switch p.Scanner {
		case config.ScannerHackerNews:
			registry.Register(parser.NewHackerNewsScanner(nil, p.BaseURL, baseLogger))
		case config.ScannerReddit:
			registry.Register(parser.NewRedditScanner(nil, p.BaseURL, baseLogger))
		default:
			baseLogger.Warn("unknown scanner, platform will fail", "platform", p.Name, "scanner", p.Scanner)
		}
	}
	source := parser.NewStrategySource(registry, cfg.Platforms, baseLogger)

	store := storage.NewFileStore(cfg.Output.Dir, baseLogger)
	brandCtx := brand.Load(cfg.Brand, baseLogger)

	if len(cfg.LLM.APIKeys) == 0 {
		baseLogger.Warn("no llm credentials configured, scoring will report empty batches", "key_envs", cfg.LLM.KeyEnvs)
	}
	gen := newGenerator(cfg.LLM)

	scorer := review.NewBatchScorer(newCaller(gen, cfg.LLM, baseLogger, "scorer"), review.ScorerConfig{
		Product:       brandCtx.Product,
		MaxCandidates: cfg.Scoring.MaxCandidates,
		BodyChars:     cfg.Scoring.BodyChars,
	}, baseLogger)

	var insight ports.InsightSynthesizer
	if cfg.Insight.Enabled {
		insight = review.NewInsightSynthesizer(newCaller(gen, cfg.LLM, baseLogger, "insight"), brandCtx,
			cfg.Insight.MaxLeads, cfg.Insight.FieldChars, baseLogger)
	}

	campaign := usecase.NewCampaignManager(store, newCaller(gen, cfg.LLM, baseLogger, "campaign"), brandCtx, baseLogger)

	a := &Application{cfg: cfg, logger: baseLogger, campaign: campaign, output: os.Stdout}

	deps := usecase.PipelineDeps{
		Source:   source,
		Scorer:   scorer,
		Insight:  insight,
		Store:    store,
		Playbook: campaign,
		Output:   a.output,
		Logger:   baseLogger,
	}

	if cfg.Ledger.Driver != "" {
		ledger, err := storage.OpenLedger(ctx, cfg.Ledger.Driver, cfg.Ledger.DSN, baseLogger)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		a.ledger = ledger
		deps.Ledger = ledger
	}

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		deps.Notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID, baseLogger)
	}

	a.pipeline = usecase.NewPipeline(deps)
	return a, nil
}

// newGenerator picks the transport for the configured provider.
func newGenerator(cfg config.LLMConfig) ports.TextGenerator {
	if cfg.Provider == config.ProviderOpenAI {
		return llm.NewOpenAIClient(cfg.Endpoint, cfg.Model, cfg.Timeout)
	}
	return llm.NewGeminiClient(cfg.Model)
}

// newCaller binds a fresh key pool to one LLM component.
func newCaller(gen ports.TextGenerator, cfg config.LLMConfig, logger *slog.Logger, component string) *llm.Caller {
	return llm.NewCaller(gen, llm.NewKeyRotator(cfg.APIKeys),
		llm.WithRotateDelay(cfg.RotateDelay),
		llm.WithLogger(logging.Component(logger, component)),
	)
}

// Run performs a single heartbeat.
func (a *Application) Run(ctx context.Context) error {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.ProcessDay(ctx, now)
}

// Schedule runs heartbeats on the configured cron expression until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), a.logger)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Playbook runs only the campaign stage for day.
func (a *Application) Playbook(ctx context.Context, day time.Time) (string, bool, error) {
	return a.campaign.Run(ctx, day)
}

// History prints high-signal ledger entries of the last days. An empty platform lists all.
func (a *Application) History(ctx context.Context, platform string, days int) error {
	if a.ledger == nil {
		return fmt.Errorf("ledger is disabled; set ledger.driver to %q or %q", storage.DriverSQLite, storage.DriverPostgres)
	}
	if days <= 0 {
		days = 7
	}
	now := time.Now().In(a.cfg.Scheduler.Location())
	since := now.AddDate(0, 0, -days)

	entries, err := a.ledger.RecentHighSignal(ctx, platform, since, historyLimit)
	if err != nil {
		return err
	}
	return report.RenderLedger(a.output, entries)
}

// Close releases the ledger connection.
func (a *Application) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}
