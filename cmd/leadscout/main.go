package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"LeadScout/internal/app"
	"LeadScout/internal/config"
	"LeadScout/internal/logging"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "leadscout:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leadscout",
		Short: "Community lead scouting heartbeat",
		Long: `leadscout harvests discussion threads from configured communities, scores them
with a language model, and writes per-platform reports plus a campaign playbook.

Example usage:
  leadscout                         # one heartbeat now
  leadscout schedule                # heartbeat on the configured cron until interrupted
  leadscout playbook --date 2025-11-08
  leadscout history --platform reddit --days 14`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runHeartbeat,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $LEADSCOUT_CONFIG)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one heartbeat now",
		RunE:  runHeartbeat,
	})
	root.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Run heartbeats on the configured cron expression",
		RunE:  runSchedule,
	})

	playbook := &cobra.Command{
		Use:   "playbook",
		Short: "Build the campaign playbook from existing reports",
		RunE:  runPlaybook,
	}
	playbook.Flags().String("date", "", "run date as YYYY-MM-DD (default today)")
	root.AddCommand(playbook)

	history := &cobra.Command{
		Use:   "history",
		Short: "List recent high-signal leads from the ledger",
		RunE:  runHistory,
	}
	history.Flags().String("platform", "", "platform name (default all)")
	history.Flags().Int("days", 7, "look back this many days")
	root.AddCommand(history)

	return root
}

// setup loads configuration and builds the application graph.
func setup(ctx context.Context) (*app.Application, config.Config, *slog.Logger, error) {
	if cfgFile != "" {
		if err := os.Setenv("LEADSCOUT_CONFIG", cfgFile); err != nil {
			return nil, config.Config{}, nil, err
		}
	}
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, cfg, logger, err
	}
	return application, cfg, logger, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runHeartbeat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	application, _, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("heartbeat finished with errors", "error", err)
		return err
	}
	return nil
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	application, _, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Schedule(ctx)
}

func runPlaybook(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	application, cfg, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	day := time.Now().In(cfg.Scheduler.Location())
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		day, err = time.ParseInLocation("2006-01-02", raw, cfg.Scheduler.Location())
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", raw, err)
		}
	}

	path, ok, err := application.Playbook(ctx, day)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "No playbook produced: no reports found or the model returned nothing.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Playbook saved:", path)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	platform, _ := cmd.Flags().GetString("platform")
	days, _ := cmd.Flags().GetInt("days")

	application, _, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.History(ctx, platform, days)
}
