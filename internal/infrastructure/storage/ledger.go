package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

// Supported ledger drivers. The matching database/sql driver must be registered by the binary.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const ledgerTable = "scored_leads"

const ledgerSchema = `CREATE TABLE IF NOT EXISTS scored_leads (
    run_date         TEXT    NOT NULL,
    platform         TEXT    NOT NULL,
    title            TEXT    NOT NULL,
    run_id           TEXT    NOT NULL,
    url              TEXT    NOT NULL,
    relevance_score  INTEGER NOT NULL,
    analysis         TEXT    NOT NULL,
    engagement_count INTEGER NOT NULL,
    high_signal      BOOLEAN NOT NULL,
    recorded_at      TEXT    NOT NULL,
    PRIMARY KEY (run_date, platform, title)
)`

const ledgerUpsert = `ON CONFLICT (run_date, platform, title) DO UPDATE
    SET run_id = excluded.run_id,
        url = excluded.url,
        relevance_score = excluded.relevance_score,
        analysis = excluded.analysis,
        engagement_count = excluded.engagement_count,
        high_signal = excluded.high_signal,
        recorded_at = excluded.recorded_at`

// SQLLedger records every scored lead per run date so threshold decisions can be audited later.
type SQLLedger struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.LeadLedger = (*SQLLedger)(nil)

// OpenLedger opens the database and makes sure the table exists.
func OpenLedger(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLLedger, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	ledger := NewSQLLedger(db, driver, logger)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewSQLLedger wires a sql.DB implementation. driver picks the placeholder style.
func NewSQLLedger(db *sql.DB, driver string, logger *slog.Logger) *SQLLedger {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &SQLLedger{
		db:      db,
		builder: builder,
		logger:  logging.Component(logger, "ledger"),
		now:     time.Now,
	}
}

// EnsureSchema creates the ledger table when missing.
func (l *SQLLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, ledgerSchema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// RecordScored upserts the scored leads of one platform run inside a single transaction.
func (l *SQLLedger) RecordScored(ctx context.Context, runID, platform string, day time.Time, scored []domain.ScoredLead) error {
	if l.db == nil || len(scored) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}

	recordedAt := l.now().UTC().Format(time.RFC3339)
	runDate := domain.DayKey(day)

	for _, lead := range scored {
		query, args, err := l.builder.
			Insert(ledgerTable).
			Columns("run_date", "platform", "title", "run_id", "url", "relevance_score",
				"analysis", "engagement_count", "high_signal", "recorded_at").
			Values(runDate, platform, lead.Title, runID, lead.URL, lead.RelevanceScore,
				lead.Analysis, lead.EngagementCount, domain.IsHighSignal(lead.RelevanceScore), recordedAt).
			Suffix(ledgerUpsert).
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert scored lead: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	l.logger.Debug("scored leads recorded", "platform", platform, "run_date", runDate, "count", len(scored))
	return nil
}

// RecentHighSignal lists high-signal leads recorded on or after since, newest run first.
// An empty platform matches every platform.
func (l *SQLLedger) RecentHighSignal(ctx context.Context, platform string, since time.Time, limit int) ([]domain.LedgerEntry, error) {
	if l.db == nil {
		return []domain.LedgerEntry{}, nil
	}

	stmt := l.builder.
		Select("run_id", "platform", "run_date", "title", "url", "relevance_score",
			"analysis", "engagement_count", "recorded_at").
		From(ledgerTable).
		Where(sq.Eq{"high_signal": true}).
		Where(sq.GtOrEq{"run_date": domain.DayKey(since)}).
		OrderBy("run_date DESC", "relevance_score DESC", "title ASC")
	if platform != "" {
		stmt = stmt.Where(sq.Eq{"platform": platform})
	}
	if limit > 0 {
		stmt = stmt.Limit(uint64(limit))
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	result := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var (
			e          domain.LedgerEntry
			recordedAt string
		)
		if err := rows.Scan(&e.RunID, &e.Platform, &e.RunDate, &e.Lead.Title, &e.Lead.URL,
			&e.Lead.RelevanceScore, &e.Lead.Analysis, &e.Lead.EngagementCount, &recordedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		result = append(result, e)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// Close releases the database handle.
func (l *SQLLedger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
