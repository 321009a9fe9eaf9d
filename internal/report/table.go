package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"LeadScout/internal/domain"
)

const (
	titleWidth    = 60
	analysisWidth = 80
)

// RenderTable writes the fixed-column interactive view of scored leads.
func RenderTable(w io.Writer, leads []domain.ScoredLead) error {
	if len(leads) == 0 {
		_, err := fmt.Fprintln(w, "No high-signal leads identified in this batch.")
		return err
	}

	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, []string{
			strconv.Itoa(lead.RelevanceScore),
			clip(lead.Title, titleWidth),
			strconv.Itoa(lead.EngagementCount),
			clip(lead.Analysis, analysisWidth),
		})
	}
	return renderRows(w, []string{"Score", "Title", "Comments", "Analysis"}, rows)
}

// RenderLedger lists historical ledger entries with the same table style.
func RenderLedger(w io.Writer, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No recorded high-signal leads.")
		return err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.RunDate,
			e.Platform,
			strconv.Itoa(e.Lead.RelevanceScore),
			clip(e.Lead.Title, titleWidth),
			e.Lead.URL,
		})
	}
	return renderRows(w, []string{"Date", "Platform", "Score", "Title", "URL"}, rows)
}

func renderRows(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("fill table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
