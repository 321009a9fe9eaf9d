package domain

import "time"

// Platform identifies one harvested community and how its artifacts are named.
type Platform struct {
	Name  string // directory slug, e.g. "hackernews"
	Tag   string // file tag, e.g. "HN"
	Label string // human readable, e.g. "Hacker News"
}

// PlatformReport is a persisted markdown report read back by the campaign stage.
type PlatformReport struct {
	Platform string
	Path     string
	Content  string
}

// BrandContext is the static product and persona knowledge fed into synthesis prompts.
type BrandContext struct {
	Product     string
	Soul        string
	Competitors string
	Strategy    string
}

// RunSummary describes the outcome of one platform in a heartbeat.
type RunSummary struct {
	RunID      string
	Platform   Platform
	Day        time.Time
	Harvested  int
	Candidates int
	HighSignal []ScoredLead
	Enriched   int
	JSONPath   string
	ReportPath string
}

// DayKey formats a run date the way artifacts are named.
func DayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// LedgerEntry is one scored lead recorded for a past run.
type LedgerEntry struct {
	RunID      string
	Platform   string
	RunDate    string
	Lead       ScoredLead
	RecordedAt time.Time
}
