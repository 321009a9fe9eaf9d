package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

const campaignDir = "campaign_manager"

// FileStore keeps run artifacts under one root directory:
// <root>/<platform>_posts/<date>_<tag>_post.json, ..._report.md, and
// <root>/campaign_manager/<date>_campaign.md.
type FileStore struct {
	root   string
	logger *slog.Logger
}

var _ ports.ArtifactStore = (*FileStore)(nil)

// NewFileStore roots all artifacts at dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{root: dir, logger: logging.Component(logger, "artifacts")}
}

// leadRecord is the on-disk shape of a lead, keyed by title in the artifact map.
type leadRecord struct {
	Source          string          `json:"source"`
	Channel         string          `json:"channel"`
	ExternalID      string          `json:"external_id"`
	Date            string          `json:"date"`
	URL             string          `json:"url"`
	Post            string          `json:"post"`
	EngagementCount int             `json:"engagement_count"`
	ScoreHint       int             `json:"score_hint"`
	Comments        []commentRecord `json:"comments"`
}

type commentRecord struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	Score  int    `json:"score"`
	Depth  int    `json:"depth"`
}

// SaveLeads overwrites the platform's lead map for day.
func (s *FileStore) SaveLeads(platform domain.Platform, day time.Time, leads []domain.Lead) (string, error) {
	records := make(map[string]leadRecord, len(leads))
	for _, lead := range leads {
		if _, dup := records[lead.Title]; dup {
			continue
		}
		records[lead.Title] = toRecord(lead)
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal leads: %w", err)
	}

	path := s.artifactPath(platform, day, "post.json")
	if err := writeAtomic(path, payload); err != nil {
		return "", err
	}
	s.logger.Debug("lead map written", "path", path, "leads", len(records))
	return path, nil
}

// LoadLeads reads back a lead map, ordered by title.
func (s *FileStore) LoadLeads(platform domain.Platform, day time.Time) ([]domain.Lead, error) {
	path := s.artifactPath(platform, day, "post.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records map[string]leadRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	titles := make([]string, 0, len(records))
	for title := range records {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	leads := make([]domain.Lead, 0, len(titles))
	for _, title := range titles {
		leads = append(leads, fromRecord(title, records[title]))
	}
	return leads, nil
}

// SaveReport overwrites the platform's markdown report for day.
func (s *FileStore) SaveReport(platform domain.Platform, day time.Time, markdown string) (string, error) {
	path := s.artifactPath(platform, day, "report.md")
	if err := writeAtomic(path, []byte(markdown)); err != nil {
		return "", err
	}
	s.logger.Debug("report written", "path", path)
	return path, nil
}

// CollectReports returns one report per platform directory: the latest one for day,
// or the latest available one when that day has none.
func (s *FileStore) CollectReports(day time.Time) ([]domain.PlatformReport, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.PlatformReport{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}

	reports := make([]domain.PlatformReport, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == campaignDir {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())

		matches, err := filepath.Glob(filepath.Join(dir, domain.DayKey(day)+"_*_report.md"))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", dir, err)
		}
		if len(matches) == 0 {
			if matches, err = filepath.Glob(filepath.Join(dir, "*_report.md")); err != nil {
				return nil, fmt.Errorf("glob %s: %w", dir, err)
			}
		}
		if len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		path := matches[len(matches)-1]

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		reports = append(reports, domain.PlatformReport{
			Platform: platformTitle(entry.Name()),
			Path:     path,
			Content:  string(content),
		})
		s.logger.Debug("report collected", "path", path, "chars", len(content))
	}
	return reports, nil
}

// SavePlaybook writes the campaign playbook for day.
func (s *FileStore) SavePlaybook(day time.Time, markdown string) (string, error) {
	path := filepath.Join(s.root, campaignDir, domain.DayKey(day)+"_campaign.md")
	if err := writeAtomic(path, []byte(markdown)); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FileStore) artifactPath(platform domain.Platform, day time.Time, suffix string) string {
	tag := platform.Tag
	if tag == "" {
		tag = platform.Name
	}
	name := fmt.Sprintf("%s_%s_%s", domain.DayKey(day), tag, suffix)
	return filepath.Join(s.root, platform.Name+"_posts", name)
}

// writeAtomic writes into a temporary sibling and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func toRecord(lead domain.Lead) leadRecord {
	comments := make([]commentRecord, 0, len(lead.Comments))
	for _, c := range lead.Comments {
		comments = append(comments, commentRecord{Author: c.Author, Text: c.Text, Score: c.NativeScore, Depth: c.Depth})
	}
	date := ""
	if !lead.CreatedAt.IsZero() {
		date = lead.CreatedAt.UTC().Format(time.RFC3339)
	}
	return leadRecord{
		Source:          lead.Source,
		Channel:         lead.Channel,
		ExternalID:      lead.ExternalID,
		Date:            date,
		URL:             lead.URL,
		Post:            lead.BodyText,
		EngagementCount: lead.EngagementCount,
		ScoreHint:       lead.ScoreHint,
		Comments:        comments,
	}
}

func fromRecord(title string, r leadRecord) domain.Lead {
	comments := make([]domain.Comment, 0, len(r.Comments))
	for _, c := range r.Comments {
		comments = append(comments, domain.Comment{Author: c.Author, Text: c.Text, NativeScore: c.Score, Depth: c.Depth})
	}
	created, _ := time.Parse(time.RFC3339, r.Date)
	return domain.Lead{
		Source:          r.Source,
		Channel:         r.Channel,
		ExternalID:      r.ExternalID,
		Title:           title,
		URL:             r.URL,
		CreatedAt:       created,
		BodyText:        r.Post,
		EngagementCount: r.EngagementCount,
		ScoreHint:       r.ScoreHint,
		Comments:        comments,
	}
}

// platformTitle turns "hacker_news_posts" into "Hacker News".
func platformTitle(dir string) string {
	words := strings.Fields(strings.ReplaceAll(strings.TrimSuffix(dir, "_posts"), "_", " "))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
