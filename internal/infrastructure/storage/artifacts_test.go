package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
)

var (
	testDay    = time.Date(2025, 11, 8, 15, 0, 0, 0, time.UTC)
	testReddit = domain.Platform{Name: "reddit", Tag: "Reddit", Label: "Reddit"}
)

func TestSaveLeadsWritesTitleKeyedMap(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewFileStore(root, nil)

	leads := []domain.Lead{
		{Source: "Reddit", Channel: "mcp", ExternalID: "p1", Title: "Best MCP server", URL: "https://r/1",
			CreatedAt: time.Date(2025, 11, 8, 10, 0, 0, 0, time.UTC), BodyText: "body", EngagementCount: 7, ScoreHint: 42},
		{Title: "Best MCP server", BodyText: "duplicate is ignored"},
		{Title: "My cat photos"},
	}

	path, err := store.SaveLeads(testReddit, testDay, leads)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "reddit_posts", "2025-11-08_Reddit_post.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)

	rec := decoded["Best MCP server"]
	assert.Equal(t, "body", rec["post"])
	assert.Equal(t, "2025-11-08T10:00:00Z", rec["date"])
	assert.Equal(t, float64(7), rec["engagement_count"])
	assert.Equal(t, []any{}, rec["comments"], "comments must serialize as an array")

	leftovers, err := filepath.Glob(filepath.Join(root, "reddit_posts", ".*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary files must be renamed away")
}

func TestSaveLeadsOverwritesAndLoads(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir(), nil)
	lead := domain.Lead{Title: "Best MCP server", Comments: []domain.Comment{}}

	_, err := store.SaveLeads(testReddit, testDay, []domain.Lead{lead})
	require.NoError(t, err)

	lead.Comments = []domain.Comment{{Author: "alice", Text: "try it", NativeScore: 3, Depth: 0}, {Author: "bob", Depth: 1}}
	_, err = store.SaveLeads(testReddit, testDay, []domain.Lead{lead, {Title: "Other"}})
	require.NoError(t, err)

	loaded, err := store.LoadLeads(testReddit, testDay)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Best MCP server", loaded[0].Title)
	assert.Equal(t, lead.Comments, loaded[0].Comments)
	assert.Empty(t, loaded[1].Comments)
}

func TestCollectReportsPrefersDayAndFallsBack(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewFileStore(root, nil)

	_, err := store.SaveReport(domain.Platform{Name: "hacker_news", Tag: "HN"}, testDay, "# hn today")
	require.NoError(t, err)
	_, err = store.SaveReport(domain.Platform{Name: "hacker_news", Tag: "HN"}, testDay.AddDate(0, 0, -1), "# hn yesterday")
	require.NoError(t, err)
	_, err = store.SaveReport(testReddit, testDay.AddDate(0, 0, -3), "# reddit old")
	require.NoError(t, err)
	_, err = store.SaveReport(testReddit, testDay.AddDate(0, 0, -2), "# reddit newer")
	require.NoError(t, err)
	_, err = store.SavePlaybook(testDay, "# playbook")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty_posts"), 0o755))

	reports, err := store.CollectReports(testDay)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "Hacker News", reports[0].Platform)
	assert.Equal(t, "# hn today", reports[0].Content)
	assert.Equal(t, "Reddit", reports[1].Platform)
	assert.Equal(t, "# reddit newer", reports[1].Content)
}

func TestCollectReportsMissingRoot(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "absent"), nil)
	reports, err := store.CollectReports(testDay)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestSavePlaybookPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path, err := NewFileStore(root, nil).SavePlaybook(testDay, "# plan")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "campaign_manager", "2025-11-08_campaign.md"), path)
}
