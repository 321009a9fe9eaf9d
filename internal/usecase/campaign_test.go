package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
	"LeadScout/internal/infrastructure/storage"
)

type cannedCaller struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (c *cannedCaller) Call(_ context.Context, prompt string, _ func(string) error) (string, error) {
	c.calls++
	c.prompt = prompt
	return c.reply, c.err
}

func TestCampaignManagerNoReportsIsNone(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	caller := &cannedCaller{reply: "# playbook"}
	m := NewCampaignManager(storage.NewFileStore(root, nil), caller, domain.BrandContext{}, nil)

	path, ok, err := m.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.Zero(t, caller.calls)

	_, statErr := os.Stat(filepath.Join(root, "campaign_manager"))
	assert.True(t, os.IsNotExist(statErr), "no playbook file is written")
}

func TestCampaignManagerWritesPlaybook(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewFileStore(root, nil)
	_, err := store.SaveReport(testReddit, testNow, "# High-Signal Leads: Reddit\n"+strings.Repeat("r", 7000))
	require.NoError(t, err)

	caller := &cannedCaller{reply: "  # NitroStack Campaign Playbook  \n"}
	brand := domain.BrandContext{Soul: strings.Repeat("s", 500), Product: "NitroStack", Strategy: "grow", Competitors: "others"}
	m := NewCampaignManager(store, caller, brand, nil)

	path, ok, err := m.Run(context.Background(), testNow)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "campaign_manager", "2025-11-08_campaign.md"), path)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# NitroStack Campaign Playbook", string(saved))

	assert.Contains(t, caller.prompt, "### Platform: Reddit")
	assert.NotContains(t, caller.prompt, strings.Repeat("r", 6000), "report excerpt is capped")
	assert.NotContains(t, caller.prompt, strings.Repeat("s", 401), "persona is capped")
	assert.Contains(t, caller.prompt, "November 08, 2025")
}

func TestCampaignManagerLLMFailureIsNone(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewFileStore(root, nil)
	_, err := store.SaveReport(testReddit, testNow, "# report")
	require.NoError(t, err)

	for _, caller := range []*cannedCaller{{err: errors.New("keys exhausted")}, {reply: "   "}} {
		m := NewCampaignManager(store, caller, domain.BrandContext{}, nil)
		path, ok, err := m.Run(context.Background(), testNow)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, path)
	}
}
