package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"LeadScout/internal/config"
	"LeadScout/internal/logging"
)

func TestApplicationHeartbeatWithEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "leadscout.yaml")
	yaml := fmt.Sprintf(`
output:
  dir: %s
ledger:
  driver: sqlite
  dsn: %s
platforms:
  - name: reddit
    label: Reddit
    tag: Reddit
    scanner: reddit
    baseUrl: %s
    channels: [mcp]
`, filepath.Join(dir, "scouts"), filepath.Join(dir, "ledger.db"), srv.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))

	cfg, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	require.Equal(t, config.ScannerReddit, cfg.Platforms[0].Scanner)

	application, err := New(context.Background(), cfg, logging.NewWithWriter(io.Discard, "error"))
	require.NoError(t, err)
	defer application.Close()

	var out bytes.Buffer
	application.output = &out

	require.NoError(t, application.Run(context.Background()))

	reports, err := filepath.Glob(filepath.Join(dir, "scouts", "reddit_posts", "*_Reddit_report.md"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	out.Reset()
	require.NoError(t, application.History(context.Background(), "reddit", 7))
	assert.Contains(t, out.String(), "No recorded high-signal leads.")
}

func TestApplicationHistoryRequiresLedger(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Output: config.OutputConfig{Dir: t.TempDir()}}

	application, err := New(context.Background(), cfg, logging.NewWithWriter(io.Discard, "error"))
	require.NoError(t, err)

	err = application.History(context.Background(), "", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger is disabled")
}
