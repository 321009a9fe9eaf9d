package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/scanner"
)

func TestHackerNewsScannerScan(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-2 * time.Hour).Format(time.RFC3339)
	stale := now.Add(-48 * time.Hour).Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search_by_date", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("tags") != "story" || q.Get("hitsPerPage") != "25" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		switch q.Get("query") {
		case "MCP server":
			fmt.Fprintf(w, `{"hits":[
				{"objectID":"1","title":"Best MCP server for Claude","created_at":%q,"story_text":"Which <i>one</i>?","points":12,"num_comments":4},
				{"objectID":"2","title":"Old news","created_at":%q,"points":1,"num_comments":0},
				{"objectID":"3","title":"","created_at":%q,"points":2,"num_comments":1}
			]}`, fresh, stale, fresh)
		case "Nitrostack":
			fmt.Fprintf(w, `{"hits":[{"objectID":"9","title":"Best MCP server for Claude","created_at":%q}]}`, fresh)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/api/v1/items/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"children":[
			{"author":"alice","text":"Try <b>nitro</b>","children":[{"author":"bob","text":"agreed","children":[]}]},
			{"author":"carol","text":"meh","children":[]}
		]}`))
	})
	mux.HandleFunc("/api/v1/items/3", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewHackerNewsScanner(srv.Client(), srv.URL, nil)
	leads, err := s.Scan(context.Background(), scanner.Request{
		Now:      now,
		Platform: domain.Platform{Name: "hackernews", Tag: "HN"},
		Channels: []string{"broken", "MCP server", "Nitrostack"},
		Limit:    25,
		Lookback: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}

	first := leads[0]
	if first.Title != "Best MCP server for Claude" || first.Channel != "MCP server" {
		t.Fatalf("unexpected first lead: %+v", first)
	}
	if first.URL != "https://news.ycombinator.com/item?id=1" {
		t.Fatalf("unexpected url: %s", first.URL)
	}
	if first.BodyText != "Which one?" || first.EngagementCount != 4 || first.ScoreHint != 12 {
		t.Fatalf("unexpected body or counters: %+v", first)
	}
	if len(first.Comments) != 3 || first.Comments[0].Text != "Try nitro" || first.Comments[1].Depth != 1 || first.Comments[2].Author != "carol" {
		t.Fatalf("unexpected comments: %+v", first.Comments)
	}

	if leads[1].Title != "No Title" {
		t.Fatalf("expected fallback title, got %q", leads[1].Title)
	}
	if leads[1].Comments == nil || len(leads[1].Comments) != 0 {
		t.Fatalf("failed comment fetch should yield empty comments, got %#v", leads[1].Comments)
	}
}

func TestHackerNewsScannerRetriesRateLimitOnce(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/items/") {
			_, _ = w.Write([]byte(`{"children":[]}`))
			return
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"hits":[{"objectID":"5","title":"MCP tool calling","created_at":"2025-11-08T10:00:00.000Z"}]}`))
	}))
	defer srv.Close()

	s := NewHackerNewsScanner(srv.Client(), srv.URL, nil)
	leads, err := s.Scan(context.Background(), scanner.Request{
		Now:              time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC),
		Channels:         []string{"MCP"},
		RateLimitBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected exactly one retry, got %d search calls", calls)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead after retry, got %d", len(leads))
	}
}

func TestHackerNewsScannerRequiresKeywords(t *testing.T) {
	t.Parallel()

	s := NewHackerNewsScanner(nil, "", nil)
	if _, err := s.Scan(context.Background(), scanner.Request{}); err == nil {
		t.Fatalf("expected error without keywords")
	}
}

func TestHackerNewsScannerLogsDroppedUntitledDuplicates(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour).Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search_by_date", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"hits":[
			{"objectID":"10","title":"","created_at":%q},
			{"objectID":"11","title":"  ","created_at":%q}
		]}`, fresh, fresh)
	})
	mux.HandleFunc("/api/v1/items/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"children":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var logs bytes.Buffer
	s := NewHackerNewsScanner(srv.Client(), srv.URL, logging.NewWithWriter(&logs, "debug"))
	leads, err := s.Scan(context.Background(), scanner.Request{
		Now:      now,
		Platform: domain.Platform{Name: "hackernews", Tag: "HN"},
		Channels: []string{"MCP server"},
		Lookback: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(leads) != 1 || leads[0].Title != "No Title" || leads[0].ExternalID != "10" {
		t.Fatalf("expected only the first untitled story, got %+v", leads)
	}
	if !strings.Contains(logs.String(), "dropped duplicate title") || !strings.Contains(logs.String(), "id=11") {
		t.Fatalf("expected a debug line for the dropped story, got:\n%s", logs.String())
	}
}
