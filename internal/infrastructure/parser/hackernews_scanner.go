package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/scanner"
)

const (
	hackerNewsBaseURL = "https://hn.algolia.com"
	hackerNewsItemURL = "https://news.ycombinator.com/item?id="
	hackerNewsSource  = "HackerNews"
)

// HackerNewsScanner searches Algolia's HN index by keyword. Replies are fetched inline
// for every story inside the lookback window, so no enrichment phase is needed.
type HackerNewsScanner struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ scanner.Scanner = (*HackerNewsScanner)(nil)

// NewHackerNewsScanner wires an HTTP client; an empty baseURL targets the public Algolia API.
func NewHackerNewsScanner(client *http.Client, baseURL string, logger *slog.Logger) *HackerNewsScanner {
	if baseURL == "" {
		baseURL = hackerNewsBaseURL
	}
	return &HackerNewsScanner{
		client:  defaultHTTPClient(client),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logging.Component(logger, "scanner.hackernews"),
	}
}

// Name identifies the strategy inside the registry.
func (h *HackerNewsScanner) Name() string {
	return "hackernews"
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	CreatedAt   string `json:"created_at"`
	StoryText   string `json:"story_text"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
}

type hnItem struct {
	Author   string   `json:"author"`
	Text     string   `json:"text"`
	Points   int      `json:"points"`
	Children []hnItem `json:"children"`
}

// Scan issues one search per keyword and keeps stories newer than req.Lookback.
func (h *HackerNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Lead, error) {
	if len(req.Channels) == 0 {
		return nil, fmt.Errorf("no keywords provided for platform %s", req.Platform.Name)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	var threshold time.Time
	if req.Lookback > 0 {
		threshold = now.Add(-req.Lookback)
	}

	f := newFetcher(h.client, req.RequestDelay, req.RateLimitBackoff, h.logger)
	seen := map[string]struct{}{}
	leads := make([]domain.Lead, 0)

	for _, keyword := range req.Channels {
		var resp hnSearchResponse
		if err := f.getJSON(ctx, h.searchURL(keyword, req.Limit), &resp); err != nil {
			if ctx.Err() != nil {
				return leads, ctx.Err()
			}
			h.logger.Warn("keyword search failed", "keyword", keyword, "error", err)
			continue
		}

		kept := 0
		for _, hit := range resp.Hits {
			createdAt, err := time.Parse(time.RFC3339, hit.CreatedAt)
			if err != nil {
				h.logger.Debug("skip hit with bad timestamp", "id", hit.ObjectID, "created_at", hit.CreatedAt)
				continue
			}
			if !threshold.IsZero() && !createdAt.After(threshold) {
				continue
			}

			title := strings.TrimSpace(hit.Title)
			if title == "" {
				title = "No Title"
			}
			if _, dup := seen[title]; dup {
				h.logger.Debug("dropped duplicate title", "keyword", keyword, "id", hit.ObjectID, "title", title)
				continue
			}
			seen[title] = struct{}{}

			leads = append(leads, domain.Lead{
				Source:          hackerNewsSource,
				Channel:         keyword,
				ExternalID:      hit.ObjectID,
				Title:           title,
				URL:             hackerNewsItemURL + hit.ObjectID,
				CreatedAt:       createdAt.UTC(),
				BodyText:        htmlToText(hit.StoryText),
				EngagementCount: hit.NumComments,
				ScoreHint:       hit.Points,
				Comments:        h.fetchComments(ctx, f, hit.ObjectID, req.ReplyCap, req.MaxDepth),
			})
			kept++
		}
		h.logger.Debug("keyword processed", "keyword", keyword, "hits", len(resp.Hits), "kept", kept)
	}

	h.logger.Info("hacker news scan done", "stories", len(leads))
	return leads, nil
}

// fetchComments never fails the scan; an unreachable thread just has no comments.
func (h *HackerNewsScanner) fetchComments(ctx context.Context, f *fetcher, id string, limit, maxDepth int) []domain.Comment {
	var item hnItem
	if err := f.getJSON(ctx, h.baseURL+"/api/v1/items/"+url.PathEscape(id), &item); err != nil {
		h.logger.Warn("fetch comments failed", "id", id, "error", err)
		return []domain.Comment{}
	}

	return flattenReplies(item.Children,
		func(n hnItem) []hnItem { return n.Children },
		func(n hnItem) (domain.Comment, bool) {
			return domain.Comment{
				Author:      n.Author,
				Text:        htmlToText(n.Text),
				NativeScore: n.Points,
			}, true
		},
		limit, maxDepth,
	)
}

func (h *HackerNewsScanner) searchURL(keyword string, limit int) string {
	query := url.Values{}
	query.Set("query", keyword)
	query.Set("tags", "story")
	if limit > 0 {
		query.Set("hitsPerPage", strconv.Itoa(limit))
	}
	return h.baseURL + "/api/v1/search_by_date?" + query.Encode()
}
