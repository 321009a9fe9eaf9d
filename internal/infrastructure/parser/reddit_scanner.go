package parser

import (
	"bytes"
	"context"
	"encoding/json"
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
	redditBaseURL     = "https://www.reddit.com"
	redditSource      = "Reddit"
	redditCommentKind = "t1"
)

// RedditScanner reads public subreddit listings. Listing returns posts without
// replies; Enrich fetches reply trees for selected titles only.
type RedditScanner struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var (
	_ scanner.Scanner  = (*RedditScanner)(nil)
	_ scanner.Enricher = (*RedditScanner)(nil)
)

// NewRedditScanner wires an HTTP client; an empty baseURL targets www.reddit.com.
func NewRedditScanner(client *http.Client, baseURL string, logger *slog.Logger) *RedditScanner {
	if baseURL == "" {
		baseURL = redditBaseURL
	}
	return &RedditScanner{
		client:  defaultHTTPClient(client),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logging.Component(logger, "scanner.reddit"),
	}
}

// Name identifies the strategy inside the registry.
func (r *RedditScanner) Name() string {
	return "reddit"
}

type redditListing struct {
	Data struct {
		Children []redditThing `json:"children"`
	} `json:"data"`
}

type redditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Permalink   string  `json:"permalink"`
	SelfText    string  `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Stickied    bool    `json:"stickied"`
}

type redditComment struct {
	Author  string          `json:"author"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Replies json.RawMessage `json:"replies"`
}

// Scan lists every subreddit in req.Channels; comments stay empty until Enrich.
func (r *RedditScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Lead, error) {
	if len(req.Channels) == 0 {
		return nil, fmt.Errorf("no subreddits provided for platform %s", req.Platform.Name)
	}

	sort := req.Sort
	if sort == "" {
		sort = "hot"
	}

	f := newFetcher(r.client, req.RequestDelay, req.RateLimitBackoff, r.logger)
	seen := map[string]struct{}{}
	leads := make([]domain.Lead, 0)

	for _, sub := range req.Channels {
		var listing redditListing
		if err := f.getJSON(ctx, r.listingURL(sub, sort, req.Limit), &listing); err != nil {
			if ctx.Err() != nil {
				return leads, ctx.Err()
			}
			r.logger.Warn("subreddit listing failed", "subreddit", sub, "error", err)
			continue
		}

		for _, thing := range listing.Data.Children {
			var post redditPost
			if err := json.Unmarshal(thing.Data, &post); err != nil {
				continue
			}
			if post.Stickied {
				continue
			}

			title := post.Title
			if strings.TrimSpace(title) == "" {
				title = "No Title"
			}
			if _, dup := seen[title]; dup {
				continue
			}
			seen[title] = struct{}{}

			leads = append(leads, domain.Lead{
				Source:          redditSource,
				Channel:         sub,
				ExternalID:      post.ID,
				Title:           title,
				URL:             redditBaseURL + post.Permalink,
				CreatedAt:       time.Unix(int64(post.CreatedUTC), 0).UTC(),
				BodyText:        post.SelfText,
				EngagementCount: post.NumComments,
				ScoreHint:       post.Score,
				Comments:        []domain.Comment{},
			})
		}
		r.logger.Debug("subreddit listed", "subreddit", sub, "posts", len(listing.Data.Children))
	}

	r.logger.Info("reddit scan done", "posts", len(leads))
	return leads, nil
}

// Enrich fetches reply trees for the leads in titles. Failed fetches leave comments empty.
func (r *RedditScanner) Enrich(ctx context.Context, req scanner.Request, leads []domain.Lead, titles map[string]struct{}) ([]domain.Lead, int) {
	f := newFetcher(r.client, req.RequestDelay, req.RateLimitBackoff, r.logger)
	enriched := 0

	for i := range leads {
		if _, ok := titles[leads[i].Title]; !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		leads[i].Comments = r.fetchComments(ctx, f, leads[i], req.ReplyCap, req.MaxDepth)
		enriched++
	}

	r.logger.Info("reddit enrichment done", "enriched", enriched, "selected", len(titles))
	return leads, enriched
}

func (r *RedditScanner) fetchComments(ctx context.Context, f *fetcher, lead domain.Lead, limit, maxDepth int) []domain.Comment {
	if lead.ExternalID == "" {
		return []domain.Comment{}
	}

	var listings []redditListing
	if err := f.getJSON(ctx, r.commentsURL(lead.Channel, lead.ExternalID, limit), &listings); err != nil {
		r.logger.Warn("fetch comments failed", "id", lead.ExternalID, "error", err)
		return []domain.Comment{}
	}
	if len(listings) < 2 {
		return []domain.Comment{}
	}

	return flattenReplies(listings[1].Data.Children, redditReplies, redditToComment, limit, maxDepth)
}

func redditToComment(t redditThing) (domain.Comment, bool) {
	if t.Kind != redditCommentKind {
		return domain.Comment{}, false
	}
	var c redditComment
	if err := json.Unmarshal(t.Data, &c); err != nil {
		return domain.Comment{}, false
	}
	author := c.Author
	if author == "" {
		author = "[deleted]"
	}
	return domain.Comment{Author: author, Text: c.Body, NativeScore: c.Score}, true
}

// redditReplies decodes the nested listing; Reddit sends "" when a comment has no replies.
func redditReplies(t redditThing) []redditThing {
	var c redditComment
	if err := json.Unmarshal(t.Data, &c); err != nil {
		return nil
	}
	raw := bytes.TrimSpace(c.Replies)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var nested redditListing
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}
	return nested.Data.Children
}

func (r *RedditScanner) listingURL(sub, sort string, limit int) string {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("raw_json", "1")
	return fmt.Sprintf("%s/r/%s/%s.json?%s", r.baseURL, url.PathEscape(sub), url.PathEscape(sort), query.Encode())
}

func (r *RedditScanner) commentsURL(sub, id string, limit int) string {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("sort", "best")
	query.Set("raw_json", "1")
	return fmt.Sprintf("%s/r/%s/comments/%s/.json?%s", r.baseURL, url.PathEscape(sub), url.PathEscape(id), query.Encode())
}
