package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "LeadScout/1.0 (community research bot)"

// statusError is a non-success HTTP status that survived the rate-limit retry.
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned %d", e.url, e.code)
}

// fetcher issues paced GET requests. A fetcher belongs to one scan, never to a shared scanner.
type fetcher struct {
	client  *http.Client
	pacer   *rate.Limiter
	backoff time.Duration
	logger  *slog.Logger
}

func newFetcher(client *http.Client, delay, backoff time.Duration, logger *slog.Logger) *fetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &fetcher{
		client:  client,
		pacer:   rate.NewLimiter(limit, 1),
		backoff: backoff,
		logger:  logger,
	}
}

// getJSON decodes the body of url into out. An explicit 429 sleeps the backoff
// and retries exactly once; any other non-200 is a statusError.
func (f *fetcher) getJSON(ctx context.Context, url string, out any) error {
	if err := f.pacer.Wait(ctx); err != nil {
		return err
	}

	resp, err := f.do(ctx, url)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		drain(resp)
		f.logger.Warn("rate limited, backing off once", "url", url, "backoff", f.backoff)
		if err := sleepCtx(ctx, f.backoff); err != nil {
			return err
		}
		resp, err = f.do(ctx, url)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{url: url, code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (f *fetcher) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func defaultHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 15 * time.Second}
	}
	return client
}
