package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LeadScout/internal/ports"
)

const defaultRotateDelay = 3 * time.Second

// Caller sends prompts through a TextGenerator, rotating keys on quota and decode failures.
type Caller struct {
	gen         ports.TextGenerator
	keys        *KeyRotator
	rotateDelay time.Duration
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ ports.PromptCaller = (*Caller)(nil)

// CallerOption customises a Caller.
type CallerOption func(*Caller)

// WithRotateDelay sets the pause after each rotation. Zero disables it.
func WithRotateDelay(d time.Duration) CallerOption {
	return func(c *Caller) {
		if d >= 0 {
			c.rotateDelay = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) CallerOption {
	return func(c *Caller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCaller binds a generator to its own key pool.
func NewCaller(gen ports.TextGenerator, keys *KeyRotator, opts ...CallerOption) *Caller {
	c := &Caller{
		gen:         gen,
		keys:        keys,
		rotateDelay: defaultRotateDelay,
		logger:      slog.Default(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.keys == nil {
		c.keys = NewKeyRotator(nil)
	}
	return c
}

// Call runs prompt until accept succeeds. accept may be nil, in which case the first
// non-error reply wins. Failed accepts count as malformed responses and rotate the key.
// Attempts are bounded by twice the pool size.
func (c *Caller) Call(ctx context.Context, prompt string, accept func(string) error) (string, error) {
	if c == nil || c.gen == nil {
		return "", fmt.Errorf("llm caller is not configured")
	}

	budget := 2 * c.keys.Size()
	for attempt := 0; attempt < budget; attempt++ {
		key, ok := c.keys.Current()
		if !ok {
			return "", ErrKeysExhausted
		}

		text, err := c.gen.Generate(ctx, key, prompt)
		if err == nil && accept != nil {
			if aerr := accept(text); aerr != nil {
				err = fmt.Errorf("%w: %v", ErrMalformedResponse, aerr)
			}
		}
		if err == nil {
			return text, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if !Retryable(err) {
			return "", err
		}

		c.logger.Warn("llm attempt failed, rotating key",
			"key_index", c.keys.Index(),
			"attempt", attempt+1,
			"budget", budget,
			"error", err,
		)
		if !c.keys.Rotate() {
			c.logger.Error("all api keys exhausted", "pool_size", c.keys.Size())
			return "", ErrKeysExhausted
		}
		if err := c.sleep(ctx, c.rotateDelay); err != nil {
			return "", err
		}
	}

	if c.keys.Exhausted() {
		return "", ErrKeysExhausted
	}
	return "", ErrAttemptsExhausted
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
