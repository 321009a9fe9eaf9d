package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded marks a provider rejection caused by rate or quota limits on the current key.
	ErrQuotaExceeded = errors.New("llm: quota exceeded")
	// ErrMalformedResponse marks a reply that could not be decoded into the expected shape.
	ErrMalformedResponse = errors.New("llm: malformed response")
	// ErrKeysExhausted is returned once every configured credential has been rotated away.
	ErrKeysExhausted = errors.New("llm: all api keys exhausted")
	// ErrAttemptsExhausted is returned when the retry budget runs out before a usable reply.
	ErrAttemptsExhausted = errors.New("llm: retry attempts exhausted")
	// ErrEmptyResponse marks a successful call with no text content. It is a malformed response.
	ErrEmptyResponse = fmt.Errorf("%w: empty response", ErrMalformedResponse)
)

// Retryable reports whether err should trigger a key rotation and another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrMalformedResponse)
}

// Exhausted reports whether err means the caller gave up after rotating or retrying.
func Exhausted(err error) bool {
	return errors.Is(err, ErrKeysExhausted) || errors.Is(err, ErrAttemptsExhausted)
}
