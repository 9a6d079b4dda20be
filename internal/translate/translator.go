// Package translate provides machine translation backends and the persisted
// translation cache that makes translation incremental across builds.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Translator is a machine translation backend.
type Translator interface {
	// Translate translates text from source to target language.
	Translate(ctx context.Context, text, source, target string) (string, error)
	// Name identifies the backend in logs.
	Name() string
}

// Sentinel errors for backend operations.
var (
	ErrRateLimited   = errors.New("translate: rate limited by server")
	ErrBadRequest    = errors.New("translate: bad request")
	ErrServer        = errors.New("translate: server error")
	ErrEmptyResponse = errors.New("translate: empty translation")
)

// Error wraps a backend failure with context.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(backend, op string, err error) error {
	return &Error{Backend: backend, Op: op, Err: err}
}

// readResponse maps HTTP status codes to sentinel errors and returns the body.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrBadRequest
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
