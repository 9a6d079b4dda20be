package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boothvault/asset-library/internal/ratelimit"
)

// DefaultGoogleEndpoint is the public web translation endpoint.
const DefaultGoogleEndpoint = "https://translate.googleapis.com"

// Google calls the keyless "gtx" web endpoint.
type Google struct {
	endpoint *url.URL
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// NewGoogle creates a Google backend. An empty endpoint uses DefaultGoogleEndpoint.
func NewGoogle(endpoint string, timeout time.Duration, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) (*Google, error) {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse google endpoint: %w", err)
	}
	return &Google{
		endpoint: u,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
		logger:   logger,
	}, nil
}

// Name implements Translator.
func (g *Google) Name() string { return "google" }

// Translate implements Translator.
func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := g.limiter.Wait(ctx, g.endpoint.Host); err != nil {
		return "", wrapError(g.Name(), "translate", fmt.Errorf("rate limit wait: %w", err))
	}

	u := *g.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + "/translate_a/single"
	u.RawQuery = url.Values{
		"client": {"gtx"},
		"sl":     {source},
		"tl":     {target},
		"dt":     {"t"},
		"q":      {text},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", wrapError(g.Name(), "translate", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "asset-library/1.0")

	g.logger.Debug("google translate request", "chars", len(text))

	resp, err := g.http.Do(req)
	if err != nil {
		return "", wrapError(g.Name(), "translate", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return "", wrapError(g.Name(), "translate", err)
	}

	out, err := parseGoogleResponse(body)
	if err != nil {
		return "", wrapError(g.Name(), "decode", err)
	}
	return out, nil
}

// parseGoogleResponse concatenates the sentence segments of a gtx response:
//
//	[[["Hello","こんにちは",null,null,10],["World","世界",...]],null,"ja",...]
func parseGoogleResponse(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", err
	}
	if len(root) == 0 {
		return "", ErrEmptyResponse
	}

	var segments [][]any
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
