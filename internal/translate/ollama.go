package translate

import (
	"bytes"
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

// DefaultOllamaEndpoint is the local Ollama server.
const DefaultOllamaEndpoint = "http://localhost:11434"

const ollamaSystemPrompt = "You translate product listings for 3D avatar assets. " +
	"Reply with JSON of the form {\"translation\": \"...\"} and nothing else. " +
	"Keep brand names, avatar names and version numbers unchanged."

// Ollama translates with a local LLM through the Ollama chat API.
type Ollama struct {
	endpoint *url.URL
	model    string
	http     *http.Client
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// NewOllama creates an Ollama backend.
func NewOllama(endpoint, model string, timeout time.Duration, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) (*Ollama, error) {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse ollama endpoint: %w", err)
	}
	return &Ollama{
		endpoint: u,
		model:    model,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
		logger:   logger,
	}, nil
}

// Name implements Translator.
func (o *Ollama) Name() string { return "ollama" }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

// Translate implements Translator.
func (o *Ollama) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := o.limiter.Wait(ctx, o.endpoint.Host); err != nil {
		return "", wrapError(o.Name(), "translate", fmt.Errorf("rate limit wait: %w", err))
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model: o.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: ollamaSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Translate from %s to %s:\n%s", source, target, text)},
		},
		Format:  "json",
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return "", wrapError(o.Name(), "translate", err)
	}

	u := *o.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + "/api/chat"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return "", wrapError(o.Name(), "translate", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	o.logger.Debug("ollama translate request", "model", o.model, "chars", len(text))

	resp, err := o.http.Do(req)
	if err != nil {
		return "", wrapError(o.Name(), "translate", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return "", wrapError(o.Name(), "translate", err)
	}

	var chat ollamaChatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", wrapError(o.Name(), "decode", err)
	}

	out, err := extractTranslation(chat.Message.Content)
	if err != nil {
		return "", wrapError(o.Name(), "decode", err)
	}
	return out, nil
}

// extractTranslation pulls the translation out of a model reply. Models do not
// always honour JSON mode, so fenced blocks and bare text are accepted too.
func extractTranslation(content string) (string, error) {
	s := strings.TrimSpace(content)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := strings.TrimPrefix(s[i+3:], "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = strings.TrimSpace(rest[:j])
		}
	}

	var obj struct {
		Translation string `json:"translation"`
	}
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		if err := json.Unmarshal([]byte(s[i:j+1]), &obj); err == nil {
			if t := strings.TrimSpace(obj.Translation); t != "" {
				return t, nil
			}
			return "", ErrEmptyResponse
		}
	}

	if s == "" || strings.Contains(s, "{") {
		return "", ErrEmptyResponse
	}
	return s, nil
}
