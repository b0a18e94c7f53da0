// Package llm implements the code-analysis pipeline: prompt construction,
// the chat-completion transport call, and strict parsing of the model's
// free-form response into typed review comments.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
)

// ChatMessage is one entry of a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the outbound body of a chat-completions call.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// ChatChoice is one candidate completion returned by the provider.
type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

// ChatUsage reports the provider's token accounting.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the inbound body of a successful chat-completions call.
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// ChatCompleter abstracts the chat-completion endpoint so the analyzer can be
// tested against a fake transport.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// StatusError is returned by the HTTP transport for any non-200 response.
// Message carries the provider's error message when one was present in the
// body, so the analyzer can surface it instead of a generic status line.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chat completion failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chat completion failed with status %d", e.StatusCode)
}

// httpTransport is the production ChatCompleter: one bearer-authenticated
// HTTPS POST per call, with the timeout enforced by the underlying client.
type httpTransport struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// newHTTPTransport builds a transport from a configuration snapshot. The
// snapshot is taken by the analyzer at call entry, so configuration changes
// never affect an in-flight request.
func newHTTPTransport(cfg Config, logger *slog.Logger) ChatCompleter {
	return &httpTransport{
		endpoint: cfg.BaseURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

func (t *httpTransport) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Error("chat completion request failed", "endpoint", t.endpoint, "error", err)
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading chat response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: httpResp.StatusCode,
			Message:    providerErrorMessage(body),
		}
	}

	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	return &resp, nil
}

// providerErrorMessage extracts the {"error":{"message":...}} field most
// chat-completion providers put in error bodies. Returns "" when absent.
func providerErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error.Message
}

// isTimeout reports whether err represents an exceeded request deadline
// rather than a refused or failed connection.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
