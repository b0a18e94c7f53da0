package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/reviewloop/reviewloop/internal/core"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Config holds the transport configuration of the analyzer. It is shared
// mutable state: mutating it between calls is safe, and a call in flight
// keeps working from the snapshot taken at its entry.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the analyzer defaults. The API key is deliberately
// empty; analysis refuses to run until one is configured.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		BaseURL:     defaultEndpoint,
		Timeout:     30 * time.Second,
		MaxTokens:   4096,
		Temperature: 0.3,
	}
}

// ConfigOption applies one partial configuration update.
type ConfigOption func(*Config)

func WithAPIKey(key string) ConfigOption       { return func(c *Config) { c.APIKey = key } }
func WithModel(model string) ConfigOption      { return func(c *Config) { c.Model = model } }
func WithBaseURL(u string) ConfigOption        { return func(c *Config) { c.BaseURL = u } }
func WithTimeout(d time.Duration) ConfigOption { return func(c *Config) { c.Timeout = d } }
func WithMaxTokens(n int) ConfigOption         { return func(c *Config) { c.MaxTokens = n } }
func WithTemperature(t float64) ConfigOption   { return func(c *Config) { c.Temperature = t } }

// Analyzer runs one code review analysis per AnalyzeCode call: it builds a
// structured prompt from a diff and a template, invokes the configured
// chat-completion endpoint, and parses the response into review comments.
// The analyzer holds no per-call state; every call is stateless given its
// inputs and the current configuration. There is no internal retry; retry is
// a policy the caller applies around the whole call.
type Analyzer struct {
	mu           sync.Mutex
	cfg          Config
	logger       *slog.Logger
	newTransport func(Config, *slog.Logger) ChatCompleter
}

// NewAnalyzer creates an analyzer. Zero-valued fields of cfg fall back to
// the defaults from DefaultConfig.
func NewAnalyzer(cfg Config, logger *slog.Logger) *Analyzer {
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaults.Temperature
	}

	return &Analyzer{
		cfg:          cfg,
		logger:       logger,
		newTransport: newHTTPTransport,
	}
}

// Configure sets the API key and model, keeping the rest of the
// configuration untouched.
func (a *Analyzer) Configure(apiKey, model string) {
	a.UpdateConfig(WithAPIKey(apiKey), WithModel(model))
}

// UpdateConfig applies partial configuration updates. It is safe to call
// between AnalyzeCode invocations; an in-flight call is unaffected.
func (a *Analyzer) UpdateConfig(opts ...ConfigOption) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, opt := range opts {
		opt(&a.cfg)
	}
}

// CurrentConfig returns a copy of the active configuration.
func (a *Analyzer) CurrentConfig() Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Model returns the currently configured model name.
func (a *Analyzer) Model() string {
	return a.CurrentConfig().Model
}

// AnalyzeCode reviews a diff against a template and returns validated review
// comments. Every failure path surfaces as a *core.LLMError with one of the
// five closed reasons; the analyzer never returns an untagged error.
func (a *Analyzer) AnalyzeCode(ctx context.Context, diff string, tmpl core.ReviewTemplate) ([]core.ReviewComment, error) {
	cfg := a.CurrentConfig()
	if cfg.APIKey == "" {
		return nil, core.NewLLMError(core.ReasonConfigurationError, "missing_api_key",
			"no API key is configured; call Configure before AnalyzeCode")
	}

	systemPrompt, err := BuildSystemPrompt(tmpl)
	if err != nil {
		return nil, core.NewLLMError(core.ReasonConfigurationError, "prompt_render_failed", err.Error())
	}
	userPrompt, err := BuildUserPrompt(diff)
	if err != nil {
		return nil, core.NewLLMError(core.ReasonConfigurationError, "prompt_render_failed", err.Error())
	}

	req := ChatRequest{
		Model: cfg.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	a.logger.Debug("sending analysis request", "model", cfg.Model, "diff_bytes", len(diff))

	resp, err := a.newTransport(cfg, a.logger).Complete(ctx, req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	comments, err := parseComments(resp, time.Now())
	if err != nil {
		a.logger.Warn("model response failed validation", "model", cfg.Model, "error", err)
		return nil, core.NewLLMError(core.ReasonInvalidResponse, "invalid_response", err.Error())
	}

	a.logger.Info("analysis complete",
		"model", cfg.Model,
		"comments", len(comments),
		"tokens_used", resp.Usage.TotalTokens)
	return comments, nil
}

// classifyTransportError maps a failure from the transport round-trip into
// the error taxonomy. It applies only before any response body is available
// for parsing.
func classifyTransportError(err error) *core.LLMError {
	if isTimeout(err) {
		return core.NewLLMError(core.ReasonTimeout, "timeout", "the analysis request timed out")
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 401:
			return core.NewLLMError(core.ReasonConfigurationError, "unauthorized",
				"the configured API key was rejected")
		case statusErr.StatusCode == 429:
			return core.NewLLMError(core.ReasonQuotaExceeded, "rate_limited",
				"the provider rate limit or quota was exceeded")
		case statusErr.StatusCode >= 500:
			return core.NewLLMError(core.ReasonAPIFailure, "server_error", statusErr.Error())
		default:
			return core.NewLLMError(core.ReasonAPIFailure, "request_failed", statusErr.Error())
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return core.NewLLMError(core.ReasonAPIFailure, "network_error",
			"no response from the analysis endpoint: "+urlErr.Err.Error())
	}

	msg := "the analysis request failed"
	if err != nil {
		msg = err.Error()
	}
	return core.NewLLMError(core.ReasonAPIFailure, "request_failed", msg)
}
