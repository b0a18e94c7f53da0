package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/reviewloop/internal/core"
)

// fakeTransport records every request and plays back a canned response or
// error.
type fakeTransport struct {
	calls    int
	lastReq  ChatRequest
	response *ChatResponse
	err      error
}

func (f *fakeTransport) Complete(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAnalyzer(t *testing.T, transport *fakeTransport) *Analyzer {
	t.Helper()
	a := NewAnalyzer(Config{APIKey: "test-key"}, testLogger())
	a.newTransport = func(Config, *slog.Logger) ChatCompleter { return transport }
	return a
}

func TestAnalyzeCode_NoAPIKey(t *testing.T) {
	transport := &fakeTransport{}
	a := NewAnalyzer(Config{}, testLogger())
	a.newTransport = func(Config, *slog.Logger) ChatCompleter { return transport }

	_, err := a.AnalyzeCode(context.Background(), "+x", testTemplate())

	llmErr, ok := core.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, core.ReasonConfigurationError, llmErr.Reason)
	assert.Equal(t, 0, transport.calls, "no network call may be made without an API key")
}

func TestAnalyzeCode_Success(t *testing.T) {
	transport := &fakeTransport{
		response: responseWith("```json\n{\"comments\":[{\"file\":\"a.ts\",\"line\":3,\"content\":\"x\"}]}\n```"),
	}
	a := newTestAnalyzer(t, transport)

	comments, err := a.AnalyzeCode(context.Background(), "+added", testTemplate())
	require.NoError(t, err)
	require.Len(t, comments, 1)

	assert.Equal(t, core.SeverityInfo, comments[0].Severity)
	assert.Equal(t, core.CategoryCodeQuality, comments[0].Category)
	assert.Equal(t, core.StatusPending, comments[0].Status)

	// The request is built from the configuration and the two prompts.
	require.Len(t, transport.lastReq.Messages, 2)
	assert.Equal(t, "system", transport.lastReq.Messages[0].Role)
	assert.Equal(t, "user", transport.lastReq.Messages[1].Role)
	assert.Contains(t, transport.lastReq.Messages[1].Content, "+added")
	assert.Equal(t, "gpt-4o-mini", transport.lastReq.Model)
	assert.Equal(t, 4096, transport.lastReq.MaxTokens)
}

func TestAnalyzeCode_InvalidResponseReturnsNoPartialList(t *testing.T) {
	transport := &fakeTransport{
		response: responseWith(`{"comments":[{"file":"a.ts","line":0,"content":"x"}]}`),
	}
	a := newTestAnalyzer(t, transport)

	comments, err := a.AnalyzeCode(context.Background(), "+x", testTemplate())

	llmErr, ok := core.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, core.ReasonInvalidResponse, llmErr.Reason)
	assert.Contains(t, llmErr.Message, "index 0")
	assert.Empty(t, comments)
}

func TestAnalyzeCode_TransportClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason core.LLMErrorReason
	}{
		{
			name:       "timeout",
			err:        &url.Error{Op: "Post", URL: defaultEndpoint, Err: context.DeadlineExceeded},
			wantReason: core.ReasonTimeout,
		},
		{
			name:       "401 bad key",
			err:        &StatusError{StatusCode: 401},
			wantReason: core.ReasonConfigurationError,
		},
		{
			name:       "429 quota",
			err:        &StatusError{StatusCode: 429},
			wantReason: core.ReasonQuotaExceeded,
		},
		{
			name:       "500 server error",
			err:        &StatusError{StatusCode: 500, Message: "upstream exploded"},
			wantReason: core.ReasonAPIFailure,
		},
		{
			name:       "404 other status",
			err:        &StatusError{StatusCode: 404, Message: "model not found"},
			wantReason: core.ReasonAPIFailure,
		},
		{
			name:       "connection refused",
			err:        &url.Error{Op: "Post", URL: defaultEndpoint, Err: errors.New("connection refused")},
			wantReason: core.ReasonAPIFailure,
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantReason: core.ReasonAPIFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(t, &fakeTransport{err: tt.err})

			_, err := a.AnalyzeCode(context.Background(), "+x", testTemplate())

			llmErr, ok := core.AsLLMError(err)
			require.True(t, ok, "every failure must carry the typed error")
			assert.Equal(t, tt.wantReason, llmErr.Reason)
		})
	}
}

func TestAnalyzeCode_ProviderMessageSurfaced(t *testing.T) {
	a := newTestAnalyzer(t, &fakeTransport{err: &StatusError{StatusCode: 404, Message: "model not found"}})

	_, err := a.AnalyzeCode(context.Background(), "+x", testTemplate())

	llmErr, ok := core.AsLLMError(err)
	require.True(t, ok)
	assert.Contains(t, llmErr.Message, "model not found")
}

func TestConfigureAndUpdateConfig(t *testing.T) {
	a := NewAnalyzer(Config{}, testLogger())

	a.Configure("sk-123", "gpt-4o")
	cfg := a.CurrentConfig()
	assert.Equal(t, "sk-123", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, defaultEndpoint, cfg.BaseURL)

	a.UpdateConfig(WithTimeout(5*time.Second), WithMaxTokens(512), WithTemperature(0.9))
	cfg = a.CurrentConfig()
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.InDelta(t, 0.9, cfg.Temperature, 1e-9)
	assert.Equal(t, "sk-123", cfg.APIKey, "partial updates leave other fields alone")
}

// An in-flight call works from the snapshot taken at entry; reconfiguring the
// analyzer mid-call must not change the request already built.
func TestAnalyzeCode_UsesConfigSnapshot(t *testing.T) {
	transport := &fakeTransport{response: responseWith(`{"comments":[]}`)}
	a := newTestAnalyzer(t, transport)
	a.UpdateConfig(WithModel("model-a"))

	_, err := a.AnalyzeCode(context.Background(), "+x", testTemplate())
	require.NoError(t, err)
	assert.Equal(t, "model-a", transport.lastReq.Model)

	a.UpdateConfig(WithModel("model-b"))
	_, err = a.AnalyzeCode(context.Background(), "+x", testTemplate())
	require.NoError(t, err)
	assert.Equal(t, "model-b", transport.lastReq.Model)
}
