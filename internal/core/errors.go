package core

import (
	"errors"
	"fmt"
	"time"
)

// LLMErrorReason is the closed set of failure modes the analysis pipeline can
// surface. Callers use it to decide retry policy: timeout, quota_exceeded and
// api_failure are retriable with backoff; configuration_error and
// invalid_response are not without a configuration or template change.
type LLMErrorReason string

const (
	ReasonConfigurationError LLMErrorReason = "configuration_error"
	ReasonTimeout            LLMErrorReason = "timeout"
	ReasonQuotaExceeded      LLMErrorReason = "quota_exceeded"
	ReasonAPIFailure         LLMErrorReason = "api_failure"
	ReasonInvalidResponse    LLMErrorReason = "invalid_response"
)

// LLMError is the single typed error the analysis pipeline returns. Every
// exit path (precondition check, transport failure, parse failure, validation
// failure) is normalized into one of these before surfacing.
type LLMError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Reason    LLMErrorReason `json:"reason"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s (%s): %s", e.Reason, e.Code, e.Message)
}

// NewLLMError builds a tagged pipeline error stamped with the current time.
func NewLLMError(reason LLMErrorReason, code, message string) *LLMError {
	return &LLMError{
		Code:      code,
		Message:   message,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// Retriable reports whether the failure is worth retrying without a
// configuration or template change.
func (e *LLMError) Retriable() bool {
	switch e.Reason {
	case ReasonTimeout, ReasonQuotaExceeded, ReasonAPIFailure:
		return true
	default:
		return false
	}
}

// AsLLMError unwraps err into an *LLMError if one is in the chain.
func AsLLMError(err error) (*LLMError, bool) {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr, true
	}
	return nil, false
}
