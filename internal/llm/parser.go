package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reviewloop/reviewloop/internal/core"
)

// Matches a JSON object wrapped in a markdown code fence, with an optional
// "json" language tag. Models frequently wrap their JSON output this way
// despite being told not to.
var jsonFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// rawComment mirrors one element of the model's comments array before
// validation. Line is decoded as a JSON number; a string-typed line is a
// decode error, not something to coerce.
type rawComment struct {
	File     string  `json:"file"`
	Line     float64 `json:"line"`
	Content  string  `json:"content"`
	Severity string  `json:"severity"`
	Category string  `json:"category"`
}

// parseComments turns an untrusted chat-completion response into validated
// review comments. Any structural violation fails the entire call; a partial
// comment list is never returned.
func parseComments(resp *ChatResponse, now time.Time) ([]core.ReviewComment, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response contains no choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("response content is empty")
	}

	payload := stripJSONFence(content)

	var envelope struct {
		Comments json.RawMessage `json:"comments"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	// A JSON null arrives as the literal "null", not a nil RawMessage; it is
	// just as much a missing array as an absent key.
	if envelope.Comments == nil || bytes.Equal(envelope.Comments, []byte("null")) {
		return nil, fmt.Errorf("response has no comments array")
	}

	var raw []rawComment
	if err := json.Unmarshal(envelope.Comments, &raw); err != nil {
		return nil, fmt.Errorf("comments is not a valid array: %w", err)
	}

	comments := make([]core.ReviewComment, 0, len(raw))
	for i, rc := range raw {
		comment, err := validateComment(rc, now)
		if err != nil {
			return nil, fmt.Errorf("comment at index %d is invalid: %w", i, err)
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// validateComment checks one raw element field by field and maps it into a
// ReviewComment, defaulting severity and category when the model left them
// out.
func validateComment(rc rawComment, now time.Time) (core.ReviewComment, error) {
	if strings.TrimSpace(rc.File) == "" {
		return core.ReviewComment{}, fmt.Errorf("file must be a non-empty string")
	}
	if rc.Line <= 0 || rc.Line != math.Trunc(rc.Line) {
		return core.ReviewComment{}, fmt.Errorf("line must be a positive integer, got %v", rc.Line)
	}
	if strings.TrimSpace(rc.Content) == "" {
		return core.ReviewComment{}, fmt.Errorf("content must be a non-empty string")
	}

	severity := core.SeverityInfo
	if rc.Severity != "" {
		severity = core.Severity(strings.ToLower(rc.Severity))
		if !core.ValidSeverity(severity) {
			return core.ReviewComment{}, fmt.Errorf("unknown severity %q", rc.Severity)
		}
	}

	category := core.CategoryCodeQuality
	if rc.Category != "" {
		category = core.Category(strings.ToLower(rc.Category))
		if !core.ValidCategory(category) {
			return core.ReviewComment{}, fmt.Errorf("unknown category %q", rc.Category)
		}
	}

	return core.ReviewComment{
		ID:        uuid.NewString(),
		File:      rc.File,
		Line:      int(rc.Line),
		Content:   rc.Content,
		Severity:  severity,
		Status:    core.StatusPending,
		Category:  category,
		CreatedAt: now,
	}, nil
}

// stripJSONFence unwraps a fenced JSON object from the response text. When no
// fence is found the trimmed text is returned as-is and left to the JSON
// decoder.
func stripJSONFence(s string) string {
	if matches := jsonFenceRegex.FindStringSubmatch(s); len(matches) == 2 {
		return matches[1]
	}
	return strings.TrimSpace(s)
}
