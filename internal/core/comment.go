// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import "time"

// Severity grades how serious a review finding is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidSeverity reports whether s is one of the known severity levels.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	default:
		return false
	}
}

// CommentStatus tracks where a comment sits in the curation workflow.
type CommentStatus string

const (
	StatusPending  CommentStatus = "pending"
	StatusAccepted CommentStatus = "accepted"
	StatusRejected CommentStatus = "rejected"
)

// ValidCommentStatus reports whether s is one of the known curation states.
func ValidCommentStatus(s CommentStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Category classifies which review concern a comment belongs to.
type Category string

const (
	CategoryCodeQuality     Category = "code_quality"
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryMaintainability Category = "maintainability"
	CategoryTesting         Category = "testing"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryCodeQuality, CategorySecurity, CategoryPerformance,
		CategoryMaintainability, CategoryTesting:
		return true
	default:
		return false
	}
}

// ReviewComment is a single piece of structured feedback tied to a specific
// file and line. Comments are produced by the LLM response parser and then
// curated (accepted or rejected) before submission back to the host.
type ReviewComment struct {
	ID        string        `json:"id" db:"id"`
	File      string        `json:"file" db:"file"`
	Line      int           `json:"line" db:"line"`
	Content   string        `json:"content" db:"content"`
	Severity  Severity      `json:"severity" db:"severity"`
	Status    CommentStatus `json:"status" db:"status"`
	Category  Category      `json:"category" db:"category"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}
