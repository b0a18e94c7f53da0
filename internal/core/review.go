package core

import "time"

// ReviewState tracks the lifecycle of a stored review run.
type ReviewState string

const (
	ReviewRunning   ReviewState = "running"
	ReviewSucceeded ReviewState = "succeeded"
	ReviewFailed    ReviewState = "failed"
	ReviewSubmitted ReviewState = "submitted"
)

// Review represents a single code review run stored in the database. A run
// that failed keeps the classified failure reason so the UI can distinguish
// retriable transport problems from template or configuration mistakes.
type Review struct {
	ID            int64       `json:"id" db:"id"`
	RepoFullName  string      `json:"repoFullName" db:"repo_full_name"`
	PRNumber      int         `json:"prNumber" db:"pr_number"`
	TemplateName  string      `json:"templateName" db:"template_name"`
	Model         string      `json:"model" db:"model"`
	State         ReviewState `json:"state" db:"state"`
	FailureReason string      `json:"failureReason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
}
