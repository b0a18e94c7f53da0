package core

import (
	"fmt"
	"strings"
)

// ReviewRequest describes one pull request review to execute. It is the unit
// of work queued by the API layer and consumed by the job dispatcher.
type ReviewRequest struct {
	RepoOwner    string
	RepoName     string
	RepoFullName string
	PRNumber     int
	TemplateName string
	RequestedBy  string
}

// NewReviewRequest validates the raw handler input and builds the internal
// request. It acts as an anti-corruption layer between the HTTP surface and
// the job pipeline.
func NewReviewRequest(owner, repo string, prNumber int, templateName, requestedBy string) (*ReviewRequest, error) {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("repository owner and name are required")
	}
	if strings.ContainsAny(owner, "/ ") || strings.ContainsAny(repo, "/ ") {
		return nil, fmt.Errorf("invalid repository identifier %q/%q", owner, repo)
	}
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	return &ReviewRequest{
		RepoOwner:    owner,
		RepoName:     repo,
		RepoFullName: owner + "/" + repo,
		PRNumber:     prNumber,
		TemplateName: templateName,
		RequestedBy:  requestedBy,
	}, nil
}
