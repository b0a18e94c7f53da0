package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reviewloop/reviewloop/internal/core"
	"github.com/reviewloop/reviewloop/internal/github"
	"github.com/reviewloop/reviewloop/internal/storage"
	"github.com/reviewloop/reviewloop/internal/templates"
)

// CodeAnalyzer is the slice of the LLM pipeline the review job depends on.
type CodeAnalyzer interface {
	AnalyzeCode(ctx context.Context, diff string, tmpl core.ReviewTemplate) ([]core.ReviewComment, error)
	Model() string
}

// ReviewJob executes one automated code review: fetch the diff, run the
// analysis pipeline, and persist the outcome. Failures from the pipeline are
// recorded with their classified reason so callers can tell retriable
// transport problems from configuration mistakes.
type ReviewJob struct {
	source   github.Client
	analyzer CodeAnalyzer
	store    storage.Store
	registry *templates.Registry
	logger   *slog.Logger
}

// NewReviewJob creates a ReviewJob with its collaborators.
func NewReviewJob(source github.Client, analyzer CodeAnalyzer, store storage.Store, registry *templates.Registry, logger *slog.Logger) core.Job {
	if source == nil {
		panic("source client cannot be nil")
	}
	if analyzer == nil {
		panic("analyzer cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if registry == nil {
		panic("template registry cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{source: source, analyzer: analyzer, store: store, registry: registry, logger: logger}
}

// Run executes the code review job for a given request.
func (j *ReviewJob) Run(ctx context.Context, req *core.ReviewRequest) error {
	if req == nil {
		return fmt.Errorf("review request cannot be nil")
	}

	tmpl, err := j.registry.Get(req.TemplateName)
	if err != nil {
		return fmt.Errorf("failed to resolve review template: %w", err)
	}

	j.logger.Info("starting review job",
		"repo", req.RepoFullName, "pr", req.PRNumber, "template", tmpl.Name)

	review := &core.Review{
		RepoFullName: req.RepoFullName,
		PRNumber:     req.PRNumber,
		TemplateName: tmpl.Name,
		Model:        j.analyzer.Model(),
		State:        core.ReviewRunning,
	}
	if err := j.store.CreateReview(ctx, review); err != nil {
		return fmt.Errorf("failed to create review record: %w", err)
	}

	diff, err := j.source.GetPullRequestDiff(ctx, req.RepoOwner, req.RepoName, req.PRNumber)
	if err != nil {
		j.markFailed(ctx, review.ID, "diff_fetch_failed")
		return fmt.Errorf("failed to fetch pull request diff: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		j.markFailed(ctx, review.ID, "empty_diff")
		return fmt.Errorf("pull request %s#%d has an empty diff", req.RepoFullName, req.PRNumber)
	}

	comments, err := j.analyzer.AnalyzeCode(ctx, diff, tmpl)
	if err != nil {
		reason := "unknown"
		if llmErr, ok := core.AsLLMError(err); ok {
			reason = string(llmErr.Reason)
		}
		j.markFailed(ctx, review.ID, reason)
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := j.store.SaveComments(ctx, review.ID, comments); err != nil {
		j.markFailed(ctx, review.ID, "storage_failed")
		return fmt.Errorf("failed to save review comments: %w", err)
	}
	if err := j.store.SetReviewState(ctx, review.ID, core.ReviewSucceeded, ""); err != nil {
		return fmt.Errorf("failed to mark review as succeeded: %w", err)
	}

	j.logger.Info("review job completed",
		"repo", req.RepoFullName, "pr", req.PRNumber, "comments", len(comments))
	return nil
}

func (j *ReviewJob) markFailed(ctx context.Context, reviewID int64, reason string) {
	if err := j.store.SetReviewState(ctx, reviewID, core.ReviewFailed, reason); err != nil {
		j.logger.Error("failed to record review failure", "review_id", reviewID, "error", err)
	}
}
