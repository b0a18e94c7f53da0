// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/reviewloop/reviewloop/internal/core"
)

// Repository is the subset of repository metadata the application works with.
type Repository struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
}

// PullRequest is the subset of pull request metadata the application works with.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	State     string    `json:"state"`
	HeadSHA   string    `json:"headSha"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User identifies the authenticated account behind a token.
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// Client defines the source-control host operations the application needs:
// the four idempotent reads that get memoized, plus review submission.
type Client interface {
	GetAuthenticatedUser(ctx context.Context) (User, error)
	ListRepositories(ctx context.Context) ([]Repository, error)
	ListPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error)
	GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
	SubmitReview(ctx context.Context, owner, repo string, number int, body string, comments []core.ReviewComment) error
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewClient creates a GitHub client authenticated with a personal access
// token.
func NewClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &gitHubClient{client: github.NewClient(tc), logger: logger}
}

// GetAuthenticatedUser retrieves the account that owns the configured token.
func (g *gitHubClient) GetAuthenticatedUser(ctx context.Context) (User, error) {
	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		g.logger.Error("failed to get authenticated user", "error", err)
		return User{}, err
	}
	return User{Login: user.GetLogin(), Name: user.GetName()}, nil
}

// ListRepositories retrieves all repositories visible to the authenticated
// user, most recently pushed first. It paginates automatically.
func (g *gitHubClient) ListRepositories(ctx context.Context) ([]Repository, error) {
	var all []Repository
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "pushed",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := g.client.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			g.logger.Error("failed to list repositories", "error", err)
			return nil, err
		}
		for _, r := range repos {
			all = append(all, Repository{
				Owner:       r.GetOwner().GetLogin(),
				Name:        r.GetName(),
				FullName:    r.GetFullName(),
				Description: r.GetDescription(),
				Private:     r.GetPrivate(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// ListPullRequests retrieves the open pull requests of a repository.
func (g *gitHubClient) ListPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	var all []PullRequest
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		prs, resp, err := g.client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			g.logger.Error("failed to list pull requests", "owner", owner, "repo", repo, "error", err)
			return nil, err
		}
		for _, pr := range prs {
			all = append(all, PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				Author:    pr.GetUser().GetLogin(),
				State:     pr.GetState(),
				HeadSHA:   pr.GetHead().GetSHA(),
				UpdatedAt: pr.GetUpdatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetPullRequestDiff retrieves the unified diff of a pull request as a string.
func (g *gitHubClient) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := g.client.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{
		Type: github.Diff,
	})
	if err != nil {
		g.logger.Error("failed to get pull request diff", "owner", owner, "repo", repo, "pr", number, "error", err)
		return "", err
	}
	return diff, nil
}

// SubmitReview posts the given comments back to the host as a single pull
// request review with line-level comments.
func (g *gitHubClient) SubmitReview(ctx context.Context, owner, repo string, number int, body string, comments []core.ReviewComment) error {
	var ghComments []*github.DraftReviewComment
	for _, c := range comments {
		ghComments = append(ghComments, &github.DraftReviewComment{
			Path: github.Ptr(c.File),
			Line: github.Ptr(c.Line),
			Body: github.Ptr(c.Content),
		})
	}

	reviewRequest := &github.PullRequestReviewRequest{
		Body:     &body,
		Event:    github.Ptr("COMMENT"),
		Comments: ghComments,
	}

	_, _, err := g.client.PullRequests.CreateReview(ctx, owner, repo, number, reviewRequest)
	if err != nil {
		g.logger.Error("failed to create pull request review", "owner", owner, "repo", repo, "pr", number, "error", err)
	}
	return err
}
