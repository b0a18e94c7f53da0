package github

import (
	"context"
	"log/slog"
	"time"

	"github.com/reviewloop/reviewloop/internal/cache"
	"github.com/reviewloop/reviewloop/internal/core"
)

// CachedClient wraps a Client so the four idempotent reads are memoized in a
// TTL cache. Writes pass straight through. Invalidation is explicit: logging
// out, switching repository, or refreshing a PR list deletes the derived keys
// rather than waiting for expiry.
type CachedClient struct {
	client Client
	store  *cache.Cache[any]
	token  string
	logger *slog.Logger
}

var _ Client = (*CachedClient)(nil)

// NewCachedClient wraps client with the given cache. The token only
// participates in key derivation; authentication happens in the underlying
// client.
func NewCachedClient(client Client, store *cache.Cache[any], token string, logger *slog.Logger) *CachedClient {
	return &CachedClient{
		client: client,
		store:  store,
		token:  token,
		logger: logger,
	}
}

// getOrSet adapts the untyped shared cache to a typed read. A shape mismatch
// under a key means the key derivation is broken somewhere; fall back to a
// direct fetch rather than returning garbage.
func getOrSet[T any](ctx context.Context, c *CachedClient, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.store.GetOrSet(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, ttl)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		c.logger.Warn("cache entry has unexpected type, bypassing cache", "key", key)
		return fetch(ctx)
	}
	return typed, nil
}

func (c *CachedClient) GetAuthenticatedUser(ctx context.Context) (User, error) {
	return getOrSet(ctx, c, cache.UserKey(c.token), cache.UserTTL, c.client.GetAuthenticatedUser)
}

func (c *CachedClient) ListRepositories(ctx context.Context) ([]Repository, error) {
	return getOrSet(ctx, c, cache.ReposKey(c.token), cache.ReposTTL, c.client.ListRepositories)
}

func (c *CachedClient) ListPullRequests(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	key := cache.PRsKey(owner + "/" + repo)
	return getOrSet(ctx, c, key, cache.PRsTTL, func(ctx context.Context) ([]PullRequest, error) {
		return c.client.ListPullRequests(ctx, owner, repo)
	})
}

func (c *CachedClient) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	key := cache.DiffKey(owner+"/"+repo, number)
	return getOrSet(ctx, c, key, cache.DiffTTL, func(ctx context.Context) (string, error) {
		return c.client.GetPullRequestDiff(ctx, owner, repo, number)
	})
}

// SubmitReview passes through and drops the cached PR list, since the
// submitted review changes what a refreshed listing should show.
func (c *CachedClient) SubmitReview(ctx context.Context, owner, repo string, number int, body string, comments []core.ReviewComment) error {
	if err := c.client.SubmitReview(ctx, owner, repo, number, body, comments); err != nil {
		return err
	}
	c.InvalidatePullRequests(owner + "/" + repo)
	return nil
}

// InvalidateRepositories drops the cached repository list for the token.
func (c *CachedClient) InvalidateRepositories() {
	c.store.Delete(cache.ReposKey(c.token))
}

// InvalidatePullRequests drops the cached PR list of one repository.
func (c *CachedClient) InvalidatePullRequests(repoFullName string) {
	c.store.Delete(cache.PRsKey(repoFullName))
}

// InvalidateDiff drops the cached diff of one pull request.
func (c *CachedClient) InvalidateDiff(repoFullName string, number int) {
	c.store.Delete(cache.DiffKey(repoFullName, number))
}

// InvalidateAll clears the whole cache; used on logout.
func (c *CachedClient) InvalidateAll() {
	c.store.Clear()
}

// CacheStats exposes the underlying cache diagnostics.
func (c *CachedClient) CacheStats() cache.Stats {
	return c.store.GetStats()
}
