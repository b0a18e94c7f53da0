package cache

import (
	"fmt"
	"time"
)

// TTLs for the four memoized source-control reads. The authenticated user is
// effectively static per token; repository lists churn slowly; open PR lists
// churn quickly; diffs are near-immutable once a PR stabilizes.
const (
	UserTTL  = time.Hour
	ReposTTL = 10 * time.Minute
	PRsTTL   = 2 * time.Minute
	DiffTTL  = 30 * time.Minute
)

// Key builders for the memoized source-control reads. Callers must derive
// keys through these functions so the invalidation helpers target the same
// strings.

// ReposKey keys the repository list visible to a token.
func ReposKey(token string) string {
	return "repos:" + token
}

// PRsKey keys the pull request list of one repository.
func PRsKey(repoFullName string) string {
	return "prs:" + repoFullName
}

// DiffKey keys the diff of one pull request.
func DiffKey(repoFullName string, prNumber int) string {
	return fmt.Sprintf("diff:%s:%d", repoFullName, prNumber)
}

// UserKey keys the authenticated user lookup for a token.
func UserKey(token string) string {
	return "user:" + token
}
