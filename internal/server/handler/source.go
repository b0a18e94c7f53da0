package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reviewloop/reviewloop/internal/github"
)

// SourceHandler serves the memoized source-control reads and the explicit
// cache invalidation endpoints.
type SourceHandler struct {
	client *github.CachedClient
	logger *slog.Logger
}

// NewSourceHandler creates a SourceHandler.
func NewSourceHandler(client *github.CachedClient, logger *slog.Logger) *SourceHandler {
	return &SourceHandler{client: client, logger: logger}
}

// GetUser returns the authenticated user behind the configured token.
func (h *SourceHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.client.GetAuthenticatedUser(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch authenticated user", "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch authenticated user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListRepositories returns the repositories visible to the token. Passing
// ?refresh=true drops the cached list first.
func (h *SourceHandler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		h.client.InvalidateRepositories()
	}

	repos, err := h.client.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("failed to list repositories", "error", err)
		writeError(w, http.StatusBadGateway, "failed to list repositories")
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

// ListPullRequests returns the open pull requests of a repository. Passing
// ?refresh=true drops the cached list first.
func (h *SourceHandler) ListPullRequests(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	if r.URL.Query().Get("refresh") == "true" {
		h.client.InvalidatePullRequests(owner + "/" + repo)
	}

	prs, err := h.client.ListPullRequests(r.Context(), owner, repo)
	if err != nil {
		h.logger.Error("failed to list pull requests", "owner", owner, "repo", repo, "error", err)
		writeError(w, http.StatusBadGateway, "failed to list pull requests")
		return
	}
	writeJSON(w, http.StatusOK, prs)
}

// CacheStats returns a point-in-time snapshot of the request cache.
func (h *SourceHandler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.client.CacheStats())
}

// invalidateRequest selects which cached reads to drop. An empty scope
// clears everything (logout).
type invalidateRequest struct {
	Scope        string `json:"scope"` // "all", "repos", "pulls" or "diff"
	RepoFullName string `json:"repoFullName"`
	PRNumber     int    `json:"prNumber"`
}

// InvalidateCache drops cached entries explicitly instead of waiting for
// their TTL to lapse.
func (h *SourceHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Scope {
	case "", "all":
		h.client.InvalidateAll()
	case "repos":
		h.client.InvalidateRepositories()
	case "pulls":
		if req.RepoFullName == "" {
			writeError(w, http.StatusBadRequest, "repoFullName is required for scope pulls")
			return
		}
		h.client.InvalidatePullRequests(req.RepoFullName)
	case "diff":
		if req.RepoFullName == "" || req.PRNumber <= 0 {
			writeError(w, http.StatusBadRequest, "repoFullName and prNumber are required for scope diff")
			return
		}
		h.client.InvalidateDiff(req.RepoFullName, req.PRNumber)
	default:
		writeError(w, http.StatusBadRequest, "unknown scope "+strconv.Quote(req.Scope))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
