package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/reviewloop/reviewloop/internal/core"
	"github.com/reviewloop/reviewloop/internal/github"
	"github.com/reviewloop/reviewloop/internal/storage"
)

// ReviewHandler serves the review lifecycle: starting analysis runs, curating
// their comments and submitting the accepted ones back to the pull request.
type ReviewHandler struct {
	client     *github.CachedClient
	dispatcher core.JobDispatcher
	store      storage.Store
	logger     *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(client *github.CachedClient, dispatcher core.JobDispatcher, store storage.Store, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{client: client, dispatcher: dispatcher, store: store, logger: logger}
}

type startReviewRequest struct {
	TemplateName string `json:"templateName"`
	RequestedBy  string `json:"requestedBy"`
}

// StartReview queues an analysis run for a pull request and returns 202. The
// run itself happens on the worker pool; its result is looked up later via
// the reviews endpoints.
func (h *ReviewHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pull request number")
		return
	}

	var body startReviewRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	req, err := core.NewReviewRequest(owner, repo, number, body.TemplateName, body.RequestedBy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), req); err != nil {
		h.logger.Warn("review queue is full", "repo", req.RepoFullName, "pr", req.PRNumber)
		writeError(w, http.StatusServiceUnavailable, "review queue is full, try again later")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// ListReviews returns the analysis runs recorded for a pull request, newest
// first.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pull request number")
		return
	}

	reviews, err := h.store.ListReviews(r.Context(), owner+"/"+repo, number)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetReview returns a single analysis run by id.
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := reviewID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	review, err := h.store.GetReview(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		h.logger.Error("failed to load review", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load review")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// ListComments returns the comments produced by an analysis run, optionally
// filtered with ?status=accepted|rejected|pending.
func (h *ReviewHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := reviewID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	var comments []core.ReviewComment
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := core.CommentStatus(raw)
		if !core.ValidCommentStatus(status) {
			writeError(w, http.StatusBadRequest, "unknown comment status "+strconv.Quote(raw))
			return
		}
		comments, err = h.store.ListCommentsByStatus(r.Context(), id, status)
	} else {
		comments, err = h.store.ListComments(r.Context(), id)
	}
	if err != nil {
		h.logger.Error("failed to list comments", "review", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

type updateCommentRequest struct {
	Status core.CommentStatus `json:"status"`
}

// UpdateComment accepts or rejects a single comment before submission.
func (h *ReviewHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "id")

	var body updateCommentRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !core.ValidCommentStatus(body.Status) {
		writeError(w, http.StatusBadRequest, "unknown comment status "+strconv.Quote(string(body.Status)))
		return
	}

	if err := h.store.UpdateCommentStatus(r.Context(), commentID, body.Status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		h.logger.Error("failed to update comment", "comment", commentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(body.Status)})
}

// SubmitReview posts the accepted comments of a run back to the pull request
// as one batched review and marks the run submitted.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, err := reviewID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	review, err := h.store.GetReview(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		h.logger.Error("failed to load review", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load review")
		return
	}
	if review.State != core.ReviewSucceeded {
		writeError(w, http.StatusConflict, "review is not in a submittable state")
		return
	}

	accepted, err := h.store.ListCommentsByStatus(r.Context(), id, core.StatusAccepted)
	if err != nil {
		h.logger.Error("failed to list accepted comments", "review", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accepted comments")
		return
	}
	if len(accepted) == 0 {
		writeError(w, http.StatusBadRequest, "no accepted comments to submit")
		return
	}

	owner, repo, ok := strings.Cut(review.RepoFullName, "/")
	if !ok {
		h.logger.Error("review has malformed repository name", "id", id, "repo", review.RepoFullName)
		writeError(w, http.StatusInternalServerError, "review has malformed repository name")
		return
	}

	summary := "Automated review (" + review.TemplateName + " template)"
	if err := h.client.SubmitReview(r.Context(), owner, repo, review.PRNumber, summary, accepted); err != nil {
		h.logger.Error("failed to submit review", "review", id, "error", err)
		writeError(w, http.StatusBadGateway, "failed to submit review to the pull request")
		return
	}

	if err := h.store.SetReviewState(r.Context(), id, core.ReviewSubmitted, ""); err != nil {
		h.logger.Error("failed to mark review submitted", "review", id, "error", err)
		writeError(w, http.StatusInternalServerError, "review submitted but state update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submitted": len(accepted)})
}

func reviewID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
