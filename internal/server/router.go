package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reviewloop/reviewloop/internal/core"
	"github.com/reviewloop/reviewloop/internal/github"
	"github.com/reviewloop/reviewloop/internal/server/handler"
	"github.com/reviewloop/reviewloop/internal/storage"
)

// NewRouter creates and configures a new HTTP router with middleware and API
// routes.
func NewRouter(client *github.CachedClient, dispatcher core.JobDispatcher, store storage.Store, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		sourceHandler := handler.NewSourceHandler(client, logger)
		r.Get("/user", sourceHandler.GetUser)
		r.Get("/repos", sourceHandler.ListRepositories)
		r.Get("/repos/{owner}/{repo}/pulls", sourceHandler.ListPullRequests)
		r.Get("/cache/stats", sourceHandler.CacheStats)
		r.Post("/cache/invalidate", sourceHandler.InvalidateCache)

		reviewHandler := handler.NewReviewHandler(client, dispatcher, store, logger)
		r.Post("/repos/{owner}/{repo}/pulls/{number}/review", reviewHandler.StartReview)
		r.Get("/repos/{owner}/{repo}/pulls/{number}/reviews", reviewHandler.ListReviews)
		r.Get("/reviews/{id}", reviewHandler.GetReview)
		r.Get("/reviews/{id}/comments", reviewHandler.ListComments)
		r.Patch("/comments/{id}", reviewHandler.UpdateComment)
		r.Post("/reviews/{id}/submit", reviewHandler.SubmitReview)
	})

	return r
}
