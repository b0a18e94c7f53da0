// Package app initializes and orchestrates the main components of the
// Reviewloop application. It wires together the configuration, cache,
// source client, analyzer, storage and server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reviewloop/reviewloop/internal/cache"
	"github.com/reviewloop/reviewloop/internal/config"
	"github.com/reviewloop/reviewloop/internal/core"
	"github.com/reviewloop/reviewloop/internal/db"
	"github.com/reviewloop/reviewloop/internal/github"
	"github.com/reviewloop/reviewloop/internal/jobs"
	"github.com/reviewloop/reviewloop/internal/llm"
	"github.com/reviewloop/reviewloop/internal/server"
	"github.com/reviewloop/reviewloop/internal/storage"
	"github.com/reviewloop/reviewloop/internal/templates"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *server.Server
	dispatcher core.JobDispatcher
	closeDB    func()
}

// New sets up the application with all its dependencies. Construction is
// explicit so every component receives its collaborators directly instead of
// reaching for shared globals.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing reviewloop",
		"server_port", cfg.Server.Port,
		"llm_model", cfg.LLM.Model,
		"max_workers", cfg.MaxWorkers)

	dbConn, closeDB, err := db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := storage.NewStore(dbConn.DB)

	requestCache := cache.New[any](cfg.Cache.DefaultTTL, cfg.Cache.MaxSize)
	sourceClient := github.NewClient(ctx, cfg.GitHub.Token, logger)
	cachedClient := github.NewCachedClient(sourceClient, requestCache, cfg.GitHub.Token, logger)

	analyzer := llm.NewAnalyzer(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger)

	registry := templates.NewRegistry()
	if cfg.TemplateFile != "" {
		if _, err := registry.LoadFile(cfg.TemplateFile); err != nil {
			closeDB()
			return nil, fmt.Errorf("failed to load review template %s: %w", cfg.TemplateFile, err)
		}
	}

	reviewJob := jobs.NewReviewJob(cachedClient, analyzer, store, registry, logger)
	dispatcher := jobs.NewDispatcher(reviewJob, cfg.MaxWorkers, logger)

	router := server.NewRouter(cachedClient, dispatcher, store, logger)
	httpServer := server.New(cfg.Server.Port, router, logger)

	logger.Info("reviewloop initialized successfully")
	return &App{
		cfg:        cfg,
		logger:     logger,
		server:     httpServer,
		dispatcher: dispatcher,
		closeDB:    closeDB,
	}, nil
}

// Start runs the HTTP server. It blocks until the server stops.
func (a *App) Start() error {
	a.logger.Info("starting reviewloop", "server_port", a.cfg.Server.Port)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly. The server stops first so no new
// requests arrive, then the dispatcher drains its in-flight jobs.
func (a *App) Stop() error {
	a.logger.Info("shutting down reviewloop services")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	a.logger.Info("closing database connection")
	a.closeDB()

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("reviewloop stopped successfully")
	return nil
}
