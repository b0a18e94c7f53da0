package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reviewloop/reviewloop/internal/cache"
	"github.com/reviewloop/reviewloop/internal/config"
	"github.com/reviewloop/reviewloop/internal/github"
	"github.com/reviewloop/reviewloop/internal/logger"
)

var (
	githubToken string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "reviewloop",
	Short: "reviewloop is the command-line interface for the Reviewloop review service.",
	Long:  `A CLI for running one-shot AI code reviews and inspecting the repositories, pull requests and request cache the service works with.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub Token")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads in ENV variables if set. The .env file and defaults are
// handled by config.Load.
func initConfig() {
	viper.AutomaticEnv()
}

// cliLogger keeps command output clean unless --verbose is set.
func cliLogger(cfg *config.Config) *slog.Logger {
	if verbose {
		return logger.New(cfg.Log, os.Stderr)
	}
	return logger.New(cfg.Log, io.Discard)
}

// newCachedClient builds the memoizing source client the commands share.
// Each CLI invocation starts with a cold cache; the memoization still pays
// off when one command touches the same endpoint more than once.
func newCachedClient(ctx context.Context) (*github.CachedClient, *config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := cliLogger(cfg)

	store := cache.New[any](cfg.Cache.DefaultTTL, cfg.Cache.MaxSize)
	client := github.NewCachedClient(github.NewClient(ctx, cfg.GitHub.Token, log), store, cfg.GitHub.Token, log)
	return client, cfg, log, nil
}
