package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Warm the request cache and print its statistics",
	Long: `Fetches the authenticated user and the repository list, then prints
the request cache statistics. Useful for checking token access and cache
configuration in one go.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		client, cfg, _, err := newCachedClient(ctx)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			user, err := client.GetAuthenticatedUser(gctx)
			if err != nil {
				return fmt.Errorf("failed to fetch authenticated user: %w", err)
			}
			successColor.Printf("Authenticated as %s\n", user.Login)
			return nil
		})
		g.Go(func() error {
			if _, err := client.ListRepositories(gctx); err != nil {
				return fmt.Errorf("failed to list repositories: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		stats := client.CacheStats()
		titleColor.Println("\nRequest cache:")
		fmt.Printf("  entries:     %d (%d valid, %d expired)\n",
			stats.TotalEntries, stats.ValidEntries, stats.ExpiredEntries)
		fmt.Printf("  max size:    %d\n", stats.MaxSize)
		fmt.Printf("  default TTL: %s\n", stats.DefaultTTL)
		dimColor.Printf("  configured:  CACHE_DEFAULT_TTL=%s CACHE_MAX_SIZE=%d\n",
			cfg.Cache.DefaultTTL, cfg.Cache.MaxSize)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(statsCmd)
}
