package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List the repositories visible to the configured token",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		client, _, _, err := newCachedClient(ctx)
		if err != nil {
			return err
		}

		repos, err := client.ListRepositories(ctx)
		if err != nil {
			return fmt.Errorf("failed to list repositories: %w", err)
		}

		titleColor.Printf("%d repositories:\n\n", len(repos))
		for _, r := range repos {
			boldColor.Printf("  %s", r.FullName)
			if r.Private {
				warnColor.Print("  (private)")
			}
			fmt.Println()
			if r.Description != "" {
				dimColor.Printf("    %s\n", r.Description)
			}
		}
		return nil
	},
}

var pullsCmd = &cobra.Command{
	Use:   "pulls [owner/repo]",
	Short: "List the open pull requests of a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		owner, repo, ok := strings.Cut(args[0], "/")
		if !ok {
			return fmt.Errorf("repository must be given as owner/repo, got %q", args[0])
		}

		client, _, _, err := newCachedClient(ctx)
		if err != nil {
			return err
		}

		pulls, err := client.ListPullRequests(ctx, owner, repo)
		if err != nil {
			return fmt.Errorf("failed to list pull requests: %w", err)
		}

		titleColor.Printf("%d open pull request(s) in %s:\n\n", len(pulls), args[0])
		for _, pr := range pulls {
			boldColor.Printf("  #%-5d", pr.Number)
			fmt.Printf(" %s", pr.Title)
			dimColor.Printf("  (by %s, updated %s)\n", pr.Author, pr.UpdatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(pullsCmd)
}
