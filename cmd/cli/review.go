package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reviewloop/reviewloop/internal/core"
	"github.com/reviewloop/reviewloop/internal/github"
	"github.com/reviewloop/reviewloop/internal/llm"
	"github.com/reviewloop/reviewloop/internal/templates"
)

var templateName string

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var reviewCmd = &cobra.Command{
	Use:   "review [owner/repo] [pr-number]",
	Short: "Run a one-shot AI code review for a pull request",
	Long: `Run a one-shot AI code review for a pull request and print the
generated comments to the terminal. Nothing is posted back to the pull
request and nothing is persisted.

Examples:
  reviewloop review acme/widgets 123
  reviewloop review --template strict.yaml acme/widgets 123`,
	Args: cobra.ExactArgs(2),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().StringVar(&templateName, "template", "", "Review template YAML file to load")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok {
		return fmt.Errorf("repository must be given as owner/repo, got %q", args[0])
	}
	number, err := strconv.Atoi(args[1])
	if err != nil || number <= 0 {
		return fmt.Errorf("invalid pull request number %q", args[1])
	}

	client, cfg, log, err := newCachedClient(ctx)
	if err != nil {
		return err
	}

	registry := templates.NewRegistry()
	var tmpl core.ReviewTemplate
	if templateName != "" {
		tmpl, err = registry.LoadFile(templateName)
		if err != nil {
			return fmt.Errorf("failed to load review template: %w", err)
		}
	} else if tmpl, err = registry.Get(""); err != nil {
		return err
	}

	analyzer := llm.NewAnalyzer(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, log)

	titleColor.Println("Reviewloop - PR Review")
	dimColor.Printf("   Target: %s/%s#%d\n\n", owner, repo, number)

	// Fetch the diff and the PR metadata in parallel.
	fmt.Println("Fetching pull request...")
	var (
		diff  string
		pulls []github.PullRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		diff, err = client.GetPullRequestDiff(gctx, owner, repo, number)
		return err
	})
	g.Go(func() error {
		var err error
		pulls, err = client.ListPullRequests(gctx, owner, repo)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to fetch pull request: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		return fmt.Errorf("pull request %s/%s#%d has an empty diff", owner, repo, number)
	}
	for _, pr := range pulls {
		if pr.Number == number {
			boldColor.Printf("   %s", pr.Title)
			dimColor.Printf("  (by %s)\n", pr.Author)
			break
		}
	}

	fmt.Printf("Analyzing with %s...\n", analyzer.Model())
	comments, err := analyzer.AnalyzeCode(ctx, diff, tmpl)
	if err != nil {
		if llmErr, ok := core.AsLLMError(err); ok {
			return fmt.Errorf("analysis failed (%s): %s", llmErr.Reason, llmErr.Message)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	printComments(comments)
	dimColor.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func printComments(comments []core.ReviewComment) {
	if len(comments) == 0 {
		successColor.Println("\nNo issues found.")
		return
	}

	titleColor.Printf("\n%d comment(s):\n\n", len(comments))
	for _, c := range comments {
		severityColor(c.Severity).Printf("[%s]", c.Severity)
		dimColor.Printf(" %s ", c.Category)
		boldColor.Printf("%s:%d\n", c.File, c.Line)
		fmt.Printf("   %s\n\n", c.Content)
	}
}

func severityColor(s core.Severity) *color.Color {
	switch s {
	case core.SeverityError:
		return errorColor
	case core.SeverityWarning:
		return warnColor
	default:
		return successColor
	}
}
