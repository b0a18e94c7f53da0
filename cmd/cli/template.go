package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reviewloop/reviewloop/internal/templates"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Work with review templates",
}

var templateInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write the built-in review template to a YAML file as a starting point",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", path)
		}

		if err := templates.SaveFile(path, templates.Default()); err != nil {
			return err
		}
		successColor.Printf("Wrote %s\n", path)
		dimColor.Println("Edit it and pass --template to the review command, or set REVIEW_TEMPLATE_FILE for the server.")
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	templateCmd.AddCommand(templateInitCmd)
	rootCmd.AddCommand(templateCmd)
}
