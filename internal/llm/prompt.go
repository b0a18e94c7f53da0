package llm

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/reviewloop/reviewloop/internal/core"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFiles, "prompts/*.prompt"))

// systemPromptData is the type-safe payload for rendering the system prompt.
type systemPromptData struct {
	Template       core.ReviewTemplate
	SecurityChecks string
	RequireTests   string
}

// BuildSystemPrompt renders the system instruction for a review template: the
// required JSON output shape, the five per-concern prompt fields verbatim,
// the template rules, and every criteria entry as a bullet. Rendering is
// deterministic: identical templates produce byte-identical prompt text.
func BuildSystemPrompt(tmpl core.ReviewTemplate) (string, error) {
	data := systemPromptData{
		Template:       tmpl,
		SecurityChecks: strings.Join(tmpl.Rules.SecurityChecks, ", "),
		RequireTests:   fmt.Sprintf("%t", tmpl.Rules.RequireTests),
	}

	var b strings.Builder
	if err := promptTemplates.ExecuteTemplate(&b, "review_system.prompt", data); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return b.String(), nil
}

// BuildUserPrompt renders the user instruction carrying the raw diff fenced
// as a diff code block.
func BuildUserPrompt(diff string) (string, error) {
	var b strings.Builder
	if err := promptTemplates.ExecuteTemplate(&b, "review_user.prompt", struct{ Diff string }{Diff: diff}); err != nil {
		return "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return b.String(), nil
}
