package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewloop/reviewloop/internal/core"
)

func testTemplate() core.ReviewTemplate {
	return core.ReviewTemplate{
		Name:        "strict",
		Description: "Strict review for production services",
		Prompts: core.TemplatePrompts{
			CodeQuality:     "Check for readable, idiomatic code.",
			Security:        "Check for injection and secret handling.",
			Performance:     "Check for allocations in hot paths.",
			Maintainability: "Check for dead code and duplication.",
			Testing:         "Check that behavior changes come with tests.",
		},
		Rules: core.TemplateRules{
			MaxComplexity:  10,
			RequireTests:   true,
			SecurityChecks: []string{"sql injection", "xss", "hardcoded secrets"},
		},
		Criteria: []string{"Correctness first", "No breaking API changes"},
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt, err := BuildSystemPrompt(testTemplate())
	require.NoError(t, err)

	// The output contract and every template field appear verbatim.
	assert.Contains(t, prompt, `"comments"`)
	assert.Contains(t, prompt, "Review template: strict")
	assert.Contains(t, prompt, "Strict review for production services")
	assert.Contains(t, prompt, "Code quality: Check for readable, idiomatic code.")
	assert.Contains(t, prompt, "Security: Check for injection and secret handling.")
	assert.Contains(t, prompt, "Performance: Check for allocations in hot paths.")
	assert.Contains(t, prompt, "Maintainability: Check for dead code and duplication.")
	assert.Contains(t, prompt, "Testing: Check that behavior changes come with tests.")
	assert.Contains(t, prompt, "Maximum cyclomatic complexity: 10")
	assert.Contains(t, prompt, "Tests required: true")
	assert.Contains(t, prompt, "Security checks: sql injection, xss, hardcoded secrets")
	assert.Contains(t, prompt, "- Correctness first")
	assert.Contains(t, prompt, "- No breaking API changes")
}

func TestBuildUserPrompt(t *testing.T) {
	diff := "--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-old\n+new"
	prompt, err := BuildUserPrompt(diff)
	require.NoError(t, err)

	assert.Contains(t, prompt, "```diff\n"+diff+"\n```")
}

// Prompt construction is deterministic: identical inputs must produce
// byte-identical prompt text so cached and repeated runs compare equal.
func TestPromptDeterminism(t *testing.T) {
	tmpl := testTemplate()
	diff := "+added line"

	sys1, err := BuildSystemPrompt(tmpl)
	require.NoError(t, err)
	sys2, err := BuildSystemPrompt(tmpl)
	require.NoError(t, err)
	assert.Equal(t, sys1, sys2)

	usr1, err := BuildUserPrompt(diff)
	require.NoError(t, err)
	usr2, err := BuildUserPrompt(diff)
	require.NoError(t, err)
	assert.Equal(t, usr1, usr2)
}
