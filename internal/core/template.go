package core

// TemplatePrompts holds the per-concern instruction text embedded into the
// system prompt, one field per review category.
type TemplatePrompts struct {
	CodeQuality     string `json:"codeQuality" yaml:"code_quality"`
	Security        string `json:"security" yaml:"security"`
	Performance     string `json:"performance" yaml:"performance"`
	Maintainability string `json:"maintainability" yaml:"maintainability"`
	Testing         string `json:"testing" yaml:"testing"`
}

// TemplateRules holds the hard limits a template asks the reviewer to enforce.
type TemplateRules struct {
	MaxComplexity  int      `json:"maxComplexity" yaml:"max_complexity"`
	RequireTests   bool     `json:"requireTests" yaml:"require_tests"`
	SecurityChecks []string `json:"securityChecks" yaml:"security_checks"`
}

// ReviewTemplate parameterizes how the LLM is instructed to review a diff.
// It is read-only input to prompt construction; the pipeline never mutates it.
type ReviewTemplate struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Prompts     TemplatePrompts `json:"prompts" yaml:"prompts"`
	Rules       TemplateRules   `json:"rules" yaml:"rules"`
	Criteria    []string        `json:"criteria" yaml:"criteria"`
}
