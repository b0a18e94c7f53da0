// Package templates manages review templates: the built-in default plus any
// user-supplied YAML templates loaded at startup.
package templates

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/reviewloop/reviewloop/internal/core"
)

// DefaultName is the name of the built-in template used when a request does
// not pick one.
const DefaultName = "standard"

// Default returns the built-in review template.
func Default() core.ReviewTemplate {
	return core.ReviewTemplate{
		Name:        DefaultName,
		Description: "Balanced review covering correctness, security and maintainability",
		Prompts: core.TemplatePrompts{
			CodeQuality:     "Look for bugs, unclear naming, and non-idiomatic constructs.",
			Security:        "Look for injection risks, unsafe input handling, and leaked secrets.",
			Performance:     "Look for unnecessary allocations, quadratic loops, and blocking calls.",
			Maintainability: "Look for duplication, dead code, and overly complex functions.",
			Testing:         "Check whether behavior changes are covered by tests.",
		},
		Rules: core.TemplateRules{
			MaxComplexity:  10,
			RequireTests:   true,
			SecurityChecks: []string{"sql injection", "xss", "hardcoded credentials"},
		},
		Criteria: []string{
			"Only comment on lines changed in the diff",
			"Prefer concrete fixes over style opinions",
		},
	}
}

// Registry holds the named templates available to review requests.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]core.ReviewTemplate
}

// NewRegistry creates a registry seeded with the built-in default template.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]core.ReviewTemplate)}
	r.templates[DefaultName] = Default()
	return r
}

// LoadFile parses a YAML template file and registers it. Missing fields fall
// back to the built-in default, so a file only has to override what it cares
// about.
func (r *Registry) LoadFile(path string) (core.ReviewTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ReviewTemplate{}, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	tmpl := Default()
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return core.ReviewTemplate{}, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	if err := Validate(tmpl); err != nil {
		return core.ReviewTemplate{}, fmt.Errorf("invalid template in %s: %w", path, err)
	}

	r.mu.Lock()
	r.templates[tmpl.Name] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

// SaveFile writes a template to a YAML file, validating it first.
func SaveFile(path string, tmpl core.ReviewTemplate) error {
	if err := Validate(tmpl); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	data, err := yaml.Marshal(tmpl)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template file %s: %w", path, err)
	}
	return nil
}

// Get returns the template registered under name. An empty name resolves to
// the default template.
func (r *Registry) Get(name string) (core.ReviewTemplate, error) {
	if name == "" {
		name = DefaultName
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	if !ok {
		return core.ReviewTemplate{}, fmt.Errorf("no review template named %q", name)
	}
	return tmpl, nil
}

// Names lists the registered template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the structural requirements of a template.
func Validate(t core.ReviewTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name must not be empty")
	}
	if t.Rules.MaxComplexity < 0 {
		return fmt.Errorf("max_complexity must not be negative")
	}
	for i, c := range t.Criteria {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("criteria entry %d must not be empty", i)
		}
	}
	return nil
}
