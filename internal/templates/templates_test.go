package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultAlwaysAvailable(t *testing.T) {
	r := NewRegistry()

	tmpl, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, tmpl.Name)

	tmpl, err = r.Get(DefaultName)
	require.NoError(t, err)
	assert.True(t, tmpl.Rules.RequireTests)

	_, err = r.Get("nope")
	assert.Error(t, err)
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strict.yml")
	content := `
name: strict
description: Stricter review
rules:
  max_complexity: 5
  require_tests: true
  security_checks:
    - sql injection
criteria:
  - Block on any security finding
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewRegistry()
	tmpl, err := r.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "strict", tmpl.Name)
	assert.Equal(t, 5, tmpl.Rules.MaxComplexity)
	assert.Equal(t, []string{"sql injection"}, tmpl.Rules.SecurityChecks)
	// Fields the file left out keep the built-in defaults.
	assert.NotEmpty(t, tmpl.Prompts.Security)

	loaded, err := r.Get("strict")
	require.NoError(t, err)
	assert.Equal(t, tmpl, loaded)
	assert.Equal(t, []string{DefaultName, "strict"}, r.Names())
}

func TestRegistry_LoadFileErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [not a string"), 0o644))
	_, err = r.LoadFile(bad)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty-name.yml")
	require.NoError(t, os.WriteFile(empty, []byte(`name: "  "`), 0o644))
	_, err = r.LoadFile(empty)
	assert.ErrorContains(t, err, "name")
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standard.yml")
	require.NoError(t, SaveFile(path, Default()))

	r := NewRegistry()
	loaded, err := r.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)

	tmpl := Default()
	tmpl.Name = ""
	assert.Error(t, SaveFile(filepath.Join(t.TempDir(), "bad.yml"), tmpl))
}

func TestValidate(t *testing.T) {
	tmpl := Default()
	assert.NoError(t, Validate(tmpl))

	tmpl.Criteria = append(tmpl.Criteria, "   ")
	assert.Error(t, Validate(tmpl))
}
