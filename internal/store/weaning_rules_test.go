package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWeaningRules_UsesEmbeddedDefault(t *testing.T) {
	if !testing.Short() {
		t.Skip("unit test: run with -short")
	}

	t.Setenv(WeaningRulesPathEnvVar, "")

	rules, err := LoadWeaningRules()
	require.NoError(t, err)

	assert.Equal(t, "bezerro-macho", rules.Male.SourceSlug)
	assert.Equal(t, "bois-2a", rules.Male.TargetSlug)
	assert.Equal(t, "bezerro-femea", rules.Female.SourceSlug)
	assert.Equal(t, "novilha-2a", rules.Female.TargetSlug)
}

func TestLoadWeaningRules_UsesOverridePath(t *testing.T) {
	if !testing.Short() {
		t.Skip("unit test: run with -short")
	}

	overridePath := filepath.Join(t.TempDir(), "custom_weaning_rules.yaml")

	custom := "male:\n  source_slug: custom-male\n  target_slug: custom-male-target\n" +
		"female:\n  source_slug: custom-female\n  target_slug: custom-female-target\n"

	require.NoError(t, os.WriteFile(overridePath, []byte(custom), 0o600))
	t.Setenv(WeaningRulesPathEnvVar, overridePath)

	rules, err := LoadWeaningRules()
	require.NoError(t, err)

	assert.Equal(t, "custom-male", rules.Male.SourceSlug)
	assert.Equal(t, "custom-male-target", rules.Male.TargetSlug)
	assert.Equal(t, "custom-female", rules.Female.SourceSlug)
	assert.Equal(t, "custom-female-target", rules.Female.TargetSlug)
}

func TestLoadWeaningRules_MissingOverridePath(t *testing.T) {
	if !testing.Short() {
		t.Skip("unit test: run with -short")
	}

	t.Setenv(WeaningRulesPathEnvVar, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	_, err := LoadWeaningRules()
	require.Error(t, err)
}

func TestLoadWeaningRules_InvalidYAML(t *testing.T) {
	if !testing.Short() {
		t.Skip("unit test: run with -short")
	}

	overridePath := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(overridePath, []byte("male: [unbalanced"), 0o600))
	t.Setenv(WeaningRulesPathEnvVar, overridePath)

	_, err := LoadWeaningRules()
	require.Error(t, err)
}
