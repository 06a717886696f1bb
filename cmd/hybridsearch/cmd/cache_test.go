package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCmd_HasClear(t *testing.T) {
	cmd := NewRootCmd()

	clearCmd, _, err := cmd.Find([]string{"cache", "clear"})

	require.NoError(t, err)
	assert.Equal(t, "clear", clearCmd.Name())
}

func TestCacheClear_Badger(t *testing.T) {
	// Given: a persistent cache holding one response
	dir := isolateEnv(t)
	t.Setenv("HYBRIDSEARCH_CACHE_BACKEND", "badger")
	corpusPath := writeCorpus(t, dir)

	_, _, err := runCLI(t, "search", "solar", "--corpus", corpusPath, "--type", "document", "--format", "json")
	require.NoError(t, err)

	// When: clearing the cache
	stdout, _, err := runCLI(t, "cache", "clear")

	// Then: the stored response is dropped
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared 1 cached responses (badger backend)")

	// And: a second clear finds nothing
	stdout, _, err = runCLI(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared 0 cached responses")
}

func TestCacheClear_Disabled(t *testing.T) {
	// Given: caching switched off
	isolateEnv(t)
	t.Setenv("HYBRIDSEARCH_CACHE_ENABLED", "false")

	// When: clearing the cache
	stdout, _, err := runCLI(t, "cache", "clear")

	// Then: the user is told nothing was done
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cache is disabled")
}

func TestCacheClear_Memory(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := runCLI(t, "cache", "clear")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared 0 cached responses (memory backend)")
}
