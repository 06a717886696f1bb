package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCorpus = `documents:
  - id: d1
    title: Carbon pricing
    source: policy-notes
    author: Ada Lane
    published: "2023-04-01"
    content: A carbon tax raises the price of fossil fuels and cuts emissions.
  - id: d2
    title: Solar panels
    source: energy-review
    content: Solar panel efficiency has improved steadily over the last decade.
  - id: d3
    title: Glaciers
    source: climate-journal
    content: Alpine glacier retreat accelerated as summers warmed.
  - id: d4
    title: Wind farms
    source: energy-review
    content: Offshore wind farms supply power to coastal cities.
`

// isolateEnv points every config and data path at a temp dir and clears the
// env vars that would reach live services.
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	t.Setenv("SERPER_API_KEY", "")
	t.Setenv("HYBRIDSEARCH_WEB_API_KEY", "")
	t.Setenv("HYBRIDSEARCH_RERANK_ENDPOINT", "")
	t.Setenv("HYBRIDSEARCH_CACHE_BACKEND", "memory")
	t.Setenv("HYBRIDSEARCH_CACHE_PATH", filepath.Join(tmpDir, "cache"))
	t.Setenv("HYBRIDSEARCH_WEB_ENABLED", "false")
	t.Setenv("HYBRIDSEARCH_LOG_LEVEL", "error")
	t.Setenv("HYBRIDSEARCH_QUERY_EXPANSION", "")
	return tmpDir
}

func writeCorpus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0o644))
	return path
}

// runCLI executes the root command and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
