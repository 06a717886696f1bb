package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Enabled(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{"none", Options{}, false},
		{"cpu", Options{CPUPath: "cpu.prof"}, true},
		{"heap", Options{HeapPath: "heap.prof"}, true},
		{"trace", Options{TracePath: "trace.out"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Enabled())
		})
	}
}

func TestProfiler_WritesAllProfiles(t *testing.T) {
	// Given: every profile requested
	dir := t.TempDir()
	opts := Options{
		CPUPath:   filepath.Join(dir, "cpu.prof"),
		HeapPath:  filepath.Join(dir, "heap.prof"),
		TracePath: filepath.Join(dir, "trace.out"),
	}

	// When: profiling some work
	p, err := Start(opts)
	require.NoError(t, err)

	sum := 0
	for i := 0; i < 1000000; i++ {
		sum += i
	}
	_ = sum

	require.NoError(t, p.Stop())

	// Then: each file exists and is non-empty
	for _, path := range []string{opts.CPUPath, opts.HeapPath, opts.TracePath} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}

	// And: a second Stop is a no-op
	assert.NoError(t, p.Stop())
}

func TestStart_BadPath(t *testing.T) {
	_, err := Start(Options{CPUPath: filepath.Join(t.TempDir(), "missing", "cpu.prof")})

	require.Error(t, err)
}

func TestProfiler_HeapOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.prof")

	p, err := Start(Options{HeapPath: path})
	require.NoError(t, err)

	// The heap profile is written at Stop.
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, p.Stop())
	assert.FileExists(t, path)
}
