package output

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("→", "Loading corpus...")

	// Then: output contains icon and message
	assert.Equal(t, "→ Loading corpus...\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "detail")
	assert.Equal(t, "   detail\n", buf.String())
}

func TestWriter_Levels_PlainWhenNotTerminal(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"success", func(w *Writer) { w.Success("Index complete") }, "✓ Index complete\n"},
		{"successf", func(w *Writer) { w.Successf("Indexed %d documents", 3) }, "✓ Indexed 3 documents\n"},
		{"warning", func(w *Writer) { w.Warning("Reranker offline") }, "! Reranker offline\n"},
		{"warningf", func(w *Writer) { w.Warningf("%s offline", "web") }, "! web offline\n"},
		{"error", func(w *Writer) { w.Error("Corpus invalid") }, "✗ Corpus invalid\n"},
		{"statusf", func(w *Writer) { w.Statusf("→", "Found %d files in %s", 42, "/data") }, "→ Found 42 files in /data\n"},
		{"newline", func(w *Writer) { w.Newline() }, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a buffer, which is never a terminal
			buf := &bytes.Buffer{}

			// When: writing
			tt.write(New(buf))

			// Then: no escape sequences are emitted
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestJSON_Indents(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, JSON(buf, map[string]int{"k": 1}))
	assert.Equal(t, "{\n  \"k\": 1\n}\n", buf.String())
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTTY(f), "regular files are not terminals")
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
	assert.False(t, UseColor(&bytes.Buffer{}))
}

func TestGetStyles(t *testing.T) {
	plain := GetStyles(true)
	assert.Equal(t, "x", plain.Header.Render("x"))

	colored := GetStyles(false)
	assert.True(t, colored.Header.GetBold())
}
