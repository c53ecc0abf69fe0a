package llama

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexpanda/qwenvoice/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	bin := filepath.Join(dir, "llama-cli")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho ok\n"), 0755))
	model := filepath.Join(dir, "model.gguf")
	require.NoError(t, os.WriteFile(model, []byte("gguf"), 0644))

	return &config.Config{
		LlamaCLI:  bin,
		ModelPath: model,
		Timeout:   5 * time.Second,
		Sampling: config.Sampling{
			ContextSize:   512,
			GPULayers:     33,
			Temperature:   1.0,
			TopK:          50,
			TopP:          0.92,
			RepeatPenalty: 1.15,
			MaxTokens:     128,
		},
	}
}

func TestCheckInstall(t *testing.T) {
	cfg := testConfig(t)
	r := NewRunner(cfg)
	assert.NoError(t, r.CheckInstall())
}

func TestCheckInstallMissingBinary(t *testing.T) {
	cfg := testConfig(t)
	cfg.LlamaCLI = filepath.Join(t.TempDir(), "nope")
	r := NewRunner(cfg)

	err := r.CheckInstall()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llama-cli not found")
}

func TestCheckInstallMissingModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelPath = filepath.Join(t.TempDir(), "nope.gguf")
	r := NewRunner(cfg)

	err := r.CheckInstall()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerateForwardsFlagsAndPrompt(t *testing.T) {
	cfg := testConfig(t)
	// Echo all arguments so the flag forwarding can be inspected.
	require.NoError(t, os.WriteFile(cfg.LlamaCLI, []byte("#!/bin/sh\necho \"$@\"\n"), 0755))

	r := NewRunner(cfg)
	out, err := r.Generate(context.Background(), "PROMPT_BLOB")

	require.NoError(t, err)
	assert.Contains(t, out, "-c 512")
	assert.Contains(t, out, "-ngl 33")
	assert.Contains(t, out, "--temp 1")
	assert.Contains(t, out, "--top-k 50")
	assert.Contains(t, out, "--top-p 0.92")
	assert.Contains(t, out, "--repeat-penalty 1.15")
	assert.Contains(t, out, "-n 128")
	assert.Contains(t, out, "--no-display-prompt")
	assert.Contains(t, out, "--simple-io")
	assert.Contains(t, out, "PROMPT_BLOB")
}

func TestGenerateCapturesStderr(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.LlamaCLI, []byte("#!/bin/sh\necho to stdout\necho to stderr >&2\n"), 0755))

	r := NewRunner(cfg)
	out, err := r.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Contains(t, out, "to stdout")
	assert.Contains(t, out, "to stderr")
}

func TestGenerateTimeoutReturnsPartialOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = 200 * time.Millisecond
	require.NoError(t, os.WriteFile(cfg.LlamaCLI, []byte("#!/bin/sh\necho partial\nsleep 1\n"), 0755))

	r := NewRunner(cfg)
	out, err := r.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Contains(t, out, "partial")
}

func TestGenerateMissingBinary(t *testing.T) {
	cfg := testConfig(t)
	cfg.LlamaCLI = filepath.Join(t.TempDir(), "nope")

	r := NewRunner(cfg)
	_, err := r.Generate(context.Background(), "p")
	assert.Error(t, err)
}
