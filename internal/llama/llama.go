// Package llama shells out to a local llama.cpp llama-cli binary for
// inference. Each generation is one blocking subprocess invocation; the
// binary's combined console output is handed back raw for extraction.
package llama

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/hexpanda/qwenvoice/internal/config"
	"github.com/hexpanda/qwenvoice/internal/logger"
	"github.com/hexpanda/qwenvoice/internal/prompt"
)

const defaultTimeout = 30 * time.Second

// Runner invokes llama-cli with fixed sampling flags and a serialised
// prompt. Sampling parameters are forwarded opaquely, never interpreted.
type Runner struct {
	BinPath   string
	ModelPath string
	Sampling  config.Sampling
	Timeout   time.Duration

	log *logger.Logger
}

func NewRunner(cfg *config.Config) *Runner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{
		BinPath:   cfg.LlamaCLI,
		ModelPath: cfg.ModelPath,
		Sampling:  cfg.Sampling,
		Timeout:   timeout,
		log:       logger.NewLogger("llama"),
	}
}

// CheckInstall verifies the inference binary and the weights file exist.
// The weights format and loading are entirely the binary's responsibility.
func (r *Runner) CheckInstall() error {
	if _, err := os.Stat(r.BinPath); err != nil {
		return fmt.Errorf("llama-cli not found at %s", r.BinPath)
	}
	if _, err := os.Stat(r.ModelPath); err != nil {
		return fmt.Errorf("model not found at %s", r.ModelPath)
	}
	return nil
}

// Generate runs one blocking inference for the given prompt blob and returns
// the combined stdout/stderr text. On timeout whatever output was produced
// before the kill is still returned, so a partial reply can be salvaged.
func (r *Runner) Generate(ctx context.Context, promptText string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	args := []string{
		"-m", r.ModelPath,
		"-c", strconv.Itoa(r.Sampling.ContextSize),
		"-ngl", strconv.Itoa(r.Sampling.GPULayers),
		"--temp", formatFloat(r.Sampling.Temperature),
		"--top-p", formatFloat(r.Sampling.TopP),
		"--top-k", strconv.Itoa(r.Sampling.TopK),
		"--repeat-penalty", formatFloat(r.Sampling.RepeatPenalty),
		"-n", strconv.Itoa(r.Sampling.MaxTokens),
		"--no-display-prompt",
		"--log-disable",
		"--simple-io",
		"-e",
		"-r", prompt.EndTag,
		"-p", promptText,
	}

	cmd := exec.CommandContext(runCtx, r.BinPath, args...)
	// Close stdin so the binary cannot drop into interactive mode.
	cmd.Stdin = nil

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	runErr := cmd.Run()
	r.log.Info("inference took ", time.Since(start))

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			r.log.Warn("inference timed out after ", r.Timeout)
			return out.String(), nil
		}
		if out.Len() > 0 {
			// Killed or exited nonzero but produced output; let the
			// extractor decide whether anything usable is in there.
			r.log.Warn("llama-cli exited with error: ", runErr)
			return out.String(), nil
		}
		return "", fmt.Errorf("running llama-cli: %w", runErr)
	}

	return out.String(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
