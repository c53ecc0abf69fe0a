package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hexpanda/qwenvoice/internal/assistant"
	"github.com/hexpanda/qwenvoice/internal/config"
	"github.com/hexpanda/qwenvoice/internal/engine"
	"github.com/hexpanda/qwenvoice/internal/logger"
	"github.com/hexpanda/qwenvoice/internal/repl"
	"github.com/hexpanda/qwenvoice/internal/speech"
	"github.com/hexpanda/qwenvoice/internal/tts"
	"github.com/hexpanda/qwenvoice/internal/ui"
)

func init() {
	config.Init()
}

func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %s\n", err)
		os.Exit(1)
	}

	logger.InitLogger(cfg.Dev, cfg.LogPath, os.Stderr)

	if cfg.TUI {
		ui.Init()
		debugConsole, err := ui.GetDebugConsole()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %s\n", err)
			os.Exit(1)
		}
		logger.SetConsole(debugConsole)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %s\n", err)
		os.Exit(1)
	}

	// Missing binary or weights must surface before any conversation starts.
	if err := eng.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.Voice:
		runVoice(ctx, cfg, eng)
	case cfg.TUI:
		if err := ui.Run(ctx, eng, cfg.Dev, cfg.SileroModel); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %s\n", err)
			os.Exit(1)
		}
	default:
		printBanner(cfg)
		if err := repl.New(eng, os.Stdin, os.Stdout).Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %s\n", err)
			os.Exit(1)
		}
	}
}

func runVoice(ctx context.Context, cfg *config.Config, eng *engine.Engine) {
	printBanner(cfg)

	listener, err := speech.NewListener(cfg.SileroModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] voice input unavailable: %s\n", err)
		os.Exit(1)
	}
	defer listener.Close()

	speaker, err := tts.NewSpeaker()
	if err != nil {
		// Keep going without playback; replies are still printed.
		fmt.Fprintf(os.Stderr, "[WARN] %s\n", err)
		speaker = nil
	}

	voice := assistant.New(eng, listener, speaker, cfg.WakeWords, os.Stdout)
	if err := voice.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %s\n", err)
		os.Exit(1)
	}
	fmt.Println("\nGoodbye!")
}

func printBanner(cfg *config.Config) {
	fmt.Println("==================================================")
	fmt.Println("  QwenVoice - Local Assistant")
	fmt.Println("==================================================")
	if cfg.Backend == "ollama" {
		fmt.Printf("Model: %s (ollama)\n", cfg.Model)
	} else {
		fmt.Printf("Model: %s\n", filepath.Base(cfg.ModelPath))
		fmt.Printf("Context: %d | GPU Layers: %d\n", cfg.Sampling.ContextSize, cfg.Sampling.GPULayers)
		fmt.Printf("Temp: %g | Top-K: %d | Top-P: %g\n", cfg.Sampling.Temperature, cfg.Sampling.TopK, cfg.Sampling.TopP)
	}
}
