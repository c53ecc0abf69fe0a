package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sampling carries the llama-cli sampling parameters. They are forwarded to
// the binary as flags and never interpreted here.
type Sampling struct {
	ContextSize   int     `mapstructure:"context_size"`
	GPULayers     int     `mapstructure:"gpu_layers"`
	Temperature   float64 `mapstructure:"temperature"`
	TopK          int     `mapstructure:"top_k"`
	TopP          float64 `mapstructure:"top_p"`
	RepeatPenalty float64 `mapstructure:"repeat_penalty"`
	MaxTokens     int     `mapstructure:"max_tokens"`
}

// DefaultWakeWords is the wake word plus the mishearings speech recognition
// tends to produce for it.
var DefaultWakeWords = []string{"hey qwen", "hey quinn", "hey when", "a qwen", "hey gwen"}

type Config struct {
	LlamaCLI  string   `mapstructure:"llama_cli"`
	ModelPath string   `mapstructure:"model_path"`
	Backend   string   `mapstructure:"backend"` // "llama" or "ollama"
	Model     string   `mapstructure:"model"`   // ollama model name
	Sampling  Sampling `mapstructure:"sampling"`

	Timeout time.Duration `mapstructure:"timeout"`

	Dev     bool   `mapstructure:"dev"`
	LogPath string `mapstructure:"log_path"`
	TUI     bool   `mapstructure:"tui"`
	Voice   bool   `mapstructure:"voice"`

	SileroModel string   `mapstructure:"silero_model"`
	WakeWords   []string `mapstructure:"wake_words"`
}

var (
	Dev     bool
	LogPath string

	cfgFile string
)

// Init registers the command line flags. Call before Load.
func Init() {
	pflag.StringVarP(&cfgFile, "config", "c", "", "Path to a config file")
	pflag.String("llama-cli", "", "Path to the llama-cli binary")
	pflag.String("model-path", "", "Path to the GGUF weights file")
	pflag.String("backend", "llama", "Inference backend: llama or ollama")
	pflag.StringP("model", "m", "qwen2.5:7b-instruct", "Model name (ollama backend)")
	pflag.BoolVar(&Dev, "dev", false, "Development mode")
	pflag.StringVar(&LogPath, "logPath", "", "Path to save the log file")
	pflag.Bool("tui", false, "Run the full-screen chat UI instead of the plain prompt")
	pflag.Bool("voice", false, "Run the voice assistant loop")
	pflag.Duration("timeout", 30*time.Second, "Inference timeout")
	pflag.Parse()
}

// Load resolves the configuration from defaults, an optional config file,
// QWENVOICE_* environment variables and the command line, in that order.
func Load() (*Config, error) {
	godotenv.Load()

	v := viper.New()

	home, _ := os.UserHomeDir()
	v.SetDefault("llama_cli", filepath.Join(home, "Llama", "llama.cpp", "build", "bin", "llama-cli"))
	v.SetDefault("model_path", filepath.Join(home, "models", "qwen2.5-7b-instruct-q4_k_m.gguf"))
	v.SetDefault("backend", "llama")
	v.SetDefault("model", "qwen2.5:7b-instruct")
	v.SetDefault("timeout", 30*time.Second)

	// Sampling defaults tuned for short spoken replies.
	v.SetDefault("sampling.context_size", 512)
	v.SetDefault("sampling.gpu_layers", 33)
	v.SetDefault("sampling.temperature", 1.0)
	v.SetDefault("sampling.top_k", 50)
	v.SetDefault("sampling.top_p", 0.92)
	v.SetDefault("sampling.repeat_penalty", 1.15)
	v.SetDefault("sampling.max_tokens", 128)

	v.SetDefault("silero_model", "silero_vad.onnx")
	v.SetDefault("wake_words", DefaultWakeWords)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("qwenvoice")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(filepath.Join(home, ".config", "qwenvoice"))
		}
	}

	v.SetEnvPrefix("QWENVOICE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	bindFlag(v, "llama_cli", "llama-cli")
	bindFlag(v, "model_path", "model-path")
	bindFlag(v, "backend", "backend")
	bindFlag(v, "model", "model")
	bindFlag(v, "timeout", "timeout")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Dev = Dev
	cfg.LogPath = LogPath
	cfg.TUI = boolFlag("tui")
	cfg.Voice = boolFlag("voice")

	return &cfg, nil
}

func bindFlag(v *viper.Viper, key, flag string) {
	if f := pflag.Lookup(flag); f != nil && f.Changed {
		v.Set(key, f.Value.String())
	}
}

func boolFlag(name string) bool {
	f := pflag.Lookup(name)
	if f == nil {
		return false
	}
	val, _ := pflag.CommandLine.GetBool(name)
	return val
}
