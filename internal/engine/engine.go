// Package engine drives one conversation session: it appends turns, invokes
// an inference backend and folds successful replies back into the history.
package engine

import (
	"context"
	"fmt"

	"github.com/hexpanda/qwenvoice/internal/config"
	"github.com/hexpanda/qwenvoice/internal/convo"
	"github.com/hexpanda/qwenvoice/internal/extract"
	"github.com/hexpanda/qwenvoice/internal/llama"
	"github.com/hexpanda/qwenvoice/internal/logger"
	"github.com/hexpanda/qwenvoice/internal/ollama"
	"github.com/hexpanda/qwenvoice/internal/prompt"
)

// NoResponseMessage is surfaced when a turn produced nothing usable.
const NoResponseMessage = "I didn't generate a response. Let me try again."

// Backend produces an assistant reply for a history plus a new user message.
type Backend interface {
	// Check verifies whatever the backend needs before the first turn.
	Check() error
	// Generate returns the cleaned assistant reply.
	Generate(ctx context.Context, history []convo.Turn, userMsg string) (string, error)
}

// Engine owns the session state. Each Ask is one blocking inference; there
// is no concurrent request handling.
type Engine struct {
	backend Backend
	history *convo.History
	window  int
	log     *logger.Logger
}

func New(cfg *config.Config) (*Engine, error) {
	var backend Backend
	switch cfg.Backend {
	case "", "llama":
		backend = NewLlamaBackend(cfg)
	case "ollama":
		backend = NewOllamaBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return NewWithBackend(backend), nil
}

func NewWithBackend(backend Backend) *Engine {
	return &Engine{
		backend: backend,
		history: convo.NewHistory(),
		window:  prompt.DefaultWindow,
		log:     logger.NewLogger("engine"),
	}
}

// Check runs the backend's startup verification.
func (e *Engine) Check() error {
	return e.backend.Check()
}

// Ask runs one turn. The user turn is appended first; the assistant turn is
// appended only when extraction succeeded, so a failed turn leaves no reply
// in the history. There is no retry.
func (e *Engine) Ask(ctx context.Context, text string) (string, error) {
	history := e.history.Window(e.window)
	e.history.Append(convo.RoleUser, text)

	reply, err := e.backend.Generate(ctx, history, text)
	if err != nil {
		e.log.Error("generation failed: ", err)
		return "", err
	}

	e.history.Append(convo.RoleAssistant, reply)
	return reply, nil
}

// Reset wipes the conversation history in full.
func (e *Engine) Reset() {
	e.history.Reset()
}

// History exposes the session turns, mostly for the UI.
func (e *Engine) History() *convo.History {
	return e.history
}

// LlamaBackend serialises the conversation into a single prompt blob, runs
// llama-cli and scrapes the reply out of the console output.
type LlamaBackend struct {
	runner  *llama.Runner
	builder *prompt.Builder
	filter  *extract.Filter
}

func NewLlamaBackend(cfg *config.Config) *LlamaBackend {
	return &LlamaBackend{
		runner:  llama.NewRunner(cfg),
		builder: prompt.NewBuilder(),
		filter:  extract.NewFilter(),
	}
}

func (b *LlamaBackend) Check() error {
	return b.runner.CheckInstall()
}

func (b *LlamaBackend) Generate(ctx context.Context, history []convo.Turn, userMsg string) (string, error) {
	promptText := b.builder.Build(history, userMsg)
	raw, err := b.runner.Generate(ctx, promptText)
	if err != nil {
		return "", err
	}
	return b.filter.Clean(raw)
}

// OllamaBackend talks to a local Ollama server's structured chat API
// instead of scraping console output.
type OllamaBackend struct {
	client *ollama.Client
	model  string
	system string
}

func NewOllamaBackend(cfg *config.Config) *OllamaBackend {
	return &OllamaBackend{
		client: ollama.NewClient(""),
		model:  cfg.Model,
		system: prompt.DefaultSystem,
	}
}

func (b *OllamaBackend) Check() error {
	if !b.client.Available() {
		return fmt.Errorf("ollama server not reachable on %s", ollama.DefaultHost)
	}
	return nil
}

func (b *OllamaBackend) Generate(ctx context.Context, history []convo.Turn, userMsg string) (string, error) {
	messages := make([]ollama.Message, 0, len(history)+2)
	messages = append(messages, ollama.Message{Role: string(convo.RoleSystem), Content: b.system})
	for _, turn := range history {
		messages = append(messages, ollama.Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, ollama.Message{Role: string(convo.RoleUser), Content: userMsg})

	reply, err := b.client.Chat(ctx, b.model, messages)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", extract.ErrNoResponse
	}
	return reply, nil
}
