// Package prompt serialises a conversation into the ChatML template the
// Qwen2.5 instruct models were trained on.
package prompt

import (
	"strings"

	"github.com/hexpanda/qwenvoice/internal/convo"
)

const (
	// Chat template delimiters required by the model to distinguish roles
	// within a single prompt blob.
	StartTag = "<|im_start|>"
	EndTag   = "<|im_end|>"

	// DefaultSystem is the personality baked into every prompt. Replies are
	// kept conversational because they may be spoken aloud.
	DefaultSystem = "You are a helpful, sharp-tongued local assistant. Be direct and conversational. " +
		"Your answers may be read out loud, so keep them short and use no markdown or code blocks."

	// DefaultWindow bounds how many prior turns are replayed, so the prompt
	// stays inside a 512-token context.
	DefaultWindow = 20
)

// Builder assembles the full prompt blob for each call. The prompt is
// regenerated in full every time; there is no incremental state.
type Builder struct {
	System string
	Window int
}

func NewBuilder() *Builder {
	return &Builder{System: DefaultSystem, Window: DefaultWindow}
}

// Build wraps the system message, the history window and the new user
// message in chat template delimiters and terminates the blob with an open
// assistant tag to mark where generation begins. An empty history yields the
// minimal two-message prompt. No length validation happens here; the
// inference step truncates or errors on its own.
func (b *Builder) Build(history []convo.Turn, userMsg string) string {
	window := b.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var buf strings.Builder
	writeTurn(&buf, convo.RoleSystem, b.System)
	for _, turn := range history {
		writeTurn(&buf, turn.Role, turn.Content)
	}
	writeTurn(&buf, convo.RoleUser, userMsg)
	buf.WriteString(StartTag)
	buf.WriteString(string(convo.RoleAssistant))
	buf.WriteString("\n")
	return buf.String()
}

func writeTurn(buf *strings.Builder, role convo.Role, content string) {
	buf.WriteString(StartTag)
	buf.WriteString(string(role))
	buf.WriteString("\n")
	buf.WriteString(content)
	buf.WriteString(EndTag)
	buf.WriteString("\n")
}
