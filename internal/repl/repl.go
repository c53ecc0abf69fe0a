// Package repl is the interactive line-based chat surface.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hexpanda/qwenvoice/internal/engine"
	"github.com/hexpanda/qwenvoice/internal/logger"
)

var (
	userPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Render("You> ")
	botLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("Qwen:")
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type REPL struct {
	engine *engine.Engine
	in     io.Reader
	out    io.Writer
	log    *logger.Logger
}

func New(eng *engine.Engine, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		engine: eng,
		in:     in,
		out:    out,
		log:    logger.NewLogger("repl"),
	}
}

// Run reads utterances line by line until the user exits or input hits EOF.
// exit/quit/q terminate, clear/reset wipe the history, blank lines are
// ignored and anything else goes to the model.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintf(r.out, "\n%s\n\n", dimStyle.Render("Type a message and press Enter. exit/quit/q to leave, clear/reset to forget the conversation."))

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "q":
			fmt.Fprintf(r.out, "%s\n", dimStyle.Render("Bye."))
			return nil
		case "clear", "reset":
			r.engine.Reset()
			fmt.Fprintf(r.out, "%s\n\n", dimStyle.Render("Conversation cleared. Starting fresh."))
			continue
		}

		reply, err := r.engine.Ask(ctx, input)
		if err != nil {
			r.log.Error("turn failed: ", err)
			fmt.Fprintf(r.out, "%s\n\n", errStyle.Render(engine.NoResponseMessage))
			continue
		}

		fmt.Fprintf(r.out, "\n%s %s\n\n", botLabel, reply)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Fprintln(r.out)
	return nil
}
