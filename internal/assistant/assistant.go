// Package assistant runs the hands-free loop: wait for the wake word, then
// hold a spoken conversation through the inference engine.
package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hexpanda/qwenvoice/internal/config"
	"github.com/hexpanda/qwenvoice/internal/engine"
	"github.com/hexpanda/qwenvoice/internal/logger"
	"github.com/hexpanda/qwenvoice/internal/speech"
	"github.com/hexpanda/qwenvoice/internal/tts"
)

const (
	// wakeWindow keeps wake word listening snappy; commandWindow allows a
	// full question.
	wakeWindow    = 3 * time.Second
	commandWindow = 30 * time.Second

	// maxSilence misses in a row drop back to wake word listening.
	maxSilence = 3
)

type Assistant struct {
	engine    *engine.Engine
	listener  *speech.Listener
	speaker   *tts.Speaker
	wakeWords []string
	out       io.Writer
	log       *logger.Logger
}

func New(eng *engine.Engine, listener *speech.Listener, speaker *tts.Speaker, wakeWords []string, out io.Writer) *Assistant {
	if len(wakeWords) == 0 {
		wakeWords = config.DefaultWakeWords
	}
	return &Assistant{
		engine:    eng,
		listener:  listener,
		speaker:   speaker,
		wakeWords: wakeWords,
		out:       out,
		log:       logger.NewLogger("assistant"),
	}
}

// Run loops forever between wake word listening and conversation mode until
// the context is cancelled or the user says goodbye.
func (a *Assistant) Run(ctx context.Context) error {
	fmt.Fprintf(a.out, "Say %q to start a conversation.\n", a.wakeWords[0])

	for {
		phrase, err := a.listener.Listen(ctx, wakeWindow)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.log.Error("wake word listening: ", err)
			continue
		}

		if _, ok := MatchWakeWord(a.wakeWords, phrase); !ok {
			continue
		}

		a.log.Info("wake word detected: ", phrase)
		a.say(ctx, "What?")

		done, err := a.converse(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// converse keeps listening for follow-up commands until the user leaves or
// stays silent for too long. Returns true when the user ended the session.
func (a *Assistant) converse(ctx context.Context) (bool, error) {
	fmt.Fprintln(a.out, "Entering conversation mode. Say 'goodbye' to exit.")

	silenceCount := 0
	for {
		command, err := a.listener.Listen(ctx, commandWindow)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			a.log.Error("listening for command: ", err)
			continue
		}

		if strings.TrimSpace(command) == "" {
			silenceCount++
			if silenceCount >= maxSilence {
				fmt.Fprintln(a.out, "No activity. Returning to wake word listening.")
				a.say(ctx, "Fine, ignoring you now.")
				return false, nil
			}
			continue
		}
		silenceCount = 0

		// The wake word inside a command means a fresh start.
		if rest, ok := MatchWakeWord(a.wakeWords, command); ok {
			if rest == "" {
				a.say(ctx, "Yes?")
				continue
			}
			command = rest
		}

		if quit := a.handle(ctx, command); quit {
			return true, nil
		}
	}
}

// handle dispatches one spoken command. Returns true on a session-ending
// command.
func (a *Assistant) handle(ctx context.Context, command string) bool {
	fmt.Fprintf(a.out, "You: %s\n", command)

	switch strings.ToLower(strings.TrimSpace(command)) {
	case "stop", "quit", "exit", "goodbye", "bye":
		a.say(ctx, "Goodbye!")
		return true
	case "clear", "reset", "forget", "new conversation":
		a.engine.Reset()
		a.say(ctx, "Conversation cleared. Starting fresh.")
		return false
	}

	reply, err := a.engine.Ask(ctx, command)
	if err != nil {
		a.log.Error("turn failed: ", err)
		reply = engine.NoResponseMessage
	}

	fmt.Fprintf(a.out, "Qwen: %s\n", reply)
	a.say(ctx, reply)
	return false
}

func (a *Assistant) say(ctx context.Context, text string) {
	if a.speaker == nil {
		return
	}
	if err := a.speaker.Speak(ctx, text); err != nil {
		a.log.Error("tts: ", err)
	}
}

// MatchWakeWord reports whether the phrase contains any of the wake words
// and returns the remainder of the phrase with the wake word removed.
func MatchWakeWord(wakeWords []string, phrase string) (string, bool) {
	lower := strings.ToLower(phrase)
	for _, w := range wakeWords {
		if strings.Contains(lower, w) {
			rest := strings.Join(strings.Fields(strings.Replace(lower, w, "", 1)), " ")
			return rest, true
		}
	}
	return "", false
}
