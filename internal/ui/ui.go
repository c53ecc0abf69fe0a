// Package ui is the full-screen tview chat surface, kept behind --tui.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/hexpanda/qwenvoice/internal/engine"
	"github.com/hexpanda/qwenvoice/internal/logger"
	"github.com/hexpanda/qwenvoice/internal/ollama"
	"github.com/hexpanda/qwenvoice/internal/speech"
)

// voiceWindow bounds a single /voice phrase capture.
const voiceWindow = 30 * time.Second

var errNoSpeech = errors.New("no speech detected")

var (
	app           *tview.Application
	debugConsole  *tview.TextView
	textView      *tview.TextView
	textArea      *tview.TextArea
	localLogger   *logger.Logger
	voiceListener *speech.Listener
	sileroModel   string
)

func Init() {
	app = tview.NewApplication()
	app.EnablePaste(true)
	app.EnableMouse(true)

	debugConsole = initDebugConsole()
	textView = initChatViewer()
	textArea = initChatInput()
}

func initChatViewer() *tview.TextView {
	view := tview.NewTextView().
		SetChangedFunc(func() {
			app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	view.SetTitle("Conversation").SetBorder(true)
	view.SetScrollable(true)
	view.ScrollToEnd()
	return view
}

func initChatInput() *tview.TextArea {
	area := tview.NewTextArea()
	area.SetTitle("Question").SetBorder(true)
	return area
}

func initDebugConsole() *tview.TextView {
	console := tview.NewTextView().
		SetChangedFunc(func() {
			app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

func GetDebugConsole() (*tview.TextView, error) {
	if debugConsole == nil {
		return nil, errors.New("debug console not initialized")
	}
	return debugConsole, nil
}

// Run blocks until the user quits the application.
func Run(ctx context.Context, eng *engine.Engine, dev bool, sileroModelPath string) error {
	localLogger = logger.NewLogger("ui")
	sileroModel = sileroModelPath

	textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEnter {
			app.SetFocus(textArea)
		}
		return event
	})

	subFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, false).
		AddItem(textArea, 8, 2, true)
	mainFlex := tview.NewFlex().
		AddItem(subFlex, 0, 2, false)

	debugVisible := dev
	if dev {
		mainFlex.AddItem(debugConsole, 0, 1, true)
	}

	textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyESC:
			if textView.GetText(false) != "" {
				app.SetFocus(textView)
			}
		case tcell.KeyEnter:
			content := strings.TrimSpace(textArea.GetText())
			if content == "" {
				return nil
			}
			textArea.SetText("", true)
			textArea.SetDisabled(true)

			switch content {
			case "/help":
				listHelp(content)
				textArea.SetDisabled(false)
				return event
			case "/bye", "/exit", "/quit":
				quitApp()
				return event
			case "/clear", "/reset":
				eng.Reset()
				fmt.Fprintf(textView, "\nConversation cleared. Starting fresh.\n")
				textArea.SetDisabled(false)
				return event
			case "/debug":
				debugVisible = toggleDebugConsole(mainFlex, debugVisible)
				textArea.SetDisabled(false)
				return event
			case "/voice":
				go func() {
					voiceChat(ctx, eng)
					textArea.SetDisabled(false)
				}()
				return event
			case "/models":
				go func() {
					listModels()
					textArea.SetDisabled(false)
				}()
				return event
			}

			go func() {
				chat(ctx, eng, content)
				textArea.SetDisabled(false)
			}()
		}
		return event
	})

	return app.SetRoot(mainFlex, true).SetFocus(textArea).Run()
}

// chat runs one blocking turn and renders both sides of it.
func chat(ctx context.Context, eng *engine.Engine, content string) {
	app.QueueUpdateDraw(func() {
		fmt.Fprintln(textView, "\n\n[red::]You:[-]")
		fmt.Fprintf(textView, "%s\n\n", content)
	})

	reply, err := eng.Ask(ctx, content)
	if err != nil {
		localLogger.Error("turn failed: ", err)
		reply = engine.NoResponseMessage
	}

	app.QueueUpdateDraw(func() {
		fmt.Fprintf(textView, "[green::]Qwen:[-]\n%s\n", reply)
	})
}

// voiceChat captures one spoken phrase and runs it through the engine like a
// typed question. The listener is opened on first use and kept for the rest
// of the session.
func voiceChat(ctx context.Context, eng *engine.Engine) {
	if voiceListener == nil {
		l, err := speech.NewListener(sileroModel)
		if err != nil {
			localLogger.Error("voice input: ", err)
			app.QueueUpdateDraw(func() {
				fmt.Fprintf(textView, "\nVoice input unavailable: %s\n", err)
			})
			return
		}
		voiceListener = l
	}

	app.QueueUpdateDraw(func() {
		fmt.Fprintf(textView, "\nListening...\n")
	})

	phrase, err := capturePhrase(ctx, voiceListener)
	if err != nil {
		localLogger.Error("voice capture: ", err)
		app.QueueUpdateDraw(func() {
			fmt.Fprintf(textView, "\nDid not catch that.\n")
		})
		return
	}
	chat(ctx, eng, phrase)
}

type phraseListener interface {
	Listen(ctx context.Context, maxPhrase time.Duration) (string, error)
}

func capturePhrase(ctx context.Context, l phraseListener) (string, error) {
	phrase, err := l.Listen(ctx, voiceWindow)
	if err != nil {
		return "", err
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "", errNoSpeech
	}
	return phrase, nil
}

func listModels() {
	client := ollama.NewClient("")
	models, err := client.Models()
	if err != nil {
		localLogger.Error("listing models: ", err)
		app.QueueUpdateDraw(func() {
			fmt.Fprintf(textView, "\nCould not list models: %s\n", err)
		})
		return
	}

	app.QueueUpdateDraw(func() {
		fmt.Fprintf(textView, "\nLocal models:\n")
		for _, model := range models {
			fmt.Fprintf(textView, "- %s\n", model.Name)
		}
	})
}

// toggleDebugConsole runs on the event loop goroutine, so it mutates the
// layout directly.
func toggleDebugConsole(mainFlex *tview.Flex, visible bool) bool {
	if visible {
		mainFlex.RemoveItem(debugConsole)
		fmt.Fprintf(textView, "\nDebug console disabled\n")
	} else {
		mainFlex.AddItem(debugConsole, 0, 1, true)
		fmt.Fprintf(textView, "\nDebug console enabled\n")
	}
	return !visible
}

func quitApp() {
	fmt.Fprintf(textView, "Bye bye\n")
	if voiceListener != nil {
		voiceListener.Close()
	}
	localLogger.Close()
	app.Stop()
}

func listHelp(content string) {
	fmt.Fprintln(textView, "[red::]You:[-]")
	fmt.Fprintf(textView, "%s\n\n", content)

	fmt.Fprintf(textView, "[green::]Qwen:[-]\n")
	fmt.Fprintf(textView, "Here are some commands you can use:\n")
	fmt.Fprintf(textView, "- /help: Display this help message\n")
	fmt.Fprintf(textView, "- /bye: Exit the application\n")
	fmt.Fprintf(textView, "- /clear: Forget the conversation\n")
	fmt.Fprintf(textView, "- /debug: Toggle the debug console\n")
	fmt.Fprintf(textView, "- /voice: Ask the next question by speaking\n")
	fmt.Fprintf(textView, "- /models: List local models\n\n")
}
