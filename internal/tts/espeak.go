// Package tts speaks replies through espeak-ng. Playback is best effort; a
// failed utterance never affects the conversation.
package tts

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const speakTimeout = 120 * time.Second

var (
	markdownRE = regexp.MustCompile("[*_`#]")
	newlinesRE = regexp.MustCompile(`\n+`)
)

type Speaker struct {
	binPath string
}

// NewSpeaker locates espeak-ng on the PATH.
func NewSpeaker() (*Speaker, error) {
	path, err := exec.LookPath("espeak-ng")
	if err != nil {
		return nil, fmt.Errorf("espeak-ng not found: %w", err)
	}
	return &Speaker{binPath: path}, nil
}

// Speak plays the text synchronously. Audio goes straight to the device, so
// output is not captured.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = CleanForSpeech(text)
	if text == "" {
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, speakTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.binPath, "-v", "en", "-s", "150", "--punct", text)
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("espeak-ng timed out")
		}
		return fmt.Errorf("espeak-ng failed: %w", err)
	}
	return nil
}

// CleanForSpeech drops markdown markers and folds newlines into sentence
// breaks so the synthesiser doesn't read formatting aloud.
func CleanForSpeech(text string) string {
	text = markdownRE.ReplaceAllString(text, "")
	text = newlinesRE.ReplaceAllString(text, ". ")
	return strings.TrimSpace(text)
}
