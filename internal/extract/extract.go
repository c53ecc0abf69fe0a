// Package extract recovers the assistant's reply from the raw console
// output of the inference binary.
//
// The binary writes logging, banners and the generated text interleaved on
// stdout/stderr with no structured protocol, so this is a best-effort
// adapter around an undocumented, version-specific console convention, not
// a parser with format guarantees.
package extract

import (
	"errors"
	"regexp"
	"strings"

	"github.com/hexpanda/qwenvoice/internal/prompt"
)

// ErrNoResponse is returned when nothing survives the filtering chain. It is
// not distinguishable from the model legitimately producing no text.
var ErrNoResponse = errors.New("no response extracted")

// continuationPrefix marks generated lines in the pinned llama-cli build's
// simple-io console output. Version specific, disposable glue.
const continuationPrefix = "> "

var (
	ansiRE    = regexp.MustCompile(`\x1b(\[[0-9;?]*[a-zA-Z]|\][^\a\x1b]*(\a|\x1b\\))`)
	controlRE = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
	spacesRE  = regexp.MustCompile(`[ \t]+`)
	blanksRE  = regexp.MustCompile(`\n{3,}`)
)

// sentinelTokens are end-of-turn markers various instruct models emit; any
// trailing occurrence is stripped from the reply.
var sentinelTokens = []string{
	prompt.EndTag,
	"<|endoftext|>",
	"<|end_of_text|>",
	"<|eot_id|>",
	"</s>",
}

// dropPatterns matches the known diagnostic lines of the binary: memory and
// build banners, model loading output, command help, perf stats, prompt
// echoes and exit messages.
var dropPatterns = []string{
	"build:",
	"llama_",
	"ggml_",
	"main:",
	"system_info",
	"Loading model",
	"modalities",
	"available commands",
	"/exit",
	"/regen",
	"/clear",
	"/read",
	"██",
	"▄▄",
	" t/s",
	"EOF by user",
	"Interrupted by user",
}

// Filter applies the ordered cleaning chain to a raw output blob.
type Filter struct {
	Prefix string
	Drop   []string
}

func NewFilter() *Filter {
	return &Filter{Prefix: continuationPrefix, Drop: dropPatterns}
}

// Clean runs the chain: strip control characters, cut the echoed prompt and
// anything past the end delimiter, drop diagnostic lines, keep only lines
// carrying the continuation prefix, strip the prefix and trailing sentinel
// tokens, collapse whitespace runs and trim.
func (f *Filter) Clean(raw string) (string, error) {
	s := stripControl(raw)

	// The prompt is echoed back in some builds; the reply starts after the
	// last open assistant tag.
	assistantTag := prompt.StartTag + "assistant"
	if idx := strings.LastIndex(s, assistantTag); idx >= 0 {
		s = s[idx+len(assistantTag):]
	}
	if idx := strings.Index(s, prompt.EndTag); idx >= 0 {
		s = s[:idx]
	}

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if f.isDiagnostic(line) {
			continue
		}
		if !strings.HasPrefix(line, f.Prefix) {
			continue
		}
		kept = append(kept, strings.TrimPrefix(line, f.Prefix))
	}

	s = strings.Join(kept, "\n")
	for stripped := true; stripped; {
		s = strings.TrimRight(s, " \t\n")
		stripped = false
		for _, token := range sentinelTokens {
			if strings.HasSuffix(s, token) {
				s = strings.TrimSuffix(s, token)
				stripped = true
			}
		}
	}
	s = spacesRE.ReplaceAllString(s, " ")
	s = blanksRE.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrNoResponse
	}
	return s, nil
}

func (f *Filter) isDiagnostic(line string) bool {
	for _, pattern := range f.Drop {
		if strings.Contains(line, pattern) {
			return true
		}
	}
	return false
}

func stripControl(s string) string {
	s = ansiRE.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return controlRE.ReplaceAllString(s, "")
}
