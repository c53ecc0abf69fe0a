package assistant

import (
	"io"
	"testing"

	"github.com/hexpanda/qwenvoice/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wakeWords = []string{"hey qwen", "hey quinn", "hey gwen"}

func TestNewDefaultsEmptyWakeWords(t *testing.T) {
	a := New(nil, nil, nil, nil, io.Discard)
	require.NotEmpty(t, a.wakeWords)
	assert.Equal(t, config.DefaultWakeWords, a.wakeWords)

	a = New(nil, nil, nil, []string{}, io.Discard)
	require.NotEmpty(t, a.wakeWords)
}

func TestMatchWakeWord(t *testing.T) {
	tests := []struct {
		name     string
		phrase   string
		wantRest string
		wantOK   bool
	}{
		{"exact", "hey qwen", "", true},
		{"mixed case", "Hey Qwen", "", true},
		{"mishearing variant", "hey quinn what time is it", "what time is it", true},
		{"embedded", "okay so hey qwen turn on the lights", "okay so turn on the lights", true},
		{"no wake word", "what time is it", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, ok := MatchWakeWord(wakeWords, tt.phrase)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}
