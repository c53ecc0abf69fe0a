package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubListener struct {
	phrase string
	err    error
	window time.Duration
}

func (s *stubListener) Listen(_ context.Context, maxPhrase time.Duration) (string, error) {
	s.window = maxPhrase
	return s.phrase, s.err
}

func TestCapturePhrase(t *testing.T) {
	l := &stubListener{phrase: "  turn on the lights  "}

	got, err := capturePhrase(context.Background(), l)

	require.NoError(t, err)
	assert.Equal(t, "turn on the lights", got)
	assert.Equal(t, voiceWindow, l.window)
}

func TestCapturePhraseEmptyTranscript(t *testing.T) {
	l := &stubListener{phrase: "   "}

	_, err := capturePhrase(context.Background(), l)

	assert.ErrorIs(t, err, errNoSpeech)
}

func TestCapturePhrasePropagatesListenError(t *testing.T) {
	wantErr := errors.New("stream closed")
	l := &stubListener{err: wantErr}

	_, err := capturePhrase(context.Background(), l)

	assert.ErrorIs(t, err, wantErr)
}
