package convo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendAndTurns(t *testing.T) {
	h := NewHistory()
	h.Append(RoleUser, "hello")
	h.Append(RoleAssistant, "hi")

	turns := h.Turns()
	assert.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "hello"}, turns[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Content: "hi"}, turns[1])
}

func TestTurnsReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(RoleUser, "original")

	turns := h.Turns()
	turns[0].Content = "mutated"

	assert.Equal(t, "original", h.Turns()[0].Content)
}

func TestWindow(t *testing.T) {
	h := NewHistory()
	h.Append(RoleUser, "one")
	h.Append(RoleAssistant, "two")
	h.Append(RoleUser, "three")

	window := h.Window(2)
	assert.Len(t, window, 2)
	assert.Equal(t, "two", window[0].Content)
	assert.Equal(t, "three", window[1].Content)

	assert.Len(t, h.Window(10), 3)
}

func TestReset(t *testing.T) {
	h := NewHistory()
	h.Append(RoleUser, "hello")
	h.Append(RoleAssistant, "hi")

	h.Reset()

	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Turns())
}
