package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hexpanda/qwenvoice/internal/convo"
)

func TestBuildEmptyHistory(t *testing.T) {
	b := &Builder{System: "You are a test bot.", Window: 20}

	got := b.Build(nil, "Hello there")

	want := "<|im_start|>system\nYou are a test bot.<|im_end|>\n" +
		"<|im_start|>user\nHello there<|im_end|>\n" +
		"<|im_start|>assistant\n"
	assert.Equal(t, want, got)
}

func TestBuildWithHistory(t *testing.T) {
	b := &Builder{System: "sys", Window: 20}
	history := []convo.Turn{
		{Role: convo.RoleUser, Content: "What is Go?"},
		{Role: convo.RoleAssistant, Content: "A programming language."},
	}

	got := b.Build(history, "Who made it?")

	want := "<|im_start|>system\nsys<|im_end|>\n" +
		"<|im_start|>user\nWhat is Go?<|im_end|>\n" +
		"<|im_start|>assistant\nA programming language.<|im_end|>\n" +
		"<|im_start|>user\nWho made it?<|im_end|>\n" +
		"<|im_start|>assistant\n"
	assert.Equal(t, want, got)
}

func TestBuildWindowsHistory(t *testing.T) {
	b := &Builder{System: "sys", Window: 2}
	history := []convo.Turn{
		{Role: convo.RoleUser, Content: "first"},
		{Role: convo.RoleAssistant, Content: "second"},
		{Role: convo.RoleUser, Content: "third"},
	}

	got := b.Build(history, "new")

	assert.NotContains(t, got, "first")
	assert.Contains(t, got, "second")
	assert.Contains(t, got, "third")
}

func TestBuildAfterReset(t *testing.T) {
	b := NewBuilder()
	history := convo.NewHistory()
	history.Append(convo.RoleUser, "remember me")
	history.Append(convo.RoleAssistant, "I will")

	history.Reset()
	got := b.Build(history.Turns(), "fresh start")

	assert.NotContains(t, got, "remember me")
	assert.Equal(t, 2, strings.Count(got, EndTag), "only system and user turns should be closed")
	assert.True(t, strings.HasSuffix(got, StartTag+"assistant\n"))
}
