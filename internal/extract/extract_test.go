package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTypicalOutput(t *testing.T) {
	raw := "build: 3620 (abc1234) with cc 13.2.0\n" +
		"llama_model_loader: loaded meta data with 29 key-value pairs\n" +
		"Loading model from /models/qwen2.5-7b-instruct-q4_k_m.gguf\n" +
		"main: interactive mode on\n" +
		"<|im_start|>system\nbe brief<|im_end|>\n" +
		"<|im_start|>user\nhi<|im_end|>\n" +
		"<|im_start|>assistant\n" +
		"> Hello! How can I help?\n" +
		"[ 12.34 t/s ]\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", got)
}

func TestCleanNoPrefixedLine(t *testing.T) {
	raw := "ggml_cuda_init: found 1 CUDA devices\n" +
		"llama_perf_context_print: eval time = 300 ms\n" +
		"some stray text without the marker\n"

	got, err := NewFilter().Clean(raw)

	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Empty(t, got)
}

func TestCleanEmptyInput(t *testing.T) {
	_, err := NewFilter().Clean("")
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestCleanStripsControlSequences(t *testing.T) {
	raw := "<|im_start|>assistant\n" +
		"\x1b[32m> All\x1b[0m good here\x07\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "All good here", got)
}

func TestCleanStopsAtEndTag(t *testing.T) {
	raw := "<|im_start|>assistant\n" +
		"> Sure thing.<|im_end|>\n" +
		"> this came after the stop token\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "Sure thing.", got)
}

func TestCleanStripsSentinelTokens(t *testing.T) {
	raw := "<|im_start|>assistant\n" +
		"> Done here.<|endoftext|>\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "Done here.", got)
}

func TestCleanStripsStackedTrailingSentinels(t *testing.T) {
	raw := "<|im_start|>assistant\n" +
		"> Done here.</s>\n" +
		"> <|endoftext|>\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "Done here.", got)
}

func TestCleanKeepsQuotedSentinelTokens(t *testing.T) {
	raw := "<|im_start|>assistant\n" +
		"> The stop token </s> closes a sequence.\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "The stop token </s> closes a sequence.", got)
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	raw := "> Lots   of\t\tspace   inside\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "Lots of space inside", got)
}

func TestCleanKeepsMultilineReplies(t *testing.T) {
	raw := "> First line.\n" +
		"llama_perf: 10 t/s\n" +
		"> Second line.\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "First line.\nSecond line.", got)
}

func TestCleanDropsPromptEcho(t *testing.T) {
	raw := "<|im_start|>assistant\n" +
		">\n" +
		"> The actual reply\n"

	got, err := NewFilter().Clean(raw)

	require.NoError(t, err)
	assert.Equal(t, "The actual reply", got)
}
