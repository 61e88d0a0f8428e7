package qna

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqna/internal/models"
)

func TestParseJSONArray(t *testing.T) {
	raw := `[{"question": "What is X?", "answer": "X is Y."}, {"question": "Why Z?", "answer": "Because."}]`
	pairs, degraded := Parse(raw)
	assert.False(t, degraded)
	require.Len(t, pairs, 2)
	assert.Equal(t, "What is X?", pairs[0].Question)
	assert.Equal(t, "Because.", pairs[1].Answer)
}

func TestParseJSONInCodeFence(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"question\": \"Q?\", \"answer\": \"A.\"}]\n```"
	pairs, degraded := Parse(raw)
	assert.False(t, degraded)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Q?", pairs[0].Question)
	assert.Equal(t, "A.", pairs[0].Answer)
}

func TestParseFallbackSinglePair(t *testing.T) {
	pairs, degraded := Parse("Q1: What is X?\nA1: X is Y.\n")
	assert.True(t, degraded)
	require.Len(t, pairs, 1)
	assert.Equal(t, models.QnAPair{Question: "What is X?", Answer: "X is Y."}, pairs[0])
}

func TestParseFallbackMultilineAnswer(t *testing.T) {
	raw := "Q1: What is X?\nA1: X is Y.\nIt also does Z.\nAnd more.\n"
	pairs, degraded := Parse(raw)
	assert.True(t, degraded)
	require.Len(t, pairs, 1)
	assert.Equal(t, "X is Y. It also does Z. And more.", pairs[0].Answer)
}

func TestParseFallbackMultiplePairs(t *testing.T) {
	raw := "Q1: First?\nA1: One.\nQ2: Second?\nA2: Two.\n"
	pairs, degraded := Parse(raw)
	assert.True(t, degraded)
	require.Len(t, pairs, 2)
	assert.Equal(t, "First?", pairs[0].Question)
	assert.Equal(t, "One.", pairs[0].Answer)
	assert.Equal(t, "Second?", pairs[1].Question)
	assert.Equal(t, "Two.", pairs[1].Answer)
}

func TestParseFallbackDropsIncompletePairs(t *testing.T) {
	// question without answer, then a complete pair
	raw := "Q1: Orphan?\nQ2: Kept?\nA2: Yes.\n"
	pairs, degraded := Parse(raw)
	assert.True(t, degraded)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Kept?", pairs[0].Question)
}

func TestParseGarbageYieldsNothing(t *testing.T) {
	pairs, degraded := Parse("the model refused to cooperate")
	assert.True(t, degraded)
	assert.Empty(t, pairs)
}
