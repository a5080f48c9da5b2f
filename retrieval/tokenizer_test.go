package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	tokens := Tokenize("Hello, World! Testing-123.")
	assert.Equal(t, []string{"hello", "world", "testing", "123"}, tokens)
}

func TestTokenizeDropsStopwordsAndShortTokens(t *testing.T) {
	tokens := Tokenize("the cat and dog are fast")
	assert.Equal(t, []string{"cat", "dog", "fast"}, tokens)
}

func TestTokenizeDropsTokensOfLengthTwoOrLess(t *testing.T) {
	tokens := Tokenize("a an ok fly")
	assert.Equal(t, []string{"fly"}, tokens)
}

func TestTokenizeEmptyInput(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   "))
}

func TestTokenizeIsPureAndDeterministic(t *testing.T) {
	a := Tokenize("Meetings about the project roadmap")
	b := Tokenize("Meetings about the project roadmap")
	assert.Equal(t, a, b)
}
