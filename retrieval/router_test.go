package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPersonalQuery(t *testing.T) {
	c := Classify("What did my meeting notes say about the project yesterday?")
	assert.Equal(t, IntentPersonal, c.Intent)
	assert.Greater(t, c.Confidence, 0.0)
}

func TestClassifyGeneralQuery(t *testing.T) {
	c := Classify("What is the Pythagorean theorem, explain the proof")
	assert.Equal(t, IntentGeneral, c.Intent)
}

func TestClassifyMemoryQuery(t *testing.T) {
	c := Classify("I prefer tea over coffee, what do I usually like in the morning?")
	assert.Equal(t, IntentMemory, c.Intent)
}

func TestClassifyNoKeywordsDefaultsToHybrid(t *testing.T) {
	c := Classify("zzz qqq xxx")
	assert.Equal(t, IntentHybrid, c.Intent)
	assert.Equal(t, 0.5, c.Confidence)
}

func TestClassifyConfidenceWithinBounds(t *testing.T) {
	c := Classify("my email my notes my calendar meeting project task")
	assert.GreaterOrEqual(t, c.Confidence, 0.0)
	assert.LessOrEqual(t, c.Confidence, 0.95)
}

func TestClassifyIsDeterministic(t *testing.T) {
	a := Classify("help me write a draft email to my team")
	b := Classify("help me write a draft email to my team")
	assert.Equal(t, a, b)
}

func TestStrategyForMatchesContractualTable(t *testing.T) {
	personal := StrategyFor(IntentPersonal)
	assert.True(t, personal.UseRAG)
	assert.True(t, personal.UseMemory)
	assert.Equal(t, DepthFull, personal.Depth)
	assert.Equal(t, 10, personal.MaxResults)

	memory := StrategyFor(IntentMemory)
	assert.False(t, memory.UseRAG)
	assert.True(t, memory.UseMemory)

	general := StrategyFor(IntentGeneral)
	assert.False(t, general.UseRAG)
	assert.False(t, general.UseMemory)

	hybrid := StrategyFor(IntentHybrid)
	assert.True(t, hybrid.UseRAG)
	assert.Equal(t, DepthLight, hybrid.Depth)
	assert.Equal(t, 3, hybrid.MaxResults)
}
