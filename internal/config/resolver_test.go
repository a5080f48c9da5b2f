package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigResolverAppliesOverrides(t *testing.T) {
	base := DefaultConfig()
	resolver := NewConfigResolver(base)

	chunkSize := 1200
	useMemory := false
	resolved := resolver.Resolve(Overrides{
		ChunkSize: &chunkSize,
		UseMemory: &useMemory,
	})

	assert.Equal(t, 1200, resolved.Brain.ChunkSize)
	assert.False(t, resolved.Brain.UseMemory)
	// Fields with no override keep the base value.
	assert.Equal(t, base.Brain.HybridVectorWeight, resolved.Brain.HybridVectorWeight)
}

func TestConfigResolverLeavesBaseUnmodified(t *testing.T) {
	base := DefaultConfig()
	resolver := NewConfigResolver(base)

	weight := 0.9
	resolver.Resolve(Overrides{HybridVectorWeight: &weight})

	assert.Equal(t, 0.5, base.Brain.HybridVectorWeight)
}

func TestConfigResolverNoOverridesReturnsEquivalentConfig(t *testing.T) {
	base := DefaultConfig()
	resolver := NewConfigResolver(base)

	resolved := resolver.Resolve(Overrides{})

	assert.Equal(t, *base, *resolved)
}
