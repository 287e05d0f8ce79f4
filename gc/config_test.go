package gc

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestConfigFromEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("GIBBON_NURSERY_BYTES", "2048")
	t.Setenv("GIBBON_CHUNK_BYTES", "64")
	t.Setenv("GIBBON_SHADOWSTACK_FRAMES", "8")
	t.Setenv("GIBBON_DEBUG", "true")

	cfg := ConfigFromEnv()
	assert.Equal(t, cfg.NurseryBytes, 2048)
	assert.Equal(t, cfg.ChunkBytes, 64)
	assert.Equal(t, cfg.ShadowStackFrames, 8)
	assert.Equal(t, cfg.DebugAssertions, true)
}

func TestConfigFromEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("GIBBON_NURSERY_BYTES", "not-a-number")
	t.Setenv("GIBBON_CHUNK_BYTES", "-5")

	cfg := ConfigFromEnv()
	def := DefaultConfig()
	assert.Equal(t, cfg.NurseryBytes, def.NurseryBytes)
	assert.Equal(t, cfg.ChunkBytes, def.ChunkBytes)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.NurseryBytes, 1<<20)
	assert.Equal(t, cfg.ChunkBytes, DefaultChunkBytes)
	assert.Equal(t, cfg.ShadowStackFrames, 1024)
	assert.Equal(t, cfg.DebugAssertions, false)
}
