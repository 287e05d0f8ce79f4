package gc

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestNewRuntime_BuildsInitializedComponents(t *testing.T) {
	rt, err := NewRuntime(DefaultConfig())
	assert.NilError(t, err)
	defer rt.Close()

	assert.Assert(t, rt.Nurs.Initialized())
	assert.Assert(t, rt.Reads.Initialized())
	assert.Assert(t, rt.Writes.Initialized())
	assert.Assert(t, rt.Log != nil)

	_, ok := rt.Info.Lookup(0)
	assert.Assert(t, !ok)
}

func TestRuntime_CloseOnHeapBackedSucceeds(t *testing.T) {
	rt, err := NewRuntime(Config{NurseryBytes: 256, ChunkBytes: 32, ShadowStackFrames: 4})
	assert.NilError(t, err)
	assert.NilError(t, rt.Close())
}
