package gc

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestNursery_MallocBumpsAndReportsSpace(t *testing.T) {
	n := NewHeap(64, 16)
	assert.Equal(t, n.SpaceAvailable(), int64(32))

	old, newPtr, err := n.Malloc(10)
	assert.NilError(t, err)
	assert.Equal(t, newPtr-old, Addr(10))
	assert.Equal(t, n.SpaceAvailable(), int64(22))
}

func TestNursery_MallocFailsWhenExhausted(t *testing.T) {
	n := NewHeap(16, 8)
	_, _, err := n.Malloc(9)
	assert.ErrorContains(t, err, "nursery_malloc")
}

func TestNursery_SwitchToToSpaceResetsBumpPointer(t *testing.T) {
	n := NewHeap(64, 16)
	assert.Assert(t, n.InFromSpace())
	assert.Assert(t, !n.InToSpace())

	n.SwitchToToSpace()
	assert.Equal(t, n.AllocPtr(), n.ToStart())
	assert.Assert(t, !n.InToSpace()) // no bytes bumped yet

	_, _, err := n.Malloc(1)
	assert.NilError(t, err)
	assert.Assert(t, n.InToSpace())
	assert.Assert(t, !n.InFromSpace())
}

func TestNursery_CloseOnHeapBackedIsNoop(t *testing.T) {
	n := NewHeap(32, 8)
	assert.NilError(t, n.Close())
}
