package gc

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestShadowStack_PushPopRoundTrips(t *testing.T) {
	s := NewShadowStack(4)
	assert.NilError(t, s.Push(0x1000, 7))
	assert.NilError(t, s.Push(0x2000, 9))
	assert.Equal(t, s.Length(), 2)

	ptr, dt, ok := s.Pop()
	assert.Assert(t, ok)
	assert.Equal(t, ptr, Addr(0x2000))
	assert.Equal(t, dt, Datatype(9))

	ptr, dt, ok = s.Pop()
	assert.Assert(t, ok)
	assert.Equal(t, ptr, Addr(0x1000))
	assert.Equal(t, dt, Datatype(7))

	_, _, ok = s.Pop()
	assert.Assert(t, !ok)
}

func TestShadowStack_OverflowFails(t *testing.T) {
	s := NewShadowStack(1)
	assert.NilError(t, s.Push(1, 1))
	err := s.Push(2, 2)
	assert.ErrorContains(t, err, "overflow")
}

func TestShadowStack_FramesOldestFirst(t *testing.T) {
	s := NewShadowStack(4)
	assert.NilError(t, s.Push(10, 1))
	assert.NilError(t, s.Push(20, 2))
	assert.NilError(t, s.Push(30, 3))

	frames := s.Frames()
	assert.Equal(t, len(frames), 3)
	assert.Equal(t, frames[0].Ptr(), Addr(10))
	assert.Equal(t, frames[1].Ptr(), Addr(20))
	assert.Equal(t, frames[2].Ptr(), Addr(30))

	// SetPtr rewrites in place, the way the collector redirects a
	// mutator's cursor after evacuating its referent.
	frames[1].SetPtr(999)
	assert.Equal(t, s.Frames()[1].Ptr(), Addr(999))
}
