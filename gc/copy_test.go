package gc

import (
	"testing"

	"gotest.tools/v3/assert"
)

const (
	dtInt  Datatype = 1
	dtTree Datatype = 2
)

const (
	tagLeaf Tag = 0
	tagNode Tag = 1
)

// newTestRuntime builds a Runtime with a heap-backed nursery and an info
// table describing a scalar int and a binary tree (Leaf n | Node left
// right), the running example used throughout this file's tests.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := NewRuntime(Config{
		NurseryBytes:      4096,
		ChunkBytes:        256,
		ShadowStackFrames: 16,
	})
	assert.NilError(t, err)

	assert.NilError(t, rt.Info.InsertScalar(dtInt, 8))
	assert.NilError(t, rt.Info.InsertPackedDcon(dtTree, tagLeaf, 8, 1, 0, nil))
	assert.NilError(t, rt.Info.InsertPackedDcon(dtTree, tagNode, 0, 0, 2, []Datatype{dtTree, dtTree}))
	return rt
}

func readInt64(addr Addr) int64 {
	v, _ := ReadInt64(addr)
	return v
}

// writeLeaf writes a Leaf constructor (tag + 8-byte int payload) at addr
// and returns the address just past it.
func writeLeaf(addr Addr, value int64) Addr {
	after := WriteTag(addr, tagLeaf)
	return WriteInt64(after, value)
}

// TestCopyPacked_Scalar covers a bare scalar frame, copied via the
// read-shadow-stack path rather than CopyPacked directly, since a
// Scalar entry never carries a tag byte.
func TestCopyPacked_Scalar(t *testing.T) {
	rt := newTestRuntime(t)
	src, _, err := rt.Nurs.Malloc(8)
	assert.NilError(t, err)
	WriteInt64(src, 42)

	assert.NilError(t, rt.Reads.Push(src, dtInt))
	assert.NilError(t, rt.CollectMinor())

	frames := rt.Reads.Frames()
	assert.Equal(t, len(frames), 1)
	assert.Assert(t, frames[0].Ptr() >= rt.Nurs.ToStart())
	assert.Equal(t, readInt64(frames[0].Ptr()), int64(42))
}

// TestCopyPacked_UnaryConstructor covers a single Leaf constructor
// copied with no packed children.
func TestCopyPacked_UnaryConstructor(t *testing.T) {
	rt := newTestRuntime(t)
	src, _, err := rt.Nurs.Malloc(32)
	assert.NilError(t, err)
	writeLeaf(src, 7)

	rt.Nurs.SwitchToToSpace()
	dst, dstEnd, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
	assert.NilError(t, err)

	result, err := rt.CopyPacked(dtTree, src, dst, dstEnd)
	assert.NilError(t, err)
	assert.Assert(t, result.Tag != nil)
	assert.Equal(t, *result.Tag, tagLeaf)

	copiedTag, after := ReadTag(dst)
	assert.Equal(t, copiedTag, tagLeaf)
	assert.Equal(t, readInt64(after), int64(7))

	// The source must now carry forwarding metadata: a COPIED_TO
	// immediately, since the Leaf's 8-byte scalar prefix has room for
	// the full 9-byte marker.
	fwdTag, fwdAfter := ReadTag(src)
	assert.Equal(t, fwdTag, TagCopiedTo)
	fwdTarget, _ := ReadAddr(fwdAfter)
	assert.Equal(t, fwdTarget, dst)
}

// TestCopyPacked_BinaryTreeNode covers a Node with two Leaf children,
// exercising the recursive per-field walk.
func TestCopyPacked_BinaryTreeNode(t *testing.T) {
	rt := newTestRuntime(t)
	src, _, err := rt.Nurs.Malloc(64)
	assert.NilError(t, err)

	nodeStart := src
	after := WriteTag(nodeStart, tagNode)
	leftStart := after
	after = writeLeaf(leftStart, 1)
	rightStart := after
	writeLeaf(rightStart, 2)

	rt.Nurs.SwitchToToSpace()
	dst, dstEnd, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
	assert.NilError(t, err)

	result, err := rt.CopyPacked(dtTree, nodeStart, dst, dstEnd)
	assert.NilError(t, err)
	assert.Equal(t, *result.Tag, tagNode)

	copiedTag, dstLeft := ReadTag(dst)
	assert.Equal(t, copiedTag, tagNode)
	leftTag, dstAfterLeftTag := ReadTag(dstLeft)
	assert.Equal(t, leftTag, tagLeaf)
	assert.Equal(t, readInt64(dstAfterLeftTag), int64(1))
	dstRight := dstAfterLeftTag + 8
	rightTag, dstAfterRightTag := ReadTag(dstRight)
	assert.Equal(t, rightTag, tagLeaf)
	assert.Equal(t, readInt64(dstAfterRightTag), int64(2))
}

// TestCopyPacked_RedirectionFollowed covers a source value spanning two
// chunks joined by a REDIRECTION tag; CopyPacked must follow it
// transparently and produce one contiguous destination value.
func TestCopyPacked_RedirectionFollowed(t *testing.T) {
	rt := newTestRuntime(t)

	// First chunk holds only the Node tag, then redirects.
	firstChunk, _, err := rt.Nurs.Malloc(16)
	assert.NilError(t, err)
	secondChunk, _, err := rt.Nurs.Malloc(32)
	assert.NilError(t, err)

	nodeStart := firstChunk
	after := WriteTag(nodeStart, tagNode)
	redir := WriteTag(after, TagRedirection)
	WriteAddr(redir, secondChunk)

	after = writeLeaf(secondChunk, 11)
	writeLeaf(after, 22)

	rt.Nurs.SwitchToToSpace()
	dst, dstEnd, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
	assert.NilError(t, err)

	result, err := rt.CopyPacked(dtTree, nodeStart, dst, dstEnd)
	assert.NilError(t, err)
	assert.Equal(t, *result.Tag, tagNode)

	copiedTag, dstLeft := ReadTag(dst)
	assert.Equal(t, copiedTag, tagNode)
	leftTag, dstAfterLeftTag := ReadTag(dstLeft)
	assert.Equal(t, leftTag, tagLeaf)
	assert.Equal(t, readInt64(dstAfterLeftTag), int64(11))
	dstRightLeaf := dstAfterLeftTag + 8
	rightTag, dstAfterRightTag := ReadTag(dstRightLeaf)
	assert.Equal(t, rightTag, tagLeaf)
	assert.Equal(t, readInt64(dstAfterRightTag), int64(22))

	// The redirection site itself must now be marked COPIED_TO, per
	// copy_packed's TagRedirection branch, forwarding to the destination
	// position where the continuation was copied: just past the Node tag.
	fwdTag, fwdAfter := ReadTag(redir - 1)
	assert.Equal(t, fwdTag, TagCopiedTo)
	fwdTarget, _ := ReadAddr(fwdAfter)
	assert.Equal(t, fwdTarget, dstLeft)
}

// TestCopyPacked_SharedSubtreeViaIndirection covers two independent
// sites each holding an INDIRECTION to the same shared Leaf.
// Copying the first site evacuates the Leaf and leaves COPIED_TO
// behind; copying the second site must then dedupe via the COPIED_TO
// (or COPIED) branch instead of re-copying the Leaf.
func TestCopyPacked_SharedSubtreeViaIndirection(t *testing.T) {
	rt := newTestRuntime(t)

	sharedLeaf, _, err := rt.Nurs.Malloc(16)
	assert.NilError(t, err)
	writeLeaf(sharedLeaf, 99)

	indr1, _, err := rt.Nurs.Malloc(16)
	assert.NilError(t, err)
	after := WriteTag(indr1, TagIndirection)
	WriteAddr(after, sharedLeaf)

	indr2, _, err := rt.Nurs.Malloc(16)
	assert.NilError(t, err)
	after = WriteTag(indr2, TagIndirection)
	WriteAddr(after, sharedLeaf)

	rt.Nurs.SwitchToToSpace()
	dst1, dstEnd1, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
	assert.NilError(t, err)

	result1, err := rt.CopyPacked(dtTree, indr1, dst1, dstEnd1)
	assert.NilError(t, err)
	assert.Equal(t, *result1.Tag, TagIndirection)
	leafTag, leafAfter := ReadTag(result1.DstAfter - 9)
	assert.Equal(t, leafTag, tagLeaf)
	assert.Equal(t, readInt64(leafAfter), int64(99))

	// The shared leaf is now COPIED_TO; the second indirection must
	// resolve through it without writing a second copy of the payload.
	sharedTag, _ := ReadTag(sharedLeaf)
	assert.Equal(t, sharedTag, TagCopiedTo)

	dst2, dstEnd2, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
	assert.NilError(t, err)
	result2, err := rt.CopyPacked(dtTree, indr2, dst2, dstEnd2)
	assert.NilError(t, err)
	assert.Equal(t, *result2.Tag, TagIndirection)

	indrTag, indrAfter := ReadTag(dst2)
	assert.Equal(t, indrTag, TagIndirection)
	fwd, _ := ReadAddr(indrAfter)
	leafTagAgain, leafAfterAgain := ReadTag(fwd)
	assert.Equal(t, leafTagAgain, tagLeaf)
	assert.Equal(t, readInt64(leafAfterAgain), int64(99))
}

// TestCopyPacked_CauterizedTail covers a write cursor sitting
// mid-value behind a CAUTERIZED tag. Copying must stop immediately,
// rewrite the owning write frame's ptr to the cauterized site, and
// propagate TagCauterized to the caller without writing anything past
// it.
func TestCopyPacked_CauterizedTail(t *testing.T) {
	rt := newTestRuntime(t)

	nodeStart, _, err := rt.Nurs.Malloc(32)
	assert.NilError(t, err)
	after := WriteTag(nodeStart, tagNode)
	leftStart := after
	after = writeLeaf(leftStart, 5)
	cauterizedSite := after

	assert.NilError(t, rt.Writes.Push(cauterizedSite, dtTree))
	rt.cauterizeWriters()

	rt.Nurs.SwitchToToSpace()
	dst, dstEnd, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
	assert.NilError(t, err)

	result, err := rt.CopyPacked(dtTree, nodeStart, dst, dstEnd)
	assert.NilError(t, err)
	assert.Assert(t, result.Tag != nil)
	assert.Equal(t, *result.Tag, TagCauterized)

	writeFrames := rt.Writes.Frames()
	assert.Equal(t, len(writeFrames), 1)
	assert.Equal(t, writeFrames[0].Ptr(), cauterizedSite)
}
