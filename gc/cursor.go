package gc

import (
	"encoding/binary"
	"unsafe"
)

// Addr is a raw byte address into one of this runtime's arenas (nursery
// from/to-space, or a shadow-stack buffer). It doubles as the "value"
// stored in an 8-byte in-band pointer field (forwarding pointers,
// redirection/indirection targets, cauterized-frame addresses), exactly
// as the original runtime treats cursor and pointer-value as the same
// *mut i8 representation.
//
// Adapted from the bump-allocator address arithmetic in
// std/runtime/runtime.go's Alloc/Memcopy/ReadPtr/WritePtr, which operate
// on raw uintptr addresses rather than Go slices so that pointer fields
// written into the arena can be reinterpreted as addresses on a later
// pass over the same bytes.
type Addr uintptr

// bytesAt views n bytes starting at addr as a byte slice, without
// bounds checking against any Go slice header. The caller, operating
// only within nursery/shadow-stack bounds it owns, is responsible for
// staying in range.
func bytesAt(addr Addr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n)
}

// ReadTag loads the one-byte constructor tag at cursor and returns the
// cursor advanced past it.
func ReadTag(cursor Addr) (Tag, Addr) {
	return Tag(bytesAt(cursor, 1)[0]), cursor + 1
}

// WriteTag stores a one-byte constructor tag at cursor and returns the
// cursor advanced past it.
func WriteTag(cursor Addr, t Tag) Addr {
	bytesAt(cursor, 1)[0] = byte(t)
	return cursor + 1
}

// ReadAddr loads an unaligned 8-byte pointer value at cursor (a
// forwarding pointer, redirection/indirection target, or cauterized
// frame address) and returns the cursor advanced past it. Loads
// byte-by-byte via encoding/binary rather than a typed pointer
// dereference, since packed values are dense and tag-prefixed and so
// routinely leave 8-byte fields unaligned.
func ReadAddr(cursor Addr) (Addr, Addr) {
	v := binary.LittleEndian.Uint64(bytesAt(cursor, PtrSize))
	return Addr(v), cursor + PtrSize
}

// WriteAddr stores an unaligned 8-byte pointer value at cursor and
// returns the cursor advanced past it.
func WriteAddr(cursor Addr, v Addr) Addr {
	binary.LittleEndian.PutUint64(bytesAt(cursor, PtrSize), uint64(v))
	return cursor + PtrSize
}

// WriteInt64 stores an 8-byte scalar payload at cursor, the same width
// and layout as an in-band pointer, but used where the caller means an
// ordinary scalar field rather than an address. Returns the cursor
// advanced past it.
func WriteInt64(cursor Addr, v int64) Addr {
	binary.LittleEndian.PutUint64(bytesAt(cursor, PtrSize), uint64(v))
	return cursor + PtrSize
}

// ReadInt64 loads an 8-byte scalar payload at cursor and returns the
// cursor advanced past it.
func ReadInt64(cursor Addr) (int64, Addr) {
	v := binary.LittleEndian.Uint64(bytesAt(cursor, PtrSize))
	return int64(v), cursor + PtrSize
}

// CopyBytes copies n bytes from src to dst (the scalar-prefix memcpy
// used by both the Scalar datatype branch and the ordinary-constructor
// branch of copy_packed). Source and destination never overlap: src
// always lies in from-space and dst always lies in to-space.
func CopyBytes(dst, src Addr, n int) {
	if n <= 0 {
		return
	}
	copy(bytesAt(dst, n), bytesAt(src, n))
}

// FillTag writes tag into all n bytes starting at cursor, burning the
// remainder of an evacuated interval with COPIED filler after a
// shorter COPIED_TO forwarding pointer has been written.
func FillTag(cursor Addr, t Tag, n int) {
	if n <= 0 {
		return
	}
	b := bytesAt(cursor, n)
	for i := range b {
		b[i] = byte(t)
	}
}
