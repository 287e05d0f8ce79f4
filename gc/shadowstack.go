package gc

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// frameSize is the byte width of one shadow-stack frame: an 8-byte
// pointer followed by a 4-byte datatype identifier, packed with no
// padding, so generated mutator code and this collector agree on frame
// boundaries regardless of GOARCH.
const frameSize = PtrSize + 4

// ShadowStack is an append-only stack of {ptr, datatype} frames. Two
// independent instances exist per Runtime, one for read cursors and one
// for write cursors; this type itself is modality-agnostic.
//
// The frame layout is reproduced as raw bytes rather than a Go struct
// slice so the 12-byte packed ABI holds independent of Go's own struct
// alignment rules, grounded on the fixed ShadowstackFrame #[repr(C)]
// layout in original_source/gibbon-rts/src/gc.rs.
type ShadowStack struct {
	backing     []byte
	start       Addr
	end         Addr
	allocPtr    Addr
	initialized bool
}

// NewShadowStack allocates a shadow stack with room for capacity
// frames.
func NewShadowStack(capacity int) *ShadowStack {
	backing := make([]byte, capacity*frameSize)
	base := baseAddr(backing)
	return &ShadowStack{
		backing:     backing,
		start:       base,
		end:         base + Addr(len(backing)),
		allocPtr:    base,
		initialized: true,
	}
}

// Initialized reports whether this shadow stack has live backing
// storage.
func (s *ShadowStack) Initialized() bool { return s.initialized }

// Start returns the address of the first frame slot.
func (s *ShadowStack) Start() Addr { return s.start }

// End returns the address one past the last frame slot.
func (s *ShadowStack) End() Addr { return s.end }

// AllocPtr returns the address one past the last live frame.
func (s *ShadowStack) AllocPtr() Addr { return s.allocPtr }

// Length returns the number of live frames: the byte distance between
// start and allocPtr divided by the frame size.
func (s *ShadowStack) Length() int {
	return int(int64(s.allocPtr-s.start) / frameSize)
}

// Push appends a new frame recording a live cursor. Generated mutator
// code is the usual caller of this half of the protocol; it is exposed
// here so tests can exercise the collector's read side directly.
func (s *ShadowStack) Push(ptr Addr, datatype Datatype) error {
	if s.allocPtr+frameSize > s.end {
		return newGcErr("shadowstack_push", datatype, "shadow stack overflow")
	}
	frame := s.allocPtr
	binary.LittleEndian.PutUint64(bytesAt(frame, PtrSize), uint64(ptr))
	binary.LittleEndian.PutUint32(bytesAt(frame+PtrSize, 4), uint32(datatype))
	s.allocPtr += frameSize
	return nil
}

// Pop removes and returns the most recently pushed frame.
func (s *ShadowStack) Pop() (Addr, Datatype, bool) {
	if s.allocPtr <= s.start {
		return 0, 0, false
	}
	s.allocPtr -= frameSize
	ptr := Addr(binary.LittleEndian.Uint64(bytesAt(s.allocPtr, PtrSize)))
	dt := Datatype(binary.LittleEndian.Uint32(bytesAt(s.allocPtr+PtrSize, 4)))
	return ptr, dt, true
}

// Frame is a mutable reference to one live shadow-stack frame. Ptr can
// be overwritten in place: this is how the collector rewrites a
// reader's or writer's cursor to point into to-space once its referent
// has been evacuated, so that the mutator, when control returns, reads
// the new location transparently.
type Frame struct {
	addr Addr
}

// Addr returns the address at which this frame itself is stored, the
// value written behind a CAUTERIZED tag so the collector can later find
// and rewrite the owning write-cursor frame.
func (f Frame) Addr() Addr { return f.addr }

// Ptr returns the frame's current cursor value.
func (f Frame) Ptr() Addr {
	return Addr(binary.LittleEndian.Uint64(bytesAt(f.addr, PtrSize)))
}

// SetPtr overwrites the frame's cursor value in place.
func (f Frame) SetPtr(ptr Addr) {
	binary.LittleEndian.PutUint64(bytesAt(f.addr, PtrSize), uint64(ptr))
}

// Datatype returns the frame's recorded datatype identifier.
func (f Frame) Datatype() Datatype {
	return Datatype(binary.LittleEndian.Uint32(bytesAt(f.addr+PtrSize, 4)))
}

func (f Frame) String() string {
	return fmt.Sprintf("ShadowstackFrame { ptr: %#x, datatype: %d }", f.Ptr(), f.Datatype())
}

// Frames returns every live frame, oldest-first, as mutable references.
// The collector iterates read-stack frames oldest-first and writes
// frames in any order; both uses share this same iterator.
func (s *ShadowStack) Frames() []Frame {
	n := s.Length()
	frames := make([]Frame, n)
	addr := s.start
	for i := 0; i < n; i++ {
		frames[i] = Frame{addr: addr}
		addr += frameSize
	}
	return frames
}

// DebugPrintAll renders every live frame, for the same diagnostic
// purpose as shadowstack_debugprint in the original runtime.
func (s *ShadowStack) DebugPrintAll() string {
	var b strings.Builder
	for _, f := range s.Frames() {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}
