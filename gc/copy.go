package gc

// CopyResult is the outcome of copying a packed value:
// SrcAfter/DstAfter are one past the last byte consumed/produced,
// DstEnd is the current to-space chunk end (may have advanced through
// a redirection), and Tag is the top-level tag encountered. Tag is nil
// when none applies (the Scalar branch); copyReaders uses it to decide
// whether to burn a trailing forwarding pointer.
type CopyResult struct {
	SrcAfter Addr
	DstAfter Addr
	DstEnd   Addr
	Tag      *Tag
}

func tagPtr(t Tag) *Tag { return &t }

// checkBounds ensures at least spaceReqd bytes remain between dst and
// dstEnd. If not, it allocates a fresh to-space chunk (Nurs.ChunkBytes
// wide), writes a REDIRECTION to it at the exhausted dst, and returns
// the new chunk's bounds; the copy continues transparently there. This
// is why the ordinary-constructor branch below reserves 32+scalarBytes:
// room for a future redirection plus the scalar prefix it is about to
// write.
//
// Grounded on check_bounds in original_source/gibbon-rts/src/gc.rs.
func (rt *Runtime) checkBounds(spaceReqd int64, dst, dstEnd Addr) (Addr, Addr, error) {
	available := int64(dstEnd) - int64(dst)
	if available >= spaceReqd {
		return dst, dstEnd, nil
	}
	newDst, newDstEnd, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
	if err != nil {
		return 0, 0, err
	}
	after := WriteTag(dst, TagRedirection)
	WriteAddr(after, newDst)
	return newDst, newDstEnd, nil
}

// CopyPacked walks a packed value in from-space, driven by the info
// table, writing a compact copy into to-space and leaving forwarding
// metadata behind in from-space.
//
// This is the faithful translation of copy_packed in
// original_source/gibbon-rts/src/gc.rs, dispatching first on the
// info-table entry and then, for packed entries, on the tag byte at
// src: CAUTERIZED, COPIED_TO, COPIED, REDIRECTION, and INDIRECTION each
// get their own branch below, with an ordinary surface constructor tag
// falling through to copyOrdinary.
func (rt *Runtime) CopyPacked(datatype Datatype, src, dst, dstEnd Addr) (CopyResult, error) {
	info, ok := rt.Info.Lookup(datatype)
	if !ok {
		return CopyResult{}, newGcErr("copy_packed", datatype, "unknown datatype")
	}

	if info.IsScalar() {
		size := int(info.ScalarWidth())
		CopyBytes(dst, src, size)
		return CopyResult{SrcAfter: src + Addr(size), DstAfter: dst + Addr(size), DstEnd: dstEnd}, nil
	}

	tag, srcAfterTag := ReadTag(src)

	switch tag {
	case TagCauterized:
		// A live write cursor sits here. Find the shadow-stack frame
		// this cursor belongs to and rewrite its ptr to src: the write
		// cursor's new location is the CAUTERIZED marker itself, to be
		// re-found when the mutator resumes writing. Abort the walk of
		// the enclosing value.
		frameAddr, _ := ReadAddr(srcAfterTag)
		frame := Frame{addr: frameAddr}
		frame.SetPtr(src)
		return CopyResult{Tag: tagPtr(tag)}, nil

	case TagCopiedTo:
		// Already evacuated. Write an indirection to the forwarding
		// target instead of re-copying.
		fwdPtr, srcAfterFwd := ReadAddr(srcAfterTag)
		dst1, dstEnd1, err := rt.checkBounds(18, dst, dstEnd)
		if err != nil {
			return CopyResult{}, err
		}
		dstAfterTag := WriteTag(dst1, TagIndirection)
		dstAfterIndr := WriteAddr(dstAfterTag, fwdPtr)
		return CopyResult{SrcAfter: srcAfterFwd, DstAfter: dstAfterIndr, DstEnd: dstEnd1, Tag: tagPtr(tag)}, nil

	case TagCopied:
		// Algorithm: scan to the right for the next COPIED_TO that must
		// terminate this evacuated interval, then use the offset from
		// src to that marker to compute where src's own value was
		// forwarded to. Indirections and COPIED_TO markers are always
		// 9 bytes, so source and destination intervals have equal
		// length and the same offset applies to both.
		scanTag, scanPtr := ReadTag(srcAfterTag)
		for scanTag != TagCopiedTo {
			scanTag, scanPtr = ReadTag(scanPtr)
		}
		offset := int64(scanPtr) - int64(src) - 1
		fwdAvail, _ := ReadAddr(scanPtr)
		fwdWant := Addr(int64(fwdAvail) - offset)
		dst1, dstEnd1, err := rt.checkBounds(18, dst, dstEnd)
		if err != nil {
			return CopyResult{}, err
		}
		dstAfterTag := WriteTag(dst1, TagIndirection)
		dstAfterIndr := WriteAddr(dstAfterTag, fwdWant)
		return CopyResult{DstAfter: dstAfterIndr, DstEnd: dstEnd1, Tag: tagPtr(tag)}, nil

	case TagRedirection:
		// End of the current chunk. Leave a forwarding pointer to the
		// start of this chunk's destination and continue copying in
		// the next chunk without advancing dst; this is how chunked
		// sources inline into one contiguous destination value.
		nextChunk, _ := ReadAddr(srcAfterTag)
		after := WriteTag(src, TagCopiedTo)
		WriteAddr(after, dst)
		return rt.CopyPacked(datatype, nextChunk, dst, dstEnd)

	case TagIndirection:
		// A pointer to a value owned by another chunk/region. Copy the
		// pointee inline, then forward the indirection's own site to
		// where it was inlined.
		pointee, _ := ReadAddr(srcAfterTag)
		inner, err := rt.CopyPacked(datatype, pointee, dst, dstEnd)
		if err != nil {
			return CopyResult{}, err
		}
		after := WriteTag(src, TagCopiedTo)
		WriteAddr(after, dst)
		// src_after is one past the indirection's own 9-byte footprint
		// (tag plus 8-byte pointee address), not wherever the
		// recursive copy above left off; the indirection's footprint
		// and whatever it points to are two different source intervals.
		srcAfter := srcAfterTag + PtrSize
		return CopyResult{SrcAfter: srcAfter, DstAfter: inner.DstAfter, DstEnd: inner.DstEnd, Tag: tagPtr(tag)}, nil

	default:
		return rt.copyOrdinary(datatype, info, tag, src, srcAfterTag, dst, dstEnd)
	}
}

// copyOrdinary implements the final branch of copy_packed: an ordinary
// surface constructor tag, whose layout comes from the info table.
func (rt *Runtime) copyOrdinary(
	datatype Datatype, info *DatatypeInfo, tag Tag,
	src, srcAfterTag, dst, dstEnd Addr,
) (CopyResult, error) {
	dcon, ok := info.Dacon(tag)
	if !ok {
		return CopyResult{}, newGcErr("copy_packed", datatype, "unknown constructor tag")
	}

	spaceReqd := int64(32) + int64(dcon.ScalarBytes)
	dstMut, dstEndMut, err := rt.checkBounds(spaceReqd, dst, dstEnd)
	if err != nil {
		return CopyResult{}, err
	}

	dstMut = WriteTag(dstMut, tag)
	CopyBytes(dstMut, srcAfterTag, int(dcon.ScalarBytes))
	srcMut := srcAfterTag + Addr(dcon.ScalarBytes)
	dstMut = dstMut + Addr(dcon.ScalarBytes)

	// Leave forwarding metadata at the original src: a full 9-byte
	// COPIED_TO if there's room (scalarBytes >= 8), otherwise a single
	// COPIED byte for the byte-scan strategy, then burn the remainder
	// of the old interval with COPIED filler.
	if dcon.ScalarBytes >= 8 {
		burn := WriteTag(src, TagCopiedTo)
		burn = WriteAddr(burn, dst)
		FillTag(burn, TagCopied, int(srcMut-burn))
	} else {
		burn := WriteTag(src, TagCopied)
		FillTag(burn, TagCopied, int(srcMut-burn))
	}

	for _, fieldTy := range dcon.FieldTys {
		child, err := rt.CopyPacked(fieldTy, srcMut, dstMut, dstEndMut)
		if err != nil {
			return CopyResult{}, err
		}
		if child.Tag != nil && *child.Tag == TagCauterized {
			// Must immediately stop copying upon reaching the
			// cauterized tag; propagate it upward so the enclosing
			// evacuation stops too. copyReaders then moves on to the
			// next read frame; the collection itself does not fail.
			return CopyResult{Tag: tagPtr(TagCauterized)}, nil
		}
		srcMut, dstMut, dstEndMut = child.SrcAfter, child.DstAfter, child.DstEnd
	}

	return CopyResult{SrcAfter: srcMut, DstAfter: dstMut, DstEnd: dstEndMut, Tag: tagPtr(tag)}, nil
}
