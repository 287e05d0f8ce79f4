package gc

// CollectMinor runs one minor-collection cycle: if a previous minor
// collection already switched the allocator into to-space this cycle,
// promote everything to the old generation; otherwise cauterize write
// cursors, copy read cursors from from-space into to-space, and promote
// if nothing was freed.
//
// Grounded on collect_minor in original_source/gibbon-rts/src/gc.rs.
func (rt *Runtime) CollectMinor() error {
	if rt.Config.DebugAssertions {
		if err := rt.assertPreconditions(); err != nil {
			return err
		}
		rt.Log.WithFields(debugFields(rt)).Debug("triggered minor collection")
		rt.Log.Debugf("stack of readers, length=%d:\n%s", rt.Reads.Length(), rt.Reads.DebugPrintAll())
		rt.Log.Debugf("stack of writers, length=%d:\n%s", rt.Writes.Length(), rt.Writes.DebugPrintAll())
	}

	if rt.Nurs.InToSpace() {
		return rt.promoteToOldgen()
	}

	before := rt.Nurs.SpaceAvailable()
	if err := rt.copyToTospace(); err != nil {
		return err
	}
	after := rt.Nurs.SpaceAvailable()

	if rt.Metrics != nil {
		rt.Metrics.MinorCollections.Inc()
		rt.Metrics.SpaceAvailable.Set(float64(after))
	}

	// Promote everything to the old generation if we couldn't free any
	// space after a minor collection.
	if after == before {
		return rt.promoteToOldgen()
	}
	return nil
}

func debugFields(rt *Runtime) map[string]interface{} {
	return map[string]interface{}{
		"alloc_ptr":     rt.Nurs.AllocPtr(),
		"alloc_ptr_end": rt.Nurs.AllocPtrEnd(),
		"read_frames":   rt.Reads.Length(),
		"write_frames":  rt.Writes.Length(),
	}
}

func (rt *Runtime) assertPreconditions() error {
	if !rt.Nurs.Initialized() {
		return newGcErr("collect_minor", 0, "nursery not initialized")
	}
	if rt.Nurs.AllocPtr() >= rt.Nurs.AllocPtrEnd() {
		return newGcErr("collect_minor", 0, "nursery allocator has no room for its own bookkeeping")
	}
	if !rt.Reads.Initialized() || !rt.Writes.Initialized() {
		return newGcErr("collect_minor", 0, "shadow stacks not initialized")
	}
	if rt.Reads.AllocPtr() < rt.Reads.Start() || rt.Reads.AllocPtr() > rt.Reads.End() {
		return newGcErr("collect_minor", 0, "read shadow stack alloc_ptr out of bounds")
	}
	if rt.Writes.AllocPtr() < rt.Writes.Start() || rt.Writes.AllocPtr() > rt.Writes.End() {
		return newGcErr("collect_minor", 0, "write shadow stack alloc_ptr out of bounds")
	}
	return nil
}

// copyToTospace switches the nursery into to-space, cauterizes every
// live write cursor, and then copies every live read cursor.
func (rt *Runtime) copyToTospace() error {
	rt.Nurs.SwitchToToSpace()
	rt.cauterizeWriters()
	return rt.copyReaders()
}

// cauterizeWriters writes CAUTERIZED, followed by the frame's own
// address, at every live write cursor so the copier knows where an
// unfinished value ends.
func (rt *Runtime) cauterizeWriters() {
	for _, frame := range rt.Writes.Frames() {
		ptr := frame.Ptr()
		after := WriteTag(ptr, TagCauterized)
		WriteAddr(after, frame.Addr())
	}
}

// copyReaders evacuates the value (or scalar) at every live read
// cursor, using the nursery to allocate to-space destinations and
// rewriting each frame's ptr to the copy's new location.
func (rt *Runtime) copyReaders() error {
	for _, frame := range rt.Reads.Frames() {
		datatype := frame.Datatype()
		info, ok := rt.Info.Lookup(datatype)
		if !ok {
			return newGcErr("copy_readers", datatype, "unknown datatype")
		}

		if info.IsScalar() {
			size := int64(info.ScalarWidth())
			dst, _, err := rt.Nurs.Malloc(size)
			if err != nil {
				return err
			}
			src := frame.Ptr()
			CopyBytes(dst, src, int(size))
			frame.SetPtr(dst)
			continue
		}

		dst, dstEnd, err := rt.Nurs.Malloc(int64(rt.Nurs.ChunkBytes()))
		if err != nil {
			return err
		}
		src := frame.Ptr()
		result, err := rt.CopyPacked(datatype, src, dst, dstEnd)
		if err != nil {
			return err
		}
		frame.SetPtr(dst)

		if rt.Metrics != nil {
			rt.Metrics.BytesCopied.Add(float64(int64(result.DstAfter) - int64(dst)))
		}

		// Every evacuated interval must end with a COPIED_TO; the
		// exceptions are the branches of CopyPacked that already
		// guarantee it or that require no trailing marker at all.
		switch {
		case result.Tag == nil:
		case *result.Tag == TagCauterized:
		case *result.Tag == TagCopiedTo:
		case *result.Tag == TagCopied:
		default:
			burn := WriteTag(result.SrcAfter, TagCopiedTo)
			WriteAddr(burn, result.DstAfter)
		}
	}
	return nil
}

// promoteToOldgen is a stub: the major/old-generation collector is out
// of scope here. It only logs and reports success, matching
// promote_to_oldgen in original_source/gibbon-rts/src/gc.rs.
func (rt *Runtime) promoteToOldgen() error {
	if rt.Metrics != nil {
		rt.Metrics.Promotions.Inc()
	}
	if rt.Config.DebugAssertions {
		rt.Log.Debug("promoting to older generation...")
	}
	return nil
}
