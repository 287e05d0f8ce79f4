package gc

// InfoTable is the process-wide, write-once-per-key registry mapping a
// datatype identifier to its layout: either a fixed scalar width, or a
// constructor-tag-indexed set of packed layouts. Entries live from
// registration through process end. A registered constructor layout is
// never replaced: re-registering a constructor key is an error. Scalar
// entries, by contrast, are overwritten by a repeated InsertScalar.
//
// Grounded on the HashMap<C_GibDatatype, DatatypeInfo> global in
// original_source/gibbon-rts/src/gc.rs, threaded here as an explicit
// struct rather than a OnceCell static so more than one table can
// exist in a process.
type InfoTable struct {
	initialized bool
	entries     map[Datatype]*DatatypeInfo
}

// NewInfoTable allocates an uninitialized info table. Callers must call
// Initialize before registering or looking up entries.
func NewInfoTable() *InfoTable {
	return &InfoTable{}
}

// Initialize allocates the empty table. Calling it twice is an error.
func (t *InfoTable) Initialize() error {
	if t.initialized {
		return newInfoTableErr("initialize", 0, "info table already initialized")
	}
	t.entries = make(map[Datatype]*DatatypeInfo)
	t.initialized = true
	return nil
}

func (t *InfoTable) requireInitialized(op string) error {
	if !t.initialized {
		return newInfoTableErr(op, 0, "info table not initialized")
	}
	return nil
}

// InsertScalar registers (or overwrites) a scalar-width entry for
// datatype.
func (t *InfoTable) InsertScalar(datatype Datatype, width uint8) error {
	if err := t.requireInitialized("insert_scalar"); err != nil {
		return err
	}
	t.entries[datatype] = &DatatypeInfo{isScalar: true, scalarWidth: width}
	return nil
}

// InsertPackedDcon creates or extends the packed entry for datatype with
// a layout record for tag. Fails if datatype is already registered as a
// scalar, if tag is already present for this datatype, or if tag falls
// in the reserved 251..=255 range.
func (t *InfoTable) InsertPackedDcon(
	datatype Datatype,
	tag Tag,
	scalarBytes, numScalars, numPacked uint8,
	fieldTys []Datatype,
) error {
	if err := t.requireInitialized("insert_packed_dcon"); err != nil {
		return err
	}
	if isReservedTag(tag) {
		return newInfoTableTagErr("insert_packed_dcon", datatype, tag,
			"tag is reserved for collector metadata; surface constructors must use tags 0..=250")
	}

	entry, ok := t.entries[datatype]
	if !ok {
		entry = &DatatypeInfo{packed: make(map[Tag]DataconInfo)}
		t.entries[datatype] = entry
	}
	if entry.isScalar {
		return newInfoTableErr("insert_packed_dcon", datatype,
			"expected a packed info-table entry, got scalar")
	}
	if entry.packed == nil {
		entry.packed = make(map[Tag]DataconInfo)
	}
	if _, exists := entry.packed[tag]; exists {
		return newInfoTableTagErr("insert_packed_dcon", datatype, tag,
			"data constructor already present in the info table")
	}
	fts := make([]Datatype, len(fieldTys))
	copy(fts, fieldTys)
	entry.packed[tag] = DataconInfo{
		ScalarBytes: scalarBytes,
		NumScalars:  numScalars,
		NumPacked:   numPacked,
		FieldTys:    fts,
	}
	return nil
}

// Lookup returns the read-only entry for datatype. Absence is reported
// to the caller, which surfaces it as a GcError at copy time.
func (t *InfoTable) Lookup(datatype Datatype) (*DatatypeInfo, bool) {
	if !t.initialized {
		return nil, false
	}
	info, ok := t.entries[datatype]
	return info, ok
}
