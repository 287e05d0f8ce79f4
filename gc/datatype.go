package gc

// Datatype is an index into the info table, externally assigned by the
// compiler/runtime bootstrap that installs constructor layouts.
type Datatype uint32

// Tag is a one-byte packed constructor discriminator. Surface data
// constructors must be assigned tags in 0..=250; the five values above
// that are reserved for the collector's in-band metadata.
type Tag uint8

// Reserved tags. These must never be used by a surface constructor;
// info_table_insert_packed_dcon rejects registrations that try.
const (
	TagRedirection Tag = 255
	TagIndirection Tag = 254
	TagCauterized  Tag = 253
	TagCopiedTo    Tag = 252
	TagCopied      Tag = 251

	// MaxSurfaceTag is the highest tag value a compiler targeting this
	// runtime may assign to a surface constructor.
	MaxSurfaceTag Tag = 250
)

func isReservedTag(t Tag) bool {
	return t >= TagCopied
}

// PtrSize is the width, in bytes, of every in-band pointer the collector
// writes or reads: redirection/indirection/forwarding targets and the
// shadow-stack-frame address stashed behind a CAUTERIZED tag.
const PtrSize = 8

// DataconInfo describes the layout of one data constructor: the width of
// its immediate scalar prefix, how many scalar and packed fields it has,
// and the datatype of each packed child in layout order.
type DataconInfo struct {
	ScalarBytes uint8
	NumScalars  uint8
	NumPacked   uint8
	FieldTys    []Datatype
}

// DatatypeInfo is one info-table entry: either a scalar of a fixed
// width, or a packed type with one DataconInfo per constructor tag.
type DatatypeInfo struct {
	isScalar    bool
	scalarWidth uint8
	packed      map[Tag]DataconInfo
}

// IsScalar reports whether this entry describes a scalar datatype.
func (d *DatatypeInfo) IsScalar() bool { return d.isScalar }

// ScalarWidth returns the byte width of a scalar entry. Only meaningful
// when IsScalar reports true.
func (d *DatatypeInfo) ScalarWidth() uint8 { return d.scalarWidth }

// Dacon looks up the layout record for a constructor tag of a packed
// entry. Only meaningful when IsScalar reports false.
func (d *DatatypeInfo) Dacon(tag Tag) (DataconInfo, bool) {
	info, ok := d.packed[tag]
	return info, ok
}
