// Package tbf implements the TensorBuffers container format.
//
// A TensorBuffers container packs named, typed, shaped tensors (plus an
// optional operation graph) into one contiguous blob with a trailing
// metadata index, so that individual tensors can be fetched selectively
// without deserialising the whole file. The format is readable both from a
// memory-mapped local file and from a remote HTTP resource via range
// requests.
//
// Layout, little-endian throughout:
//
//	[4B magic] [tensor data blocks...] [trailer] [4B trailer size u32] [4B magic]
//
// The trailer is the only eagerly-decoded structure; tensor bytes are
// located exclusively through the offsets it records.
package tbf

// Format constants. These must never change.
const (
	// MagicTBF is the 4-byte sentinel at both ends of every container.
	MagicTBF = "TBUF"

	// FormatVersion is the free-text version string recorded in the trailer.
	FormatVersion = "1.0.0"
)

const (
	magicSize = 4

	// trailerFixedSize covers the trailer size field plus the trailing magic.
	trailerFixedSize = 8
)
