package tbf

import "errors"

var (
	// ErrBadMagic reports a missing or altered magic sentinel.
	ErrBadMagic = errors.New("tbf: invalid magic bytes")

	// ErrCorrupt reports a structurally invalid container: truncated or
	// unparseable trailer, or an offset/size outside the file bounds.
	ErrCorrupt = errors.New("tbf: corrupt container")

	// ErrBufferTooSmall reports a caller buffer smaller than required.
	ErrBufferTooSmall = errors.New("tbf: buffer too small")

	// ErrSizeMismatch reports a data length that disagrees with the element
	// size or the declared shape.
	ErrSizeMismatch = errors.New("tbf: data size mismatch")

	// ErrTypeMismatch reports a requested element kind that differs from
	// the stored kind.
	ErrTypeMismatch = errors.New("tbf: element type mismatch")

	// ErrNotFound reports an id or fingerprinted name absent from the
	// trailer's tables.
	ErrNotFound = errors.New("tbf: not found")

	// ErrTransport reports a remote fetch failure: non-success HTTP status,
	// missing size header, or a send/receive error.
	ErrTransport = errors.New("tbf: transport failure")

	// ErrUnsupportedScheme reports a resource URL with an unknown prefix.
	ErrUnsupportedScheme = errors.New("tbf: unsupported URL scheme")

	// ErrSeekOverflow reports seek arithmetic that over- or underflows the
	// logical cursor.
	ErrSeekOverflow = errors.New("tbf: seek offset overflow")
)
