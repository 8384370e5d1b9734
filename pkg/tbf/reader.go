package tbf

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
)

// Reader implements the trailer-discovery and data-extraction protocol
// over any Source.
//
// The source holds one mutable cursor, so every operation runs under the
// reader's lock: concurrent calls against the same Reader serialise, and
// at most one remote fetch is in flight per source by construction. This
// is a deliberate simplification, and the scalability ceiling of one
// opened resource.
type Reader struct {
	mu  sync.Mutex
	src Source
}

// NewReader wraps a byte source. The reader takes over cursor management;
// the source must not be used directly afterwards.
func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// MetadataSize reads the trailer length from the 4 bytes preceding the
// trailing magic.
func (r *Reader) MetadataSize(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadataSize(ctx)
}

func (r *Reader) metadataSize(ctx context.Context) (int, error) {
	if _, err := r.src.Seek(-trailerFixedSize, io.SeekEnd); err != nil {
		return 0, err
	}
	var buf [4]byte
	if err := r.readFull(ctx, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(buf[:])), nil
}

// ReadMetadata verifies the leading magic, then fills buf with the trailer
// bytes and returns their count. buf must be at least MetadataSize bytes;
// the caller decodes the result with DecodeMetadata.
func (r *Reader) ReadMetadata(ctx context.Context, buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	var magic [magicSize]byte
	if err := r.readFull(ctx, magic[:]); err != nil {
		return 0, err
	}
	if string(magic[:]) != MagicTBF {
		return 0, fmt.Errorf("%w: leading sentinel", ErrBadMagic)
	}

	size, err := r.metadataSize(ctx)
	if err != nil {
		return 0, err
	}
	if len(buf) < size {
		return 0, fmt.Errorf("%w: trailer needs %d bytes, buffer has %d", ErrBufferTooSmall, size, len(buf))
	}

	if _, err := r.src.Seek(-(int64(size) + trailerFixedSize), io.SeekEnd); err != nil {
		return 0, err
	}
	if err := r.readFull(ctx, buf[:size]); err != nil {
		return 0, err
	}
	return size, nil
}

// ReadTensorData fills buf with the raw data block described by meta.
// No type or shape validation happens at this layer.
func (r *Reader) ReadTensorData(ctx context.Context, meta TensorMeta, buf []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if uint64(len(buf)) < meta.DataSize {
		return fmt.Errorf("%w: tensor %q needs %d bytes, buffer has %d",
			ErrBufferTooSmall, meta.Name, meta.DataSize, len(buf))
	}
	if meta.DataOffset > math.MaxInt64 {
		return fmt.Errorf("%w: data offset %d", ErrSeekOverflow, meta.DataOffset)
	}
	if _, err := r.src.Seek(int64(meta.DataOffset), io.SeekStart); err != nil {
		return err
	}
	return r.readFull(ctx, buf[:meta.DataSize])
}

// Size reports the total length of the underlying source.
func (r *Reader) Size() int64 {
	return r.src.Size()
}

// Close closes the underlying source.
func (r *Reader) Close() error {
	return r.src.Close()
}

// readFull reads exactly len(p) bytes from the source. Underlying errors
// (I/O, truncation) propagate unchanged.
func (r *Reader) readFull(ctx context.Context, p []byte) error {
	for len(p) > 0 {
		n, err := r.src.Read(ctx, p)
		p = p[n:]
		if len(p) == 0 {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
	}
	return nil
}
