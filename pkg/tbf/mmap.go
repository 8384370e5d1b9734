package tbf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/sys/unix"
)

// File is a container opened through a read-only memory mapping. It is the
// synchronous fast path for local files: the trailer is decoded once at
// open, and tensor data is returned as zero-copy views into the mapping.
//
// The mapping is immutable and safe for concurrent readers without
// coordination. Views returned from it are valid only until Close.
type File struct {
	data    []byte
	md      *Metadata
	byID    []TensorMeta // sorted by id for binary-search lookup
	mmapped bool
}

// OpenFile maps a container read-only and validates its structure.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned file must be closed to release any mapping.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 <= 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorrupt)
	}
	if size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, fmt.Errorf("%w: file too large to map", ErrCorrupt)
	}
	size := int(size64)
	if size < trailerFixedSize {
		return nil, fmt.Errorf("%w: %d bytes is below the minimum container size", ErrCorrupt, size)
	}

	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		mf, parseErr := parseContainer(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return mf, nil
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseContainer(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseContainer(data []byte, mmapped bool) (*File, error) {
	if len(data) < trailerFixedSize {
		return nil, fmt.Errorf("%w: truncated container", ErrCorrupt)
	}
	if string(data[:magicSize]) != MagicTBF {
		return nil, fmt.Errorf("%w: leading sentinel", ErrBadMagic)
	}
	if string(data[len(data)-magicSize:]) != MagicTBF {
		return nil, fmt.Errorf("%w: trailing sentinel", ErrBadMagic)
	}

	trailerSize := int64(binary.LittleEndian.Uint32(data[len(data)-trailerFixedSize : len(data)-magicSize]))
	trailerStart := int64(len(data)) - trailerSize - trailerFixedSize
	if trailerStart < magicSize {
		return nil, fmt.Errorf("%w: trailer size %d out of bounds", ErrCorrupt, trailerSize)
	}

	md, err := DecodeMetadata(data[trailerStart : int64(len(data))-trailerFixedSize])
	if err != nil {
		return nil, err
	}

	byID := make([]TensorMeta, len(md.Tensors))
	copy(byID, md.Tensors)
	sort.Slice(byID, func(i, j int) bool { return byID[i].ID < byID[j].ID })

	return &File{
		data:    data,
		md:      md,
		byID:    byID,
		mmapped: mmapped,
	}, nil
}

// Close releases the mapping. All views previously returned become invalid.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.data)
	}
	f.data = nil
	f.md = nil
	f.byID = nil
	f.mmapped = false
	return err
}

// Version returns the trailer's format version string.
func (f *File) Version() string {
	return f.md.Version
}

// Metadata returns the decoded trailer root. The caller must not mutate it.
func (f *File) Metadata() *Metadata {
	return f.md
}

// NumTensors returns the length of the tensor table.
func (f *File) NumTensors() int {
	return len(f.md.Tensors)
}

// TensorMetaAt returns the tensor record at table position i.
func (f *File) TensorMetaAt(i int) (TensorMeta, error) {
	if i < 0 || i >= len(f.md.Tensors) {
		return TensorMeta{}, fmt.Errorf("%w: tensor index %d (table has %d)", ErrNotFound, i, len(f.md.Tensors))
	}
	return f.md.Tensors[i], nil
}

// TensorMeta looks up a tensor record by id.
func (f *File) TensorMeta(id uint64) (TensorMeta, error) {
	i := sort.Search(len(f.byID), func(i int) bool { return f.byID[i].ID >= id })
	if i < len(f.byID) && f.byID[i].ID == id {
		return f.byID[i], nil
	}
	return TensorMeta{}, fmt.Errorf("%w: tensor id %d", ErrNotFound, id)
}

// TensorMetaByName looks up a tensor record by the fingerprint of its name.
func (f *File) TensorMetaByName(name string) (TensorMeta, error) {
	meta, err := f.TensorMeta(Fingerprint(name))
	if err != nil {
		return TensorMeta{}, fmt.Errorf("%w: tensor %q", ErrNotFound, name)
	}
	return meta, nil
}

// OperationMeta looks up an operation record by id.
func (f *File) OperationMeta(id uint64) (OperationMeta, error) {
	for _, op := range f.md.Operations {
		if op.ID == id {
			return op, nil
		}
	}
	return OperationMeta{}, fmt.Errorf("%w: operation id %d", ErrNotFound, id)
}

// tensorBytes returns the raw data block for a tensor record, bounds-checked
// against the mapping.
func (f *File) tensorBytes(meta TensorMeta) ([]byte, error) {
	end := meta.DataOffset + meta.DataSize
	if end < meta.DataOffset || end > uint64(len(f.data)) {
		return nil, fmt.Errorf("%w: tensor %q data range [%d, %d) exceeds mapping of %d bytes",
			ErrCorrupt, meta.Name, meta.DataOffset, end, len(f.data))
	}
	return f.data[meta.DataOffset:end], nil
}

// MappedTensor returns a zero-copy typed view of the tensor with the given
// id. The view borrows from the mapping and is valid until f.Close.
func MappedTensor[T Element](f *File, id uint64) (Tensor[T], error) {
	meta, err := f.TensorMeta(id)
	if err != nil {
		return Tensor[T]{}, err
	}
	return mappedTensor[T](f, meta)
}

// MappedTensorAt is the positional variant of MappedTensor.
func MappedTensorAt[T Element](f *File, i int) (Tensor[T], error) {
	meta, err := f.TensorMetaAt(i)
	if err != nil {
		return Tensor[T]{}, err
	}
	return mappedTensor[T](f, meta)
}

// MappedTensorByName resolves name by fingerprint, then reads by id.
func MappedTensorByName[T Element](f *File, name string) (Tensor[T], error) {
	meta, err := f.TensorMetaByName(name)
	if err != nil {
		return Tensor[T]{}, err
	}
	return mappedTensor[T](f, meta)
}

func mappedTensor[T Element](f *File, meta TensorMeta) (Tensor[T], error) {
	if want := DTypeOf[T](); meta.DType != want {
		return Tensor[T]{}, fmt.Errorf("%w: tensor %q stored as %s, requested as %s",
			ErrTypeMismatch, meta.Name, meta.DType, want)
	}
	raw, err := f.tensorBytes(meta)
	if err != nil {
		return Tensor[T]{}, err
	}
	if len(raw)%elemSize[T]() != 0 {
		return Tensor[T]{}, fmt.Errorf("%w: tensor %q: %d bytes is not a multiple of element size %d",
			ErrSizeMismatch, meta.Name, len(raw), elemSize[T]())
	}
	return Tensor[T]{
		ID:    meta.ID,
		Name:  meta.Name,
		Shape: meta.ShapeInts(),
		Data:  bytesToElems[T](raw),
	}, nil
}
