package tbf

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// TensorBuffers provides cached, typed access to a container through a
// streaming Reader. The trailer is fetched and decoded at most once per
// session; every later lookup resolves against the cached tables and only
// data fetches touch the source again.
type TensorBuffers struct {
	r *Reader

	// once is the single {unparsed -> parsing -> parsed} transition for
	// the trailer cache. Concurrent first accesses block on it; losers
	// observe the winner's result.
	once sync.Once
	md   *Metadata
	byID []TensorMeta // sorted by id
	ops  map[uint64]OperationMeta
	err  error
}

// NewTensorBuffers wraps an opened byte source. Closing the returned
// session closes the source.
func NewTensorBuffers(src Source) *TensorBuffers {
	return &TensorBuffers{r: NewReader(src)}
}

// Open resolves url (file:// or https://) and opens it as a session.
func Open(ctx context.Context, url string) (*TensorBuffers, error) {
	src, err := OpenSource(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewTensorBuffers(src), nil
}

// Close releases the underlying source, aborting any in-flight fetch.
func (tb *TensorBuffers) Close() error {
	return tb.r.Close()
}

func (tb *TensorBuffers) metadata(ctx context.Context) (*Metadata, error) {
	tb.once.Do(func() {
		size, err := tb.r.MetadataSize(ctx)
		if err != nil {
			tb.err = err
			return
		}
		buf := make([]byte, size)
		if _, err := tb.r.ReadMetadata(ctx, buf); err != nil {
			tb.err = err
			return
		}
		md, err := DecodeMetadata(buf)
		if err != nil {
			tb.err = err
			return
		}

		byID := make([]TensorMeta, len(md.Tensors))
		copy(byID, md.Tensors)
		sort.Slice(byID, func(i, j int) bool { return byID[i].ID < byID[j].ID })

		ops := make(map[uint64]OperationMeta, len(md.Operations))
		for _, op := range md.Operations {
			ops[op.ID] = op
		}

		tb.md = md
		tb.byID = byID
		tb.ops = ops
	})
	return tb.md, tb.err
}

// Metadata returns the decoded trailer root, fetching it on first call.
// The caller must not mutate the result.
func (tb *TensorBuffers) Metadata(ctx context.Context) (*Metadata, error) {
	return tb.metadata(ctx)
}

// Version returns the container's format version string.
func (tb *TensorBuffers) Version(ctx context.Context) (string, error) {
	md, err := tb.metadata(ctx)
	if err != nil {
		return "", err
	}
	return md.Version, nil
}

// TensorMeta looks up a tensor record by id.
func (tb *TensorBuffers) TensorMeta(ctx context.Context, id uint64) (TensorMeta, error) {
	if _, err := tb.metadata(ctx); err != nil {
		return TensorMeta{}, err
	}
	i := sort.Search(len(tb.byID), func(i int) bool { return tb.byID[i].ID >= id })
	if i < len(tb.byID) && tb.byID[i].ID == id {
		return tb.byID[i], nil
	}
	return TensorMeta{}, fmt.Errorf("%w: tensor id %d", ErrNotFound, id)
}

// TensorMetaByName fingerprints name to an id and looks that up. Distinct
// names that fingerprint-collide are indistinguishable.
func (tb *TensorBuffers) TensorMetaByName(ctx context.Context, name string) (TensorMeta, error) {
	meta, err := tb.TensorMeta(ctx, Fingerprint(name))
	if err != nil {
		return TensorMeta{}, fmt.Errorf("%w: tensor %q", ErrNotFound, name)
	}
	return meta, nil
}

// OperationMeta looks up an operation record by id.
func (tb *TensorBuffers) OperationMeta(ctx context.Context, id uint64) (OperationMeta, error) {
	if _, err := tb.metadata(ctx); err != nil {
		return OperationMeta{}, err
	}
	op, ok := tb.ops[id]
	if !ok {
		return OperationMeta{}, fmt.Errorf("%w: operation id %d", ErrNotFound, id)
	}
	return op, nil
}

// Operation looks up an operation by id and rebuilds its in-memory value.
func (tb *TensorBuffers) Operation(ctx context.Context, id uint64) (Operation, error) {
	op, err := tb.OperationMeta(ctx, id)
	if err != nil {
		return Operation{}, err
	}
	return OperationFromMeta(op), nil
}

// ReadRaw fetches the raw data block for a tensor record. The returned
// buffer is owned by the caller.
func (tb *TensorBuffers) ReadRaw(ctx context.Context, meta TensorMeta) ([]byte, error) {
	end := meta.DataOffset + meta.DataSize
	if end < meta.DataOffset || end > uint64(tb.r.Size()) {
		return nil, fmt.Errorf("%w: tensor %q data range [%d, %d) exceeds resource of %d bytes",
			ErrCorrupt, meta.Name, meta.DataOffset, end, tb.r.Size())
	}
	buf := make([]byte, meta.DataSize)
	if err := tb.r.ReadTensorData(ctx, meta, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadTensor fetches exactly one tensor's byte range by id and returns it
// reinterpreted as elements of T. The returned tensor owns its data.
func ReadTensor[T Element](ctx context.Context, tb *TensorBuffers, id uint64) (Tensor[T], error) {
	meta, err := tb.TensorMeta(ctx, id)
	if err != nil {
		return Tensor[T]{}, err
	}
	return readTensor[T](ctx, tb, meta)
}

// ReadTensorByName resolves name by fingerprint, then reads by id.
func ReadTensorByName[T Element](ctx context.Context, tb *TensorBuffers, name string) (Tensor[T], error) {
	meta, err := tb.TensorMetaByName(ctx, name)
	if err != nil {
		return Tensor[T]{}, err
	}
	return readTensor[T](ctx, tb, meta)
}

func readTensor[T Element](ctx context.Context, tb *TensorBuffers, meta TensorMeta) (Tensor[T], error) {
	if want := DTypeOf[T](); meta.DType != want {
		return Tensor[T]{}, fmt.Errorf("%w: tensor %q stored as %s, requested as %s",
			ErrTypeMismatch, meta.Name, meta.DType, want)
	}
	if meta.DataSize%uint64(elemSize[T]()) != 0 {
		return Tensor[T]{}, fmt.Errorf("%w: tensor %q: %d bytes is not a multiple of element size %d",
			ErrSizeMismatch, meta.Name, meta.DataSize, elemSize[T]())
	}
	raw, err := tb.ReadRaw(ctx, meta)
	if err != nil {
		return Tensor[T]{}, err
	}
	return Tensor[T]{
		ID:    meta.ID,
		Name:  meta.Name,
		Shape: meta.ShapeInts(),
		Data:  bytesToElems[T](raw),
	}, nil
}
