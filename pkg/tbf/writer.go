package tbf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Writer serialises tensors and operations into a container in one forward
// pass. Data offsets are tracked with a running cursor; the sink is never
// sought, so any sequential io.Writer works.
//
// The writer performs no partial-file cleanup on failure. Callers needing
// atomicity should write to a temporary path and rename afterwards.
type Writer struct {
	w       io.Writer
	cursor  uint64
	started bool
	closed  bool
	err     error

	tensors []TensorMeta
	ops     []OperationMeta
}

// NewWriter creates a writer targeting the given sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Add appends tensors to the container, emitting their raw bytes
// immediately and recording their offsets for the trailer. Tensors are
// homogeneous per call; mix element types across calls.
//
// A non-nil shape whose element count disagrees with the data length is
// rejected. A nil shape is treated as unspecified and accepted.
func Add[T Element](w *Writer, tensors ...Tensor[T]) error {
	for _, t := range tensors {
		if t.Shape != nil && shapeElems(t.Shape)*elemSize[T]() != t.ByteSize() {
			return fmt.Errorf("%w: tensor %q: shape %v wants %d bytes, data has %d",
				ErrSizeMismatch, t.Name, t.Shape, shapeElems(t.Shape)*elemSize[T](), t.ByteSize())
		}
		meta := TensorMeta{
			ID:    t.ID,
			Name:  t.Name,
			DType: DTypeOf[T](),
			Shape: shapeToU32(t.Shape),
		}
		if err := w.appendBlock(meta, elemsToBytes(t.Data)); err != nil {
			return err
		}
	}
	return nil
}

// AddRaw appends a tensor whose payload is already encoded as little-endian
// bytes of the given kind. Repackers use this to move data between
// containers without retyping it. The id is the fingerprint of name.
func (w *Writer) AddRaw(name string, dtype DType, shape []int, data []byte) error {
	es := dtype.Size()
	if es == 0 {
		return fmt.Errorf("%w: tensor %q: dtype %s", ErrTypeMismatch, name, dtype)
	}
	if len(data)%es != 0 {
		return fmt.Errorf("%w: tensor %q: %d bytes is not a multiple of element size %d",
			ErrSizeMismatch, name, len(data), es)
	}
	if shape != nil && shapeElems(shape)*es != len(data) {
		return fmt.Errorf("%w: tensor %q: shape %v wants %d bytes, data has %d",
			ErrSizeMismatch, name, shape, shapeElems(shape)*es, len(data))
	}
	meta := TensorMeta{
		ID:    Fingerprint(name),
		Name:  name,
		DType: dtype,
		Shape: shapeToU32(shape),
	}
	return w.appendBlock(meta, data)
}

// AddOperations records operation graph nodes for the trailer. The graph
// is stored as-is; no validation is performed.
func (w *Writer) AddOperations(ops ...Operation) error {
	if err := w.usable(); err != nil {
		return err
	}
	for _, op := range ops {
		w.ops = append(w.ops, op.meta())
	}
	return nil
}

// Finish builds and emits the trailer, its size field and the trailing
// magic, then flushes the sink. The writer must not be used afterwards.
func (w *Writer) Finish() error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := w.begin(); err != nil {
		return err
	}
	w.closed = true

	trailer, err := EncodeMetadata(&Metadata{
		Version:    FormatVersion,
		Tensors:    w.tensors,
		Operations: w.ops,
	})
	if err != nil {
		return w.fail(err)
	}
	if err := writeFull(w.w, trailer); err != nil {
		return w.fail(err)
	}

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(trailer)))
	if err := writeFull(w.w, size[:]); err != nil {
		return w.fail(err)
	}
	if err := writeFull(w.w, []byte(MagicTBF)); err != nil {
		return w.fail(err)
	}
	return w.flush()
}

func (w *Writer) appendBlock(meta TensorMeta, raw []byte) error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := w.begin(); err != nil {
		return err
	}
	meta.DataOffset = w.cursor
	meta.DataSize = uint64(len(raw))
	if err := writeFull(w.w, raw); err != nil {
		return w.fail(err)
	}
	w.cursor += uint64(len(raw))
	w.tensors = append(w.tensors, meta)
	return nil
}

// begin emits the leading magic on first use.
func (w *Writer) begin() error {
	if w.started {
		return nil
	}
	if err := writeFull(w.w, []byte(MagicTBF)); err != nil {
		return w.fail(err)
	}
	w.started = true
	w.cursor = magicSize
	return nil
}

func (w *Writer) usable() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return fmt.Errorf("tbf: writer already finished")
	}
	return nil
}

// fail records the first sink error; all later calls return it unchanged.
func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}

// WriteFile writes a container to path in one shot. build populates the
// writer through Add, AddRaw and AddOperations; Finish runs afterwards.
// The file is assembled at a temporary path and renamed into place, so a
// failed build never leaves a partial container behind.
func WriteFile(path string, build func(*Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	w := NewWriter(f)
	if err := build(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Finish(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (w *Writer) flush() error {
	switch s := w.w.(type) {
	case *os.File:
		return s.Sync()
	case interface{ Flush() error }:
		return s.Flush()
	}
	return nil
}
