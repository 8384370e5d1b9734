package tbf

import (
	"io"
	"unsafe"
)

func elemSize[T Element]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// elemsToBytes reinterprets a typed slice as raw bytes without copying.
// Valid only on little-endian hosts, matching the on-disk encoding.
func elemsToBytes[T Element](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	n := len(s) * elemSize[T]()
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n)
}

// bytesToElems reinterprets raw bytes as a typed slice without copying.
// The caller must have checked len(b) % elemSize == 0. Element starts may
// be unaligned; supported targets tolerate unaligned scalar loads.
func bytesToElems[T Element](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/elemSize[T]())
}

func shapeToU32(shape []int) []uint32 {
	if len(shape) == 0 {
		return nil
	}
	out := make([]uint32, len(shape))
	for i, d := range shape {
		out[i] = uint32(d)
	}
	return out
}

func shapeElems(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
