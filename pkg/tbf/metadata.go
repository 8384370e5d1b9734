package tbf

import (
	"fmt"

	"github.com/goccy/go-json"
)

// TensorMeta is the persisted index record for one tensor.
//
// DataOffset/DataSize are the single source of truth for locating tensor
// bytes. Readers must never infer placement from data-block order or
// adjacency.
type TensorMeta struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	// DType is the stored element kind tag.
	DType DType `json:"dtype"`
	// DataOffset is an absolute byte offset from the start of the file.
	DataOffset uint64 `json:"data_offset"`
	// DataSize is the byte length of the tensor's data block.
	DataSize uint64 `json:"data_size"`
	// Shape dims are widened to u32 on disk.
	Shape []uint32 `json:"shape,omitempty"`
}

// ShapeInts returns the shape widened back to native ints.
func (t TensorMeta) ShapeInts() []int {
	if len(t.Shape) == 0 {
		return nil
	}
	out := make([]int, len(t.Shape))
	for i, d := range t.Shape {
		out[i] = int(d)
	}
	return out
}

// OperationMeta is the persisted record for one node of the operation
// graph. No cross-referential integrity (cycle freedom, dangling ids) is
// checked at this layer.
type OperationMeta struct {
	ID              uint64   `json:"id"`
	Kind            OpKind   `json:"kind"`
	InputOperations []uint64 `json:"input_operations,omitempty"`
	Output          uint64   `json:"output"`
}

// Metadata is the trailer root. It is the only structure decoded eagerly;
// everything else in a container is resolved lazily per request.
type Metadata struct {
	Version    string          `json:"version"`
	Tensors    []TensorMeta    `json:"tensors,omitempty"`
	Operations []OperationMeta `json:"operations,omitempty"`
}

// EncodeMetadata serialises a trailer root to its on-disk bytes.
func EncodeMetadata(md *Metadata) ([]byte, error) {
	out, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("%w: encode trailer: %v", ErrCorrupt, err)
	}
	return out, nil
}

// DecodeMetadata parses trailer bytes produced by EncodeMetadata.
func DecodeMetadata(raw []byte) (*Metadata, error) {
	md := new(Metadata)
	if err := json.Unmarshal(raw, md); err != nil {
		return nil, fmt.Errorf("%w: decode trailer: %v", ErrCorrupt, err)
	}
	return md, nil
}
