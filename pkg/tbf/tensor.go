package tbf

// Tensor is an in-memory view of one tensor's elements.
//
// On the write path Data borrows caller memory for the duration of the
// write. Tensors returned by ReadTensor own their data. Tensors returned
// by the mapped reader borrow from the mapping and are valid only until
// File.Close.
type Tensor[T Element] struct {
	ID    uint64
	Name  string
	Shape []int
	Data  []T
}

// NewTensor builds a tensor whose identity is the fingerprint of its name.
func NewTensor[T Element](name string, data []T, shape []int) Tensor[T] {
	return Tensor[T]{
		ID:    Fingerprint(name),
		Name:  name,
		Shape: shape,
		Data:  data,
	}
}

// NewTensorWithID builds a tensor with a caller-supplied identity.
func NewTensorWithID[T Element](id uint64, name string, data []T, shape []int) Tensor[T] {
	return Tensor[T]{
		ID:    id,
		Name:  name,
		Shape: shape,
		Data:  data,
	}
}

// DType returns the element kind tag of the tensor's static type.
func (t Tensor[T]) DType() DType {
	return DTypeOf[T]()
}

// ByteSize returns the length of the tensor's data in bytes.
func (t Tensor[T]) ByteSize() int {
	return len(t.Data) * elemSize[T]()
}
