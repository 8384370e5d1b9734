package tbf

// DType identifies a tensor's element encoding.
// On-disk values are stable forever; add new values only.
type DType uint32

const (
	DTypeUnknown DType = iota
	DTypeI8
	DTypeI16
	DTypeI32
	DTypeI64
	DTypeU8
	DTypeU16
	DTypeU32
	DTypeU64
	DTypeF32
	DTypeF64
)

// Element is the closed set of scalar types a tensor may carry.
type Element interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// DTypeOf returns the tag for the static element type T.
func DTypeOf[T Element]() DType {
	var z T
	switch any(z).(type) {
	case int8:
		return DTypeI8
	case int16:
		return DTypeI16
	case int32:
		return DTypeI32
	case int64:
		return DTypeI64
	case uint8:
		return DTypeU8
	case uint16:
		return DTypeU16
	case uint32:
		return DTypeU32
	case uint64:
		return DTypeU64
	case float32:
		return DTypeF32
	case float64:
		return DTypeF64
	}
	return DTypeUnknown
}

// Size returns the element byte width, or 0 for DTypeUnknown.
func (d DType) Size() int {
	switch d {
	case DTypeI8, DTypeU8:
		return 1
	case DTypeI16, DTypeU16:
		return 2
	case DTypeI32, DTypeU32, DTypeF32:
		return 4
	case DTypeI64, DTypeU64, DTypeF64:
		return 8
	}
	return 0
}

func (d DType) String() string {
	switch d {
	case DTypeI8:
		return "i8"
	case DTypeI16:
		return "i16"
	case DTypeI32:
		return "i32"
	case DTypeI64:
		return "i64"
	case DTypeU8:
		return "u8"
	case DTypeU16:
		return "u16"
	case DTypeU32:
		return "u32"
	case DTypeU64:
		return "u64"
	case DTypeF32:
		return "f32"
	case DTypeF64:
		return "f64"
	}
	return "unknown"
}

// ParseDType maps a dtype name back to its tag. It accepts the names
// produced by String.
func ParseDType(s string) (DType, bool) {
	for d := DTypeI8; d <= DTypeF64; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return DTypeUnknown, false
}
