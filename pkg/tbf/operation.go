package tbf

// OpKind enumerates the closed set of operation kinds understood by the
// caller's execution engine. This layer stores and returns them only.
type OpKind uint32

const (
	OpNone OpKind = iota
	OpIdentity
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMatMul
)

func (k OpKind) String() string {
	switch k {
	case OpNone:
		return "none"
	case OpIdentity:
		return "identity"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMatMul:
		return "matmul"
	}
	return "unknown"
}

// Operation is one node of a static computation DAG: its inputs are other
// operation ids, its output is a tensor id. The graph is never validated
// for acyclicity or dangling ids here.
type Operation struct {
	ID              uint64
	Kind            OpKind
	InputOperations []uint64
	Output          uint64
}

func (o Operation) meta() OperationMeta {
	return OperationMeta{
		ID:              o.ID,
		Kind:            o.Kind,
		InputOperations: o.InputOperations,
		Output:          o.Output,
	}
}

// OperationFromMeta rebuilds an Operation from its persisted record.
func OperationFromMeta(m OperationMeta) Operation {
	return Operation{
		ID:              m.ID,
		Kind:            m.Kind,
		InputOperations: m.InputOperations,
		Output:          m.Output,
	}
}
