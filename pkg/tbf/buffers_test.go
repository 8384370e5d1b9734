package tbf

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func openScenarioBuffers(t *testing.T) *TensorBuffers {
	t.Helper()
	tb, err := Open(context.Background(), "file://"+writeScenario(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = tb.Close() })
	return tb
}

func TestTensorBuffersLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tb := openScenarioBuffers(t)

	byName, err := tb.TensorMetaByName(ctx, "1")
	if err != nil {
		t.Fatalf("lookup by name: %v", err)
	}
	byID, err := tb.TensorMeta(ctx, Fingerprint("1"))
	if err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if byName.ID != byID.ID || byName.DataOffset != byID.DataOffset {
		t.Fatalf("name and id lookups disagree: %+v vs %+v", byName, byID)
	}

	if _, err := tb.TensorMetaByName(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing tensor: expected ErrNotFound, got %v", err)
	}

	version, err := tb.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != FormatVersion {
		t.Fatalf("version: got %q want %q", version, FormatVersion)
	}
}

func TestTensorBuffersReadTensor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tb := openScenarioBuffers(t)

	tens, err := ReadTensorByName[float32](ctx, tb, "2")
	if err != nil {
		t.Fatalf("read tensor: %v", err)
	}
	if !equalSlices(tens.Data, []float32{4, 5, 6}) {
		t.Fatalf("tensor data: got %v", tens.Data)
	}
	if !equalSlices(tens.Shape, []int{3}) {
		t.Fatalf("tensor shape: got %v", tens.Shape)
	}

	if _, err := ReadTensorByName[float64](ctx, tb, "2"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("wrong kind: expected ErrTypeMismatch, got %v", err)
	}
}

func TestTensorBuffersOperations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tb := openScenarioBuffers(t)

	op, err := tb.Operation(ctx, 1)
	if err != nil {
		t.Fatalf("operation lookup: %v", err)
	}
	if op.Kind != OpNone {
		t.Fatalf("operation kind: got %s", op.Kind)
	}
	if op.Output != Fingerprint("1") {
		t.Fatalf("operation output: got %d", op.Output)
	}
	if len(op.InputOperations) != 0 {
		t.Fatalf("operation inputs: got %v", op.InputOperations)
	}

	if _, err := tb.OperationMeta(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing operation: expected ErrNotFound, got %v", err)
	}
}

func TestTensorBuffersReadRawBounds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tb := openScenarioBuffers(t)

	crafted := TensorMeta{Name: "evil", DType: DTypeF32, DataOffset: 4, DataSize: 1 << 40}
	if _, err := tb.ReadRaw(ctx, crafted); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("out-of-bounds record: expected ErrCorrupt, got %v", err)
	}
}

func TestTensorBuffersConcurrentMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tb := openScenarioBuffers(t)

	var wg sync.WaitGroup
	results := make([]*Metadata, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			md, err := tb.Metadata(ctx)
			if err != nil {
				t.Errorf("metadata: %v", err)
				return
			}
			results[i] = md
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("metadata decoded more than once")
		}
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "ftp://example.com/model.tbuf"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}
