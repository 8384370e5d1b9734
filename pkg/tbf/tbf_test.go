package tbf

import (
	"os"
	"path/filepath"
	"testing"
)

// writeScenario builds the canonical two-tensor container used across the
// reader tests: float32 "1" = [1 2 3] and "2" = [4 5 6], both shape [3],
// plus one operation whose output is tensor "1".
func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.tbuf")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	w := NewWriter(f)
	err = Add(w,
		NewTensor("1", []float32{1.0, 2.0, 3.0}, []int{3}),
		NewTensor("2", []float32{4.0, 5.0, 6.0}, []int{3}),
	)
	if err != nil {
		t.Fatalf("add tensors: %v", err)
	}
	err = w.AddOperations(Operation{
		ID:     1,
		Kind:   OpNone,
		Output: Fingerprint("1"),
	})
	if err != nil {
		t.Fatalf("add operations: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
