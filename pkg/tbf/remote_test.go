package tbf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

// serveScenario exposes the scenario container over HTTP with full range
// request support.
func serveScenario(t *testing.T) (*httptest.Server, []byte) {
	t.Helper()
	raw, err := os.ReadFile(writeScenario(t))
	if err != nil {
		t.Fatalf("read container: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "scenario.tbuf", time.Time{}, bytes.NewReader(raw))
	}))
	t.Cleanup(srv.Close)
	return srv, raw
}

func TestRemoteMatchesLocal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv, _ := serveScenario(t)

	remote, err := Open(ctx, srv.URL+"/scenario.tbuf")
	if err != nil {
		t.Fatalf("open remote: %v", err)
	}
	defer func() { _ = remote.Close() }()

	local := openScenarioBuffers(t)

	for _, name := range []string{"1", "2"} {
		rt, err := ReadTensorByName[float32](ctx, remote, name)
		if err != nil {
			t.Fatalf("remote read %q: %v", name, err)
		}
		lt, err := ReadTensorByName[float32](ctx, local, name)
		if err != nil {
			t.Fatalf("local read %q: %v", name, err)
		}
		if !equalSlices(rt.Data, lt.Data) {
			t.Errorf("tensor %q: remote %v local %v", name, rt.Data, lt.Data)
		}
	}
}

func TestRemoteSourceSeekModes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv, raw := serveScenario(t)

	src, err := openRemote(ctx, srv.URL)
	if err != nil {
		t.Fatalf("open remote: %v", err)
	}
	defer func() { _ = src.Close() }()

	if src.Size() != int64(len(raw)) {
		t.Fatalf("size: got %d want %d", src.Size(), len(raw))
	}

	pos, err := src.Seek(-4, io.SeekEnd)
	if err != nil {
		t.Fatalf("seek from end: %v", err)
	}
	if pos != int64(len(raw))-4 {
		t.Fatalf("seek from end: got %d", pos)
	}
	tail := make([]byte, 4)
	if _, err := src.Read(ctx, tail); err != nil {
		t.Fatalf("read tail: %v", err)
	}
	if string(tail) != MagicTBF {
		t.Fatalf("tail bytes: got %q", tail)
	}

	pos, err = src.Seek(-int64(len(raw)), io.SeekCurrent)
	if err != nil {
		t.Fatalf("seek from current: %v", err)
	}
	if pos != 0 {
		t.Fatalf("seek from current: got %d", pos)
	}
	head := make([]byte, 4)
	if _, err := src.Read(ctx, head); err != nil {
		t.Fatalf("read head: %v", err)
	}
	if string(head) != MagicTBF {
		t.Fatalf("head bytes: got %q", head)
	}

	if _, err := src.Seek(-1, io.SeekStart); !errors.Is(err, ErrSeekOverflow) {
		t.Fatalf("negative position: expected ErrSeekOverflow, got %v", err)
	}

	// Seeking past the end is allowed; the next read reports end of data.
	if _, err := src.Seek(10, io.SeekEnd); err != nil {
		t.Fatalf("seek past end: %v", err)
	}
	if _, err := src.Read(ctx, head); err != io.EOF {
		t.Fatalf("read past end: expected io.EOF, got %v", err)
	}
}

func TestRemoteSizeDiscoveryFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// A raw response without a Content-Length header; the normal response
	// path would add one implicitly.
	noLength := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\n\r\n")
		_ = buf.Flush()
	}))
	t.Cleanup(noLength.Close)
	if _, err := openRemote(ctx, noLength.URL); !errors.Is(err, ErrTransport) {
		t.Errorf("missing length: expected ErrTransport, got %v", err)
	}

	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(notFound.Close)
	if _, err := openRemote(ctx, notFound.URL); !errors.Is(err, ErrTransport) {
		t.Errorf("not found: expected ErrTransport, got %v", err)
	}
}

func TestRemoteFetchFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "64")
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	src, err := openRemote(ctx, srv.URL)
	if err != nil {
		t.Fatalf("open remote: %v", err)
	}
	defer func() { _ = src.Close() }()

	if _, err := src.Read(ctx, make([]byte, 16)); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if src.offset != 0 {
		t.Fatalf("cursor moved on failed fetch: %d", src.offset)
	}
}

func TestRemoteReadHonorsContext(t *testing.T) {
	t.Parallel()

	srv, _ := serveScenario(t)

	src, err := openRemote(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("open remote: %v", err)
	}
	defer func() { _ = src.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Read(ctx, make([]byte, 4)); !errors.Is(err, ErrTransport) {
		t.Fatalf("cancelled read: expected ErrTransport wrapping, got %v", err)
	}
}
