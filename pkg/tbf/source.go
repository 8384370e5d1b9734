package tbf

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source is a seekable byte source a Reader operates on. The set of
// implementations is closed: local files and remote HTTP resources.
//
// A Source holds one mutable cursor and is not safe for concurrent use on
// its own; Reader serialises access to it.
type Source interface {
	io.Closer

	// Read fills p from the current cursor and advances it by the number
	// of bytes read. Remote sources may block on network I/O; ctx cancels
	// an in-flight fetch. At end of the resource it returns 0, io.EOF.
	Read(ctx context.Context, p []byte) (int, error)

	// Seek updates the logical cursor without performing I/O. whence is
	// io.SeekStart, io.SeekCurrent or io.SeekEnd. Arithmetic that
	// over- or underflows fails with ErrSeekOverflow.
	Seek(offset int64, whence int) (int64, error)

	// Size reports the total byte length of the resource, known at open.
	Size() int64
}

// OpenSource opens url as a byte source. "file://" paths open local files;
// "https://" (and "http://") resources are fetched lazily via range
// requests. Any other prefix fails with ErrUnsupportedScheme.
func OpenSource(ctx context.Context, url string) (Source, error) {
	switch {
	case strings.HasPrefix(url, "file://"):
		return openLocal(strings.TrimPrefix(url, "file://"))
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		return openRemote(ctx, url)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, url)
	}
}

// localSource delegates read/seek to the underlying file.
type localSource struct {
	f    *os.File
	size int64
}

func openLocal(path string) (*localSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &localSource{f: f, size: stat.Size()}, nil
}

func (s *localSource) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.f.Read(p)
}

func (s *localSource) Seek(offset int64, whence int) (int64, error) {
	pos, err := s.f.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSeekOverflow, err)
	}
	return pos, nil
}

func (s *localSource) Size() int64 {
	return s.size
}

func (s *localSource) Close() error {
	return s.f.Close()
}
