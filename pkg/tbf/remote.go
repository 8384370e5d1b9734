package tbf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// remoteSource models a virtual cursor over an HTTP resource. The total
// size is discovered once at open through a HEAD request; each Read issues
// exactly one range GET for the bytes it needs. Seeking only moves the
// cursor and never performs I/O.
type remoteSource struct {
	url    string
	client *http.Client
	size   int64
	offset int64

	// base is cancelled by Close, aborting any in-flight fetch.
	base   context.Context
	cancel context.CancelFunc
}

func openRemote(ctx context.Context, url string) (*remoteSource, error) {
	client := &http.Client{}
	size, err := fetchSize(ctx, client, url)
	if err != nil {
		return nil, err
	}
	base, cancel := context.WithCancel(context.Background())
	return &remoteSource{
		url:    url,
		client: client,
		size:   size,
		base:   base,
		cancel: cancel,
	}, nil
}

// fetchSize discovers the resource length from the Content-Length header
// of a HEAD response. Opening fails if the size cannot be determined.
func fetchSize(ctx context.Context, client *http.Client, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: HEAD %s: %v", ErrTransport, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: HEAD %s: status %s", ErrTransport, url, resp.Status)
	}
	cl := resp.Header.Get("Content-Length")
	if cl == "" {
		return 0, fmt.Errorf("%w: HEAD %s: missing Content-Length", ErrTransport, url)
	}
	size, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: HEAD %s: invalid Content-Length %q", ErrTransport, url, cl)
	}
	return size, nil
}

func (s *remoteSource) Read(ctx context.Context, p []byte) (int, error) {
	remaining := s.size - s.offset
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := int64(len(p))
	if n > remaining {
		n = remaining
	}

	got, err := s.fetchRange(ctx, p[:n])
	// The cursor advances only by bytes actually received.
	s.offset += int64(got)
	if err != nil {
		return got, err
	}
	slog.Debug("tbf: range fetch", "url", s.url, "offset", s.offset-int64(got), "bytes", got)
	return got, nil
}

// fetchRange issues one GET with a byte-range header for exactly len(p)
// bytes at the current cursor. Cancelling ctx or closing the source aborts
// the request; no partial bytes are reported beyond those already copied.
func (s *remoteSource) fetchRange(ctx context.Context, p []byte) (int, error) {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.base, cancel)
	defer stop()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	start := s.offset
	end := s.offset + int64(len(p)) - 1
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: GET %s: %v", ErrTransport, s.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: GET %s range %d-%d: status %s", ErrTransport, s.url, start, end, resp.Status)
	}

	got, err := io.ReadFull(resp.Body, p)
	if err == io.ErrUnexpectedEOF && got > 0 {
		// Short range response; the caller retries from the new cursor.
		return got, nil
	}
	if err != nil {
		return got, fmt.Errorf("%w: GET %s: read body: %v", ErrTransport, s.url, err)
	}
	return got, nil
}

func (s *remoteSource) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = s.offset
	case io.SeekEnd:
		base = s.size
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", ErrSeekOverflow, whence)
	}

	next := base + offset
	if (offset > 0 && next < base) || (offset < 0 && next > base) || next < 0 {
		return 0, fmt.Errorf("%w: seek %d from base %d", ErrSeekOverflow, offset, base)
	}
	s.offset = next
	return next, nil
}

func (s *remoteSource) Size() int64 {
	return s.size
}

// Close aborts any in-flight fetch and invalidates the source.
func (s *remoteSource) Close() error {
	s.cancel()
	return nil
}
