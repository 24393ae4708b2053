package multipart

import (
	"context"
	"io"
	"net/http"
)

// errSourceExhausted is the internal sentinel a ChunkSource returns (via
// io.EOF, normally — see NewReaderSource) to mean "no more chunks". It is
// never exposed to callers of this package.
var errSourceExhausted = io.EOF

// ChunkSource is the input contract: a finite, single-pass, lazy sequence
// of byte chunks (spec.md §3). Chunk boundaries carry no semantic meaning
// — any delimiter may be split across them. Next returns io.EOF (and a
// nil chunk) once the source is exhausted.
//
// This is the minimal seam this package needs from a platform request
// body; adapting an actual platform type (an *http.Request, a gRPC
// stream, …) to it is thin glue, explicitly out of the core's scope per
// spec.md §1 — see NewReaderSource and FromHTTPRequest below.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// readerSource adapts any io.Reader into a ChunkSource by reading
// chunkSize bytes at a time. Grounded on badu-http/mime/utils.go's
// stickyErrorReader: once the underlying reader returns an error, that
// same error is returned on every subsequent call rather than re-invoking
// Read (the io.Reader contract makes no promises about post-error calls,
// but this package, like the teacher's, does call Read again after a
// partial read).
type readerSource struct {
	r         io.Reader
	chunkSize int
	sticky    error
}

// NewReaderSource turns r into a ChunkSource that reads up to chunkSize
// bytes per Next call. chunkSize <= 0 defaults to 32KiB.
func NewReaderSource(r io.Reader, chunkSize int) ChunkSource {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	return &readerSource{r: r, chunkSize: chunkSize}
}

func (s *readerSource) Next(ctx context.Context) ([]byte, error) {
	if s.sticky != nil {
		return nil, s.sticky
	}
	if err := ctx.Err(); err != nil {
		s.sticky = err
		return nil, err
	}
	buf := make([]byte, s.chunkSize)
	n, err := s.r.Read(buf)
	if err != nil {
		s.sticky = err
	}
	if n == 0 {
		if err != nil {
			return nil, err
		}
		// A zero-byte, nil-error read is a valid (if unusual) io.Reader
		// response; ask again rather than spinning the caller's loop.
		return s.Next(ctx)
	}
	if err != nil && err != io.EOF {
		return buf[:n], err
	}
	return buf[:n], nil
}

// Request is the "request_like" collaborator of spec.md §6: anything
// exposing case-insensitive access to its Content-Type header and a body
// that is a lazy byte chunk stream.
type Request interface {
	Header(name string) string
	Body() ChunkSource
}

type httpRequest struct {
	req       *http.Request
	chunkSize int
}

// FromHTTPRequest adapts a standard library *http.Request into the
// Request collaborator Parse expects, reading its Body in chunkSize
// chunks (0 for the readerSource default). Thin glue, per spec.md §1.
func FromHTTPRequest(req *http.Request, chunkSize int) Request {
	return &httpRequest{req: req, chunkSize: chunkSize}
}

func (h *httpRequest) Header(name string) string {
	return h.req.Header.Get(name)
}

func (h *httpRequest) Body() ChunkSource {
	return NewReaderSource(h.req.Body, h.chunkSize)
}
