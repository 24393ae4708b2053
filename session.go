package multipart

import (
	"context"
	"io"
	"iter"

	"github.com/google/uuid"
)

// Session is the parse session of spec.md §3's Lifecycle: it owns the
// ChunkSource and ChunkBuffer and drives the scanner to yield PartStream
// handles in wire order. Created by Parse; destroyed when iteration
// completes, the caller calls Close, or a fatal error is raised — in all
// three cases the underlying ChunkSource is released.
type Session struct {
	ctx     context.Context
	id      string
	buf     *ChunkBuffer
	scan    *scanner
	current *PartStream
	closed  bool
	metrics *Metrics
}

// Parse parses req as a multipart/* body (spec.md §6's entry point 3).
// NotMultipart and MissingBoundary are the only errors this function
// itself returns — every other failure surfaces later, from Next or a
// PartStream's Body, at the suspension point where it's detected
// (spec.md §7).
func Parse(ctx context.Context, req Request, opts ...Option) (*Session, error) {
	contentType := req.Header("Content-Type")
	if !IsMultipart(contentType) {
		return nil, newError(NotMultipart, "request content-type is not multipart/*")
	}
	boundary, ok := GetBoundary(contentType)
	if !ok {
		return nil, newError(MissingBoundary, "content-type has no boundary parameter")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id := uuid.NewString()
	buf := newChunkBuffer(req.Body())
	scan := newScanner(buf, boundary, cfg.maxHeaderSize, cfg.maxFileSize, cfg.logger, id)
	return &Session{ctx: ctx, id: id, buf: buf, scan: scan, metrics: cfg.metrics}, nil
}

// ParseReader is a convenience over Parse for callers who already have a
// plain io.Reader and a Content-Type string rather than a full Request
// (e.g. in tests, or reading from something that isn't an *http.Request).
// It is where WithChunkSize's value actually applies, via NewReaderSource.
func ParseReader(ctx context.Context, r io.Reader, contentType string, opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	req := &readerRequest{contentType: contentType, body: NewReaderSource(r, cfg.chunkSize)}
	return Parse(ctx, req, opts...)
}

type readerRequest struct {
	contentType string
	body        ChunkSource
}

func (r *readerRequest) Header(name string) string {
	if name == "Content-Type" || equalFoldASCII(name, "content-type") {
		return r.contentType
	}
	return ""
}

func (r *readerRequest) Body() ChunkSource { return r.body }

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Next returns the next part, or (nil, nil) once the close-delimiter has
// been seen and the epilogue discarded. The caller must not hold on to a
// previous PartStream after calling Next again — per spec.md §4.3's
// coordination contract, Next first fully drains or discards it.
func (s *Session) Next() (*PartStream, error) {
	if s.closed {
		return nil, nil
	}
	if s.current != nil {
		if err := s.current.discard(); err != nil {
			s.fail(err)
			return nil, err
		}
		s.current = nil
	}

	header, err := s.scan.advanceToNextPart(s.ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	if header == nil {
		s.finish()
		return nil, nil
	}

	part := &PartStream{session: s, Headers: header}
	s.current = part
	if s.metrics != nil {
		s.metrics.observePart(s.id)
	}
	return part, nil
}

// Parts returns a Go 1.23 range-over-func view of the session, for
// `for part, err := range session.Parts() { ... }` callers. Breaking out
// of the range early abandons the session (spec.md §5's cancellation
// semantics) the same as calling Close would.
func (s *Session) Parts() iter.Seq2[*PartStream, error] {
	return func(yield func(*PartStream, error) bool) {
		for {
			part, err := s.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if part == nil {
				return
			}
			if !yield(part, nil) {
				_ = s.Close()
				return
			}
		}
	}
}

// Close abandons the session: the underlying ChunkSource is released and
// no further reads occur. Per spec.md §5, cancellation does not drain or
// back-pressure the source — it is simply abandoned. Safe to call more
// than once, and safe to call after normal completion.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.current = nil
	s.buf.release()
	return nil
}

func (s *Session) fail(err error) {
	if s.metrics != nil {
		if pe, ok := AsParseError(err); ok {
			s.metrics.observeError(s.id, pe.Kind)
		}
	}
	_ = s.Close()
}

func (s *Session) finish() {
	_ = s.Close()
}
