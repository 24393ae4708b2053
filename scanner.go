package multipart

import (
	"context"

	"go.uber.org/zap"
)

// scanState is the BoundaryScanner's state, per spec.md §4.2.
type scanState int

const (
	stateScanPreamble scanState = iota
	stateScanHeaderBlock
	stateScanPayload
	stateTerminated
)

func (s scanState) String() string {
	switch s {
	case stateScanPreamble:
		return "preamble"
	case stateScanHeaderBlock:
		return "header-block"
	case stateScanPayload:
		return "part-payload"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// dashBoundarySuffix is what followed a dash-boundary (or, mid-stream, a
// delimiter): either the part continues into a header block, or the
// close-delimiter's "--" was seen and the session is done.
type dashBoundarySuffix int

const (
	suffixHeaderBlockFollows dashBoundarySuffix = iota
	suffixTerminated
)

// scanner is the BoundaryScanner of spec.md §4.2: it drives a ChunkBuffer
// through Preamble → HeaderBlock → PartPayload → Terminated, recognizing
// dash-boundary/delimiter/close-delimiter patterns exactly as spec.md §3
// defines them. Grounded on badu-http/mime/multipart_reader.go's
// NextPart/isFinalBoundary/IsBoundaryDelimiterLine and
// badu-http/mime/utils.go's scanUntilBoundary/matchAfterPrefix, restated
// around ChunkBuffer.IndexOf instead of bufio.Reader.Peek.
type scanner struct {
	buf *ChunkBuffer

	dashBoundary []byte // "--boundary"
	delimiter    []byte // "\r\n--boundary"
	crlfcrlf     []byte // "\r\n\r\n"

	state scanState

	maxHeaderSize int
	maxFileSize   int64
	partBytes     int64

	log       *zap.Logger
	sessionID string
}

func newScanner(buf *ChunkBuffer, boundary string, maxHeaderSize int, maxFileSize int64, log *zap.Logger, sessionID string) *scanner {
	dashBoundary := append([]byte("--"), boundary...)
	delimiter := append([]byte("\r\n"), dashBoundary...)
	return &scanner{
		buf:           buf,
		dashBoundary:  dashBoundary,
		delimiter:     delimiter,
		crlfcrlf:      []byte("\r\n\r\n"),
		state:         stateScanPreamble,
		maxHeaderSize: maxHeaderSize,
		maxFileSize:   maxFileSize,
		log:           log,
		sessionID:     sessionID,
	}
}

func (s *scanner) setState(next scanState) {
	if s.log != nil {
		s.log.Debug("multipart: state transition",
			zap.String("session", s.sessionID),
			zap.Stringer("from", s.state),
			zap.Stringer("to", next),
		)
	}
	s.state = next
}

// advanceToNextPart runs the scanner until a new part's Header is ready,
// or the session is Terminated (header == nil, err == nil), or a fatal
// error occurs. The caller (Session) is responsible for having already
// fully drained or discarded the previous part's payload — see
// discardActivePayload, which Session calls first.
func (s *scanner) advanceToNextPart(ctx context.Context) (*Header, error) {
	switch s.state {
	case stateTerminated:
		return nil, nil
	case stateScanPreamble:
		if err := s.scanPreamble(ctx); err != nil {
			return nil, err
		}
	case stateScanPayload:
		// Defensive: Session enforces the coordination contract, but if
		// we're ever asked to advance mid-payload, drain it first rather
		// than desynchronizing the stream.
		if err := s.discardActivePayload(ctx); err != nil {
			return nil, err
		}
	}

	if s.state == stateTerminated {
		return nil, nil
	}
	return s.scanHeaderBlock(ctx)
}

// scanPreamble discards bytes until the first dash-boundary, per spec.md
// §4.2's Preamble state.
func (s *scanner) scanPreamble(ctx context.Context) error {
	keep := len(s.dashBoundary) - 1
	for {
		if idx := s.buf.IndexOf(s.dashBoundary, 0); idx >= 0 {
			s.buf.DropPrefix(idx + len(s.dashBoundary))
			suffix, err := s.scanDashBoundarySuffix(ctx)
			if err != nil {
				return err
			}
			if suffix == suffixTerminated {
				s.setState(stateTerminated)
			} else {
				s.setState(stateScanHeaderBlock)
			}
			return nil
		}
		if s.buf.Len() > keep {
			s.buf.DropPrefix(s.buf.Len() - keep)
		}
		ok, err := s.buf.Pull(ctx)
		if err != nil {
			return wrapError(MissingInitialBoundary, "stream ended before the first dash-boundary", err)
		}
		if !ok {
			return newError(MissingInitialBoundary, "stream ended before the first dash-boundary")
		}
	}
}

// scanDashBoundarySuffix reads the bytes immediately after a dash-boundary
// (optional linear whitespace, then CRLF or "--"), per spec.md §4.2.
func (s *scanner) scanDashBoundarySuffix(ctx context.Context) (dashBoundarySuffix, error) {
	for {
		i := 0
		for i < s.buf.Len() && isLWS(s.buf.ByteAt(i)) {
			i++
		}
		if i < s.buf.Len() {
			switch s.buf.ByteAt(i) {
			case '-':
				if i+1 < s.buf.Len() {
					if s.buf.ByteAt(i+1) != '-' {
						return 0, newError(MalformedDelimiter, "dash-boundary followed by a lone '-'")
					}
					s.buf.DropPrefix(i + 2)
					return suffixTerminated, nil
				}
			case '\r':
				if i+1 < s.buf.Len() {
					if s.buf.ByteAt(i+1) != '\n' {
						return 0, newError(MalformedDelimiter, "dash-boundary followed by bare CR")
					}
					s.buf.DropPrefix(i + 2)
					return suffixHeaderBlockFollows, nil
				}
			default:
				return 0, newError(MalformedDelimiter, "dash-boundary followed by neither CRLF nor '--'")
			}
		}
		ok, err := s.buf.Pull(ctx)
		if err != nil {
			return 0, wrapError(UnexpectedEnd, "stream ended mid-delimiter", err)
		}
		if !ok {
			return 0, newError(UnexpectedEnd, "stream ended mid-delimiter")
		}
	}
}

// scanHeaderBlock accumulates bytes until CRLFCRLF, per spec.md §4.2's
// HeaderBlock state, enforcing maxHeaderSize along the way.
func (s *scanner) scanHeaderBlock(ctx context.Context) (*Header, error) {
	for {
		if idx := s.buf.IndexOf(s.crlfcrlf, 0); idx >= 0 {
			// The limit is on header-block size, not on how the bytes
			// happened to arrive: raise it here too, even though the whole
			// block (and its terminator) is already buffered, so chunking
			// can't change the outcome (spec.md §4.2, §8 chunk-invariance).
			if idx > s.maxHeaderSize {
				return nil, newError(HeaderTooLarge, "header block exceeded maxHeaderSize without a terminating blank line")
			}
			block := make([]byte, idx)
			copy(block, s.buf.Slice(0, idx))
			s.buf.DropPrefix(idx + len(s.crlfcrlf))
			header := parseHeaderBlock(block)
			for _, raw := range header.Raw {
				if indexByte([]byte(raw), ':') < 0 && s.log != nil {
					s.log.Warn("multipart: header line without a colon; kept raw, not indexed",
						zap.String("session", s.sessionID),
						zap.String("line", raw),
					)
				}
			}
			s.partBytes = 0
			s.setState(stateScanPayload)
			return header, nil
		}
		// No terminator yet: one found later starts at or after
		// Len()-len(crlfcrlf)+1, so only past that point is the block
		// certain to exceed the limit however the rest arrives.
		if s.buf.Len()-(len(s.crlfcrlf)-1) > s.maxHeaderSize {
			return nil, newError(HeaderTooLarge, "header block exceeded maxHeaderSize without a terminating blank line")
		}
		ok, err := s.buf.Pull(ctx)
		if err != nil {
			return nil, wrapError(UnexpectedEnd, "stream ended mid-header-block", err)
		}
		if !ok {
			return nil, newError(UnexpectedEnd, "stream ended mid-header-block")
		}
	}
}

// payloadChunk is what nextPayloadChunk hands back: either more safe
// payload bytes (final == false, call again) or the part's last bytes
// (final == true, the scanner has already moved past the delimiter and
// resolved the next state).
type payloadChunk struct {
	data  []byte
	final bool
}

// nextPayloadChunk implements spec.md §4.2's PartPayload tick: it either
// emits the safe prefix (everything except the last len(delimiter)-1
// bytes, which might be a split delimiter) or, on finding the delimiter,
// emits the final chunk and resolves the following state.
func (s *scanner) nextPayloadChunk(ctx context.Context) (payloadChunk, error) {
	for {
		if idx := s.buf.IndexOf(s.delimiter, 0); idx >= 0 {
			data, err := s.accountPayload(s.buf.Slice(0, idx))
			if err != nil {
				return payloadChunk{}, err
			}
			s.buf.DropPrefix(idx + len(s.delimiter))
			suffix, err := s.scanDashBoundarySuffix(ctx)
			if err != nil {
				return payloadChunk{}, err
			}
			if suffix == suffixTerminated {
				s.setState(stateTerminated)
			} else {
				s.setState(stateScanHeaderBlock)
			}
			return payloadChunk{data: data, final: true}, nil
		}

		safe := s.buf.Len() - (len(s.delimiter) - 1)
		if safe > 0 {
			data, err := s.accountPayload(s.buf.Slice(0, safe))
			if err != nil {
				return payloadChunk{}, err
			}
			s.buf.DropPrefix(safe)
			return payloadChunk{data: data}, nil
		}

		ok, err := s.buf.Pull(ctx)
		if err != nil {
			return payloadChunk{}, wrapError(UnexpectedEnd, "stream ended mid-payload before a close-delimiter", err)
		}
		if !ok {
			return payloadChunk{}, newError(UnexpectedEnd, "stream ended mid-payload before a close-delimiter")
		}
	}
}

// accountPayload enforces maxFileSize against the running byte counter
// before returning a copy of buf (the slice aliases the ChunkBuffer and
// would be invalidated by the next DropPrefix/Pull). Per spec.md §4.2,
// the overshoot itself is never emitted: the error is raised instead.
func (s *scanner) accountPayload(buf []byte) ([]byte, error) {
	if s.partBytes+int64(len(buf)) > s.maxFileSize {
		return nil, newError(PartTooLarge, "part payload would exceed maxFileSize")
	}
	s.partBytes += int64(len(buf))
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// discardActivePayload drains and drops the remainder of the active
// part's payload without handing any of it to a caller, per spec.md
// §4.3's PartStream.discard semantics.
func (s *scanner) discardActivePayload(ctx context.Context) error {
	for s.state == stateScanPayload {
		if _, err := s.nextPayloadChunk(ctx); err != nil {
			return err
		}
	}
	return nil
}
