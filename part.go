package multipart

import (
	"fmt"
	"io"
	"mime"
	"strings"

	_ "golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// PartStream is the per-part handle surfaced to the caller (spec.md §4.3):
// its Headers plus a lazy payload Reader, coordinated with the scanner so
// the outer iteration cannot desynchronize. Grounded on
// badu-http/mime/part.go + single_part.go's FormName/FileName/
// parseContentDisposition, which already solved the derived-view problem
// this type needs — kept as-is, since header-parameter parsing is an
// external collaborator per spec.md §1.
type PartStream struct {
	// Headers is the raw, case-insensitive header mapping parsed from
	// this part's header block.
	Headers *Header

	session *Session

	dispositionParsed bool
	disposition       string
	dispositionParams map[string]string

	pending      []byte
	scannerFinal bool
	eofReached   bool
}

// Name returns the "name" Content-Disposition parameter when the
// disposition type is "form-data", or "" otherwise — spec.md §3's
// derived view.
func (p *PartStream) Name() string {
	disposition, params := p.contentDisposition()
	if disposition != "form-data" {
		return ""
	}
	return params["name"]
}

// Filename returns the "filename" Content-Disposition parameter, or ""
// if absent.
func (p *PartStream) Filename() string {
	_, params := p.contentDisposition()
	return params["filename"]
}

// IsFile reports whether Filename is non-empty.
func (p *PartStream) IsFile() bool {
	return p.Filename() != ""
}

// MediaType returns the part's Content-Type, parameters stripped, or ""
// if the header is absent or unparsable.
func (p *PartStream) MediaType() string {
	ct := p.Headers.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mt
}

func (p *PartStream) contentDisposition() (string, map[string]string) {
	if p.dispositionParsed {
		return p.disposition, p.dispositionParams
	}
	p.dispositionParsed = true
	v := p.Headers.Get("Content-Disposition")
	disposition, params, err := mime.ParseMediaType(v)
	if err != nil {
		p.dispositionParams = map[string]string{}
		return "", p.dispositionParams
	}
	p.disposition = disposition
	p.dispositionParams = params
	return disposition, params
}

// Body returns the part's payload as an io.Reader. Equivalent to using
// the PartStream itself as an io.Reader (it implements Read directly,
// the way badu-http/mime/part.go's Part does) — Body exists so callers
// can name the stream the way spec.md §4.3 does.
func (p *PartStream) Body() io.Reader { return p }

// Read implements io.Reader over the part's payload, pulling fresh
// payload chunks from the scanner as needed. Per spec.md §4.3, reading
// the body a second time after it has been fully drained (or discarded)
// returns ErrStreamAlreadyConsumed rather than replaying or repeating
// io.EOF silently.
func (p *PartStream) Read(d []byte) (int, error) {
	if p.eofReached {
		return 0, newError(StreamAlreadyConsumed, "part body already fully consumed")
	}
	if p.session.closed {
		return 0, io.ErrClosedPipe
	}
	for len(p.pending) == 0 && !p.scannerFinal {
		chunk, err := p.session.scan.nextPayloadChunk(p.session.ctx)
		if err != nil {
			p.eofReached = true
			p.session.fail(err)
			return 0, err
		}
		p.pending = chunk.data
		p.scannerFinal = chunk.final
	}
	if len(p.pending) == 0 {
		p.eofReached = true
		return 0, io.EOF
	}
	n := copy(d, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Bytes concatenates the part's Body in full. Per spec.md §8 property 4,
// calling Bytes (or Text, or reading Body directly) a second time raises
// ErrStreamAlreadyConsumed.
func (p *PartStream) Bytes() ([]byte, error) {
	return io.ReadAll(p)
}

// Text decodes the part's Body as charset (IANA name, e.g. "iso-8859-1"),
// defaulting to UTF-8 when charset is empty — spec.md §4.3's text()
// convenience, generalized from a fixed utf-8 default to any charset the
// x/text IANA index knows, since a real Content-Type can legitimately
// name one. Never applied automatically: callers who want the payload
// bytes verbatim use Bytes or Body directly, matching spec.md's
// Non-goal against forced charset conversion.
func (p *PartStream) Text(charset string) (string, error) {
	data, err := p.Bytes()
	if err != nil {
		return "", err
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return string(data), nil
	}
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		return "", fmt.Errorf("multipart: unknown charset %q: %w", charset, err)
	}
	if enc == nil {
		return "", fmt.Errorf("multipart: no decoder registered for charset %q", charset)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("multipart: charset decode failed: %w", err)
	}
	return string(decoded), nil
}

// discard drops any remaining, unread payload bytes so the outer
// iteration can safely advance to the next part without desynchronizing
// the stream — spec.md §4.3's coordination contract. A no-op if the part
// was already fully consumed.
func (p *PartStream) discard() error {
	if p.eofReached {
		return nil
	}
	p.pending = nil
	if !p.scannerFinal {
		if err := p.session.scan.discardActivePayload(p.session.ctx); err != nil {
			p.eofReached = true
			return err
		}
	}
	p.eofReached = true
	return nil
}
