package multipart

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// MultipartWriter generates multipart messages — the reverse direction
// of this package's core, useful for building fixtures and round-trip
// tests of the reader. Grounded on badu-http/mime/multipart_writer.go
// and mime/types.go's part/Writer, adapted onto this package's own
// boundary-character validation (unchanged from the teacher — it already
// follows RFC 2046 §5.1.1).
type MultipartWriter struct {
	w        io.Writer
	boundary string
	lastpart *writerPart
}

type writerPart struct {
	mw     *MultipartWriter
	closed bool
}

// NewMultipartWriter returns a Writer with a random boundary, writing to w.
func NewMultipartWriter(w io.Writer) *MultipartWriter {
	var buf [30]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		panic(err)
	}
	return &MultipartWriter{w: w, boundary: fmt.Sprintf("%x", buf[:])}
}

// Boundary returns the Writer's boundary.
func (w *MultipartWriter) Boundary() string { return w.boundary }

// SetBoundary overrides the Writer's default randomly-generated boundary.
// Must be called before any parts are created.
func (w *MultipartWriter) SetBoundary(boundary string) error {
	if w.lastpart != nil {
		return errors.New("multipart: SetBoundary called after write")
	}
	if len(boundary) < 1 || len(boundary) > 70 {
		return errors.New("multipart: invalid boundary length")
	}
	end := len(boundary) - 1
	for i, b := range boundary {
		if 'A' <= b && b <= 'Z' || 'a' <= b && b <= 'z' || '0' <= b && b <= '9' {
			continue
		}
		switch b {
		case '\'', '(', ')', '+', '_', ',', '-', '.', '/', ':', '=', '?':
			continue
		case ' ':
			if i != end {
				continue
			}
		}
		return errors.New("multipart: invalid boundary character")
	}
	w.boundary = boundary
	return nil
}

// FormDataContentType returns the Content-Type for a multipart/form-data
// message using this Writer's boundary.
func (w *MultipartWriter) FormDataContentType() string {
	return "multipart/form-data; boundary=" + w.boundary
}

// CreatePart creates a new part with the given header; the header's
// values should already be in their final wire form (no quoting is
// applied beyond what escapeQuotes does for CreateFormFile/CreateFormField).
// Takes this package's own Header type — the same type a reader parses a
// part's header block into — rather than a bare map.
func (w *MultipartWriter) CreatePart(header *Header) (io.Writer, error) {
	if w.lastpart != nil {
		if err := w.lastpart.close(); err != nil {
			return nil, err
		}
	}
	var b bytes.Buffer
	if w.lastpart != nil {
		fmt.Fprintf(&b, "\r\n--%s\r\n", w.boundary)
	} else {
		fmt.Fprintf(&b, "--%s\r\n", w.boundary)
	}

	keys := make([]string, 0, len(header.values))
	for k := range header.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range header.values[k] {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	fmt.Fprintf(&b, "\r\n")
	if _, err := io.Copy(w.w, &b); err != nil {
		return nil, err
	}
	p := &writerPart{mw: w}
	w.lastpart = p
	return p, nil
}

// CreateFormFile is a convenience around CreatePart for a form-data file
// field.
func (w *MultipartWriter) CreateFormFile(fieldname, filename string) (io.Writer, error) {
	h := NewHeader()
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(fieldname), escapeQuotes(filename)))
	h.Set("Content-Type", "application/octet-stream")
	return w.CreatePart(h)
}

// CreateFormField is a convenience around CreatePart for a form-data
// value field.
func (w *MultipartWriter) CreateFormField(fieldname string) (io.Writer, error) {
	h := NewHeader()
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(fieldname)))
	return w.CreatePart(h)
}

// WriteField calls CreateFormField and writes value to it.
func (w *MultipartWriter) WriteField(fieldname, value string) error {
	p, err := w.CreateFormField(fieldname)
	if err != nil {
		return err
	}
	_, err = p.Write([]byte(value))
	return err
}

// Close finishes the message, writing the close-delimiter.
func (w *MultipartWriter) Close() error {
	if w.lastpart != nil {
		if err := w.lastpart.close(); err != nil {
			return err
		}
		w.lastpart = nil
	}
	_, err := fmt.Fprintf(w.w, "\r\n--%s--\r\n", w.boundary)
	return err
}

func (p *writerPart) Write(b []byte) (int, error) {
	if p.closed {
		return 0, errors.New("multipart: write to closed part")
	}
	return p.mw.w.Write(b)
}

func (p *writerPart) close() error {
	p.closed = true
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
