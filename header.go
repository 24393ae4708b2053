package multipart

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Header is the case-insensitive, ordered-by-append, multi-valued mapping
// spec.md §3 describes: duplicate names are preserved as a list under the
// canonical key. Grounded on badu-http/hdr's Header map[string][]string,
// generalized to also retain every raw line (including the malformed,
// colon-less ones spec.md §4.2 says must not poison the part).
type Header struct {
	values map[string][]string
	Raw    []string
}

func newHeader() *Header {
	return &Header{values: make(map[string][]string)}
}

// NewHeader creates an empty Header for building one programmatically
// (e.g. MultipartWriter.CreatePart), rather than parsing one off the
// wire.
func NewHeader() *Header { return newHeader() }

// Add appends value to any existing values already associated with name.
func (h *Header) Add(name, value string) { h.add(name, value) }

// Set replaces any existing values associated with name with value alone.
func (h *Header) Set(name, value string) {
	h.values[canonicalHeaderKey(name)] = []string{value}
}

// Get returns the first value associated with name, or "" if absent.
// Case-insensitive, like net/http's Header.Get.
func (h *Header) Get(name string) string {
	v := h.values[canonicalHeaderKey(name)]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Values returns every value associated with name, preserving the order
// they appeared in the header block.
func (h *Header) Values(name string) []string {
	return h.values[canonicalHeaderKey(name)]
}

// Has reports whether name appeared at least once as an indexed
// (colon-bearing) header line.
func (h *Header) Has(name string) bool {
	_, ok := h.values[canonicalHeaderKey(name)]
	return ok
}

func (h *Header) add(name, value string) {
	key := canonicalHeaderKey(name)
	h.values[key] = append(h.values[key], value)
}

// canonicalHeaderKey folds ASCII case the same way net/http does, via
// httpguts for the token validity check (golang.org/x/net/http/httpguts
// is the modern sibling of the golang.org/x/net/lex/httplex package the
// teacher imports in src/http/conn.go and transport.go). Header names
// spec.md doesn't require us to reject are still canonicalized for
// lookup purposes even when not a strict RFC 7230 token.
func canonicalHeaderKey(s string) string {
	if !httpguts.ValidHeaderFieldName(s) {
		return strings.ToLower(s)
	}
	b := []byte(s)
	upper := true
	for i, c := range b {
		switch {
		case upper && 'a' <= c && c <= 'z':
			b[i] = c - ('a' - 'A')
		case !upper && 'A' <= c && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
		upper = c == '-'
	}
	return string(b)
}

// parseHeaderBlock splits a header block (the bytes between the
// delimiter's trailing CRLF and the terminating CRLFCRLF, CRLFCRLF itself
// excluded) on CRLF into lines, each split on the first ':' into
// (name, value), per spec.md §4.2.1. The value is trimmed of leading and
// trailing linear whitespace. A line without a ':' is kept in Raw but not
// indexed — this is a policy choice, not an error (spec.md §4.2/§7):
// malformed headers degrade gracefully to null derived-accessors rather
// than poisoning the whole part.
func parseHeaderBlock(block []byte) *Header {
	h := newHeader()
	for _, line := range splitCRLFLines(block) {
		h.Raw = append(h.Raw, string(line))
		idx := indexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := string(line[:idx])
		value := string(trimLWS(line[idx+1:]))
		h.add(name, value)
	}
	return h
}

func splitCRLFLines(block []byte) [][]byte {
	var lines [][]byte
	for len(block) > 0 {
		if i := indexCRLF(block); i >= 0 {
			lines = append(lines, block[:i])
			block = block[i+2:]
		} else {
			lines = append(lines, block)
			break
		}
	}
	return lines
}

func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// trimLWS trims leading/trailing linear whitespace (0x20, 0x09) per
// spec.md's glossary definition of LWS.
func trimLWS(b []byte) []byte {
	i := 0
	for i < len(b) && isLWS(b[i]) {
		i++
	}
	j := len(b)
	for j > i && isLWS(b[j-1]) {
		j--
	}
	return b[i:j]
}

func isLWS(b byte) bool { return b == ' ' || b == '\t' }
