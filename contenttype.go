package multipart

import (
	"mime"
	"strings"
)

// IsMultipart reports whether contentType names a "multipart/*" media
// type, parameters ignored, case-insensitively. Entry point 1 of
// spec.md §6.
func IsMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Fall back to a prefix check: ParseMediaType rejects some
		// inputs a case-insensitive caller would still consider
		// "obviously multipart/…" (e.g. trailing garbage after a
		// malformed parameter), and spec.md only asks that the media
		// type *begin with* "multipart/".
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "multipart/")
	}
	return strings.HasPrefix(mediaType, "multipart/")
}

// GetBoundary returns the boundary parameter of a multipart Content-Type
// header, honoring RFC 2045 quoted-string unescaping (stdlib
// mime.ParseMediaType already does this — see badu-http/mime/utils.go's
// MIMEParseMediaType, which this package follows the same delegate-to-
// stdlib policy as). Entry point 2 of spec.md §6. Returns ("", false) if
// the media type isn't multipart/* or carries no boundary parameter.
func GetBoundary(contentType string) (string, bool) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", false
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return "", false
	}
	return boundary, true
}
