package multipart

import "testing"

func TestParseHeaderBlockBasic(t *testing.T) {
	block := []byte("Content-Disposition: form-data; name=\"f\"\r\n" +
		"Content-Type: text/plain\r\n" +
		"X-Multi: one\r\n" +
		"X-Multi: two\r\n")
	h := parseHeaderBlock(block)

	if got := h.Get("content-disposition"); got != `form-data; name="f"` {
		t.Fatalf("Get(content-disposition) = %q", got)
	}
	if got := h.Get("CONTENT-TYPE"); got != "text/plain" {
		t.Fatalf("Get(CONTENT-TYPE) = %q", got)
	}
	if vals := h.Values("x-multi"); len(vals) != 2 || vals[0] != "one" || vals[1] != "two" {
		t.Fatalf("Values(x-multi) = %v", vals)
	}
	if !h.Has("Content-Type") {
		t.Fatalf("Has(Content-Type) = false")
	}
	if h.Has("X-Absent") {
		t.Fatalf("Has(X-Absent) = true")
	}
	if len(h.Raw) != 4 {
		t.Fatalf("Raw = %v, want 4 lines", h.Raw)
	}
}

func TestParseHeaderBlockMalformedLineKeptRaw(t *testing.T) {
	block := []byte("NoColonHere\r\nContent-Type: text/plain\r\n")
	h := parseHeaderBlock(block)

	if h.Get("Content-Type") != "text/plain" {
		t.Fatalf("Content-Type lost: %q", h.Get("Content-Type"))
	}
	if len(h.Raw) != 2 || h.Raw[0] != "NoColonHere" {
		t.Fatalf("Raw = %v", h.Raw)
	}
}

func TestParseHeaderBlockTrimsLWS(t *testing.T) {
	block := []byte("X-Foo:   spaced out   \r\n")
	h := parseHeaderBlock(block)
	if got := h.Get("X-Foo"); got != "spaced out" {
		t.Fatalf("Get(X-Foo) = %q", got)
	}
}

func TestParseHeaderBlockEmpty(t *testing.T) {
	h := parseHeaderBlock(nil)
	if h.Get("Anything") != "" {
		t.Fatalf("want empty Header from empty block")
	}
	if len(h.Raw) != 0 {
		t.Fatalf("Raw = %v, want empty", h.Raw)
	}
}

func TestCanonicalHeaderKey(t *testing.T) {
	cases := map[string]string{
		"content-type":        "Content-Type",
		"CONTENT-TYPE":        "Content-Type",
		"Content-Disposition": "Content-Disposition",
		"x-custom-header":     "X-Custom-Header",
	}
	for in, want := range cases {
		if got := canonicalHeaderKey(in); got != want {
			t.Errorf("canonicalHeaderKey(%q) = %q, want %q", in, got, want)
		}
	}
}
