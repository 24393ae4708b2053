package multipart

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestMultipartWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewMultipartWriter(&buf)
	if err := w.SetBoundary(testBoundary); err != nil {
		t.Fatalf("SetBoundary: %v", err)
	}

	if err := w.WriteField("field1", "value1"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	fw, err := w.CreateFormFile("file1", "report.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("report body")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	session, err := ParseReader(context.Background(), bytes.NewReader(buf.Bytes()), w.FormDataContentType())
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	defer session.Close()

	first, err := session.Next()
	if err != nil || first == nil {
		t.Fatalf("Next (first): %v, %v", first, err)
	}
	if first.Name() != "field1" {
		t.Fatalf("first.Name() = %q", first.Name())
	}
	data, err := first.Bytes()
	if err != nil || string(data) != "value1" {
		t.Fatalf("first.Bytes() = %q, %v", data, err)
	}

	second, err := session.Next()
	if err != nil || second == nil {
		t.Fatalf("Next (second): %v, %v", second, err)
	}
	if second.Name() != "file1" || second.Filename() != "report.txt" || !second.IsFile() {
		t.Fatalf("second part: name=%q filename=%q isFile=%v", second.Name(), second.Filename(), second.IsFile())
	}
	data, err = second.Bytes()
	if err != nil || string(data) != "report body" {
		t.Fatalf("second.Bytes() = %q, %v", data, err)
	}

	third, err := session.Next()
	if err != nil {
		t.Fatalf("Next (third): %v", err)
	}
	if third != nil {
		t.Fatalf("want no third part, got %+v", third)
	}
}

func TestMultipartWriterSetBoundaryAfterWriteFails(t *testing.T) {
	var buf bytes.Buffer
	w := NewMultipartWriter(&buf)
	if err := w.WriteField("a", "b"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := w.SetBoundary("newboundary"); err == nil {
		t.Fatalf("want error setting boundary after a write")
	}
}

func TestMultipartWriterRejectsBadBoundary(t *testing.T) {
	var buf bytes.Buffer
	w := NewMultipartWriter(&buf)
	if err := w.SetBoundary(""); err == nil {
		t.Fatalf("want error for empty boundary")
	}
	if err := w.SetBoundary(strings.Repeat("a", 71)); err == nil {
		t.Fatalf("want error for over-length boundary")
	}
	if err := w.SetBoundary("ends with a space "); err == nil {
		t.Fatalf("want error for a trailing space")
	}
}

func TestMultipartWriterWriteAfterCloseFails(t *testing.T) {
	var buf bytes.Buffer
	w := NewMultipartWriter(&buf)
	fw, err := w.CreateFormField("f")
	if err != nil {
		t.Fatalf("CreateFormField: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := fw.Write([]byte("too late")); err == nil {
		t.Fatalf("want error writing to a closed part")
	}
}

func TestEscapeQuotes(t *testing.T) {
	if got := escapeQuotes(`a "quoted" \ value`); got != `a \"quoted\" \\ value` {
		t.Fatalf("escapeQuotes = %q", got)
	}
}

func TestMultipartWriterFormDataContentType(t *testing.T) {
	var buf bytes.Buffer
	w := NewMultipartWriter(&buf)
	ct := w.FormDataContentType()
	boundary, ok := GetBoundary(ct)
	if !ok || boundary != w.Boundary() {
		t.Fatalf("FormDataContentType round-trip failed: %q", ct)
	}
}

var _ io.Writer = (*writerPart)(nil)
