package multipart

import (
	"bytes"
	"context"
	"testing"
)

func singlePartSession(t *testing.T, headerBlock, body string) (*Session, *PartStream) {
	t.Helper()
	msg := "--" + testBoundary + "\r\n" + headerBlock + "\r\n\r\n" + body + "\r\n--" + testBoundary + "--"
	session, err := ParseReader(context.Background(), bytes.NewReader([]byte(msg)), "multipart/form-data; boundary="+testBoundary)
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	part, err := session.Next()
	if err != nil || part == nil {
		t.Fatalf("Next: %v, %v", part, err)
	}
	return session, part
}

func TestPartStreamMediaType(t *testing.T) {
	session, part := singlePartSession(t,
		"Content-Disposition: form-data; name=\"f\"\r\nContent-Type: text/plain; charset=utf-8",
		"hi")
	defer session.Close()

	if got := part.MediaType(); got != "text/plain" {
		t.Fatalf("MediaType() = %q", got)
	}
}

func TestPartStreamMediaTypeAbsent(t *testing.T) {
	session, part := singlePartSession(t, "Content-Disposition: form-data; name=\"f\"", "hi")
	defer session.Close()

	if got := part.MediaType(); got != "" {
		t.Fatalf("MediaType() = %q, want empty", got)
	}
}

func TestPartStreamNonFormDataDisposition(t *testing.T) {
	session, part := singlePartSession(t, "Content-Disposition: attachment; filename=\"x.txt\"", "hi")
	defer session.Close()

	if got := part.Name(); got != "" {
		t.Fatalf("Name() = %q, want empty for non-form-data disposition", got)
	}
	if got := part.Filename(); got != "x.txt" {
		t.Fatalf("Filename() = %q", got)
	}
	if !part.IsFile() {
		t.Fatalf("IsFile() = false")
	}
}

func TestPartStreamMissingDisposition(t *testing.T) {
	session, part := singlePartSession(t, "Content-Type: text/plain", "hi")
	defer session.Close()

	if part.Name() != "" || part.Filename() != "" || part.IsFile() {
		t.Fatalf("expected all derived-disposition views empty")
	}
}

func TestPartStreamTextDefaultsToUTF8(t *testing.T) {
	session, part := singlePartSession(t, "Content-Disposition: form-data; name=\"f\"", "héllo")
	defer session.Close()

	got, err := part.Text("")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "héllo" {
		t.Fatalf("Text() = %q", got)
	}
}

func TestPartStreamTextDecodesCharset(t *testing.T) {
	// 0xe9 is "é" in ISO-8859-1/Latin-1, but not valid standalone UTF-8.
	session, part := singlePartSession(t, "Content-Disposition: form-data; name=\"f\"", "caf\xe9")
	defer session.Close()

	got, err := part.Text("iso-8859-1")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "café" {
		t.Fatalf("Text() = %q, want café", got)
	}
}

func TestPartStreamTextUnknownCharset(t *testing.T) {
	session, part := singlePartSession(t, "Content-Disposition: form-data; name=\"f\"", "data")
	defer session.Close()

	if _, err := part.Text("not-a-real-charset"); err == nil {
		t.Fatalf("Text: want error for unknown charset")
	}
}

func TestPartStreamBodyIoReaderAlias(t *testing.T) {
	session, part := singlePartSession(t, "Content-Disposition: form-data; name=\"f\"", "streamed")
	defer session.Close()

	buf := make([]byte, 4)
	n, err := part.Body().Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "stre" {
		t.Fatalf("Read = %q", buf[:n])
	}
}
