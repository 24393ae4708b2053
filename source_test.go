package multipart

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReaderSourceChunking(t *testing.T) {
	src := NewReaderSource(bytes.NewReader([]byte("0123456789")), 4)
	ctx := context.Background()

	var got []byte
	for {
		chunk, err := src.Next(ctx)
		got = append(got, chunk...)
		if err != nil {
			if err != io.EOF {
				t.Fatalf("Next: unexpected error: %v", err)
			}
			break
		}
	}
	if string(got) != "0123456789" {
		t.Fatalf("got %q, want the full input", got)
	}
}

func TestReaderSourceDefaultChunkSize(t *testing.T) {
	src := NewReaderSource(bytes.NewReader([]byte("x")), 0).(*readerSource)
	if src.chunkSize != 32*1024 {
		t.Fatalf("default chunkSize = %d, want 32KiB", src.chunkSize)
	}
}

func TestReaderSourceStickyError(t *testing.T) {
	src := NewReaderSource(&erroringReader{err: errors.New("disk gone")}, 16)
	ctx := context.Background()

	_, err1 := src.Next(ctx)
	_, err2 := src.Next(ctx)
	if err1 == nil || err2 == nil {
		t.Fatalf("want errors from both calls, got %v, %v", err1, err2)
	}
	if err1.Error() != err2.Error() {
		t.Fatalf("sticky error not stable: %v vs %v", err1, err2)
	}
}

type erroringReader struct{ err error }

func (r *erroringReader) Read(p []byte) (int, error) { return 0, r.err }

func TestFromHTTPRequestUsesChunkSize(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("hello world")))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	r := FromHTTPRequest(req, 3)
	hr, ok := r.(*httpRequest)
	if !ok {
		t.Fatalf("FromHTTPRequest returned %T, want *httpRequest", r)
	}
	if hr.chunkSize != 3 {
		t.Fatalf("chunkSize = %d, want 3", hr.chunkSize)
	}

	src := r.Body().(*readerSource)
	if src.chunkSize != 3 {
		t.Fatalf("Body()'s chunkSize = %d, want 3", src.chunkSize)
	}

	if got := r.Header("Content-Type"); got != "multipart/form-data; boundary=xyz" {
		t.Fatalf("Header(Content-Type) = %q", got)
	}
}
