package multipart

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// ErrFormTooLarge is returned by ParseForm if the non-file fields of the
// form can't be held within maxMemory plus the 10MB reserved for them
// (less any file content already kept in memory). Grounded on
// badu-http/mime/types.go's ErrMessageTooLarge.
var ErrFormTooLarge = errors.New("multipart: form too large")

// Form is a fully-drained multipart form: Value holds simple fields,
// File holds file parts, each keyed by field name. Supplemental to the
// spec's streaming core (spec.md §1 explicitly keeps on-disk spooling out
// of the core) — grounded on badu-http/mime/types.go's Form/FileHeader
// and mime/multipart_reader.go's readForm.
type Form struct {
	Value map[string][]string
	File  map[string][]*FileHeader
}

// FileHeader describes a file part spooled by ParseForm. Its content is
// held either in memory (Open returns a reader over a byte slice) or in
// a temporary file (Open opens it), mirroring
// badu-http/mime/file_header.go's Open.
type FileHeader struct {
	Filename string
	Header   *Header
	Size     int64

	content []byte
	tmpfile string
	spooled bool
}

// Open returns a reader over the file part's content. Keyed off spooled
// rather than len(content) == 0, so a zero-byte in-memory file part (a
// real browser/curl case: a file field submitted with no file chosen)
// still opens instead of being mistaken for one spooled to disk.
func (fh *FileHeader) Open() (io.ReadCloser, error) {
	if fh.spooled {
		return os.Open(fh.tmpfile)
	}
	return io.NopCloser(bytes.NewReader(fh.content)), nil
}

// RemoveAll removes any temporary files this Form spooled to disk.
func (f *Form) RemoveAll() error {
	var firstErr error
	for _, fhs := range f.File {
		for _, fh := range fhs {
			if fh.tmpfile == "" {
				continue
			}
			if err := os.Remove(fh.tmpfile); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ParseForm drains session in full into a Form, buffering up to maxMemory
// bytes of file content in memory (plus a fixed 10MB reserved for
// non-file fields) before spooling the remainder of any single file part
// to a temporary file. Grounded directly on
// badu-http/mime/multipart_reader.go's readForm, adapted from the
// teacher's blocking *MultipartReader/*SinglePart onto *Session/*PartStream.
func ParseForm(session *Session, maxMemory int64) (form *Form, err error) {
	form = &Form{Value: make(map[string][]string), File: make(map[string][]*FileHeader)}
	spooled := form
	defer func() {
		if err != nil {
			spooled.RemoveAll()
		}
	}()

	maxValueBytes := maxMemory + 10<<20
	for {
		part, perr := session.Next()
		if perr != nil {
			return nil, perr
		}
		if part == nil {
			break
		}

		name := part.Name()
		if name == "" {
			if _, derr := io.Copy(io.Discard, part); derr != nil {
				return nil, derr
			}
			continue
		}
		filename := part.Filename()

		var b bytes.Buffer
		if !part.Headers.Has("Content-Type") && filename == "" {
			n, cerr := io.CopyN(&b, part, maxValueBytes+1)
			if cerr != nil && cerr != io.EOF {
				return nil, cerr
			}
			maxValueBytes -= n
			if maxValueBytes < 0 {
				return nil, ErrFormTooLarge
			}
			form.Value[name] = append(form.Value[name], b.String())
			continue
		}

		fh := &FileHeader{Filename: filename, Header: part.Headers}
		n, cerr := io.CopyN(&b, part, maxMemory+1)
		if cerr != nil && cerr != io.EOF {
			return nil, cerr
		}
		if n > maxMemory {
			file, ferr := os.CreateTemp("", "multipart-")
			if ferr != nil {
				return nil, ferr
			}
			size, cerr2 := io.Copy(file, io.MultiReader(&b, part))
			if cerr3 := file.Close(); cerr2 == nil {
				cerr2 = cerr3
			}
			if cerr2 != nil {
				os.Remove(file.Name())
				return nil, cerr2
			}
			fh.tmpfile = file.Name()
			fh.spooled = true
			fh.Size = size
		} else {
			fh.content = append([]byte(nil), b.Bytes()...)
			fh.Size = int64(len(fh.content))
			maxMemory -= n
			maxValueBytes -= n
		}
		form.File[name] = append(form.File[name], fh)
	}

	return form, nil
}
