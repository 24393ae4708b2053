package multipart

import (
	"bytes"
	"context"

	"github.com/valyala/bytebufferpool"
)

// ChunkBuffer is a sliding window over the unread prefix of a ChunkSource.
// It owns no semantics of its own beyond append/search/drop; the contract
// (spec.md §4.1) is that after DropPrefix(n), index 0 is the first
// undrained byte.
//
// The backing store is a pooled *bytebufferpool.ByteBuffer rather than a
// bare make([]byte, …): sessions are short-lived but numerous under
// concurrent request load, and the pool amortizes the grow-cost spec.md
// asks us to avoid ("without per-read reallocation").
type ChunkBuffer struct {
	buf    *bytebufferpool.ByteBuffer
	head   int // index of the first undrained byte within buf.B
	source ChunkSource
	eof    bool
}

// compactThreshold is the fraction of capacity the head offset must pass
// before a DropPrefix triggers a memmove-to-zero compaction, per the
// "Buffer strategy" design note in spec.md §9.
const compactThreshold = 0.5

// newChunkBuffer wraps source in a fresh ChunkBuffer.
func newChunkBuffer(source ChunkSource) *ChunkBuffer {
	return &ChunkBuffer{
		buf:    bytebufferpool.Get(),
		source: source,
	}
}

// release returns the backing buffer to the pool. Safe to call once; the
// ChunkBuffer must not be used afterward.
func (c *ChunkBuffer) release() {
	bytebufferpool.Put(c.buf)
	c.buf = nil
}

// Len reports how many undrained bytes are currently buffered.
func (c *ChunkBuffer) Len() int {
	return len(c.buf.B) - c.head
}

// ByteAt returns the i-th undrained byte. The caller must have ensured
// i < c.Len() (typically via a prior Pull loop).
func (c *ChunkBuffer) ByteAt(i int) byte {
	return c.buf.B[c.head+i]
}

// Slice returns the undrained bytes in [i, j). The returned slice aliases
// the buffer; callers that must retain it past the next DropPrefix/Pull
// should copy it.
func (c *ChunkBuffer) Slice(i, j int) []byte {
	return c.buf.B[c.head+i : c.head+j]
}

// IndexOf returns the offset of the first occurrence of pattern at or
// after start, restricted to currently buffered bytes, or -1 if absent.
func (c *ChunkBuffer) IndexOf(pattern []byte, start int) int {
	if start >= c.Len() {
		return -1
	}
	idx := bytes.Index(c.buf.B[c.head+start:], pattern)
	if idx < 0 {
		return -1
	}
	return start + idx
}

// DropPrefix discards the first n undrained bytes. It compacts the
// backing buffer (moving the remaining tail to offset 0) once the head
// offset exceeds compactThreshold of capacity, so long-running sessions
// don't retain an ever-growing prefix of consumed bytes.
func (c *ChunkBuffer) DropPrefix(n int) {
	c.head += n
	if c.head == len(c.buf.B) {
		c.buf.B = c.buf.B[:0]
		c.head = 0
		return
	}
	if float64(c.head) >= compactThreshold*float64(cap(c.buf.B)) {
		copy(c.buf.B, c.buf.B[c.head:])
		c.buf.B = c.buf.B[:len(c.buf.B)-c.head]
		c.head = 0
	}
}

// Pull awaits and appends one more chunk from the source. It returns
// false once the source is exhausted; a subsequent Pull is a no-op that
// also returns false. A source error is returned verbatim.
func (c *ChunkBuffer) Pull(ctx context.Context) (bool, error) {
	if c.eof {
		return false, nil
	}
	// io.Reader (and so a ChunkSource built on one) is allowed to return
	// a final non-empty chunk together with a non-nil error in the same
	// call; the chunk must be kept even when that error ends the stream.
	chunk, err := c.source.Next(ctx)
	if len(chunk) > 0 {
		c.buf.Write(chunk)
	}
	if err != nil {
		c.eof = true
		if err == errSourceExhausted {
			return len(chunk) > 0, nil
		}
		return false, err
	}
	return true, nil
}
