// Package arena provides a region allocator for short-lived text. All
// strings handed out by an Arena share its lifetime: they are released
// together by Reset rather than one at a time.
package arena

import "unsafe"

// DefaultChunkSize is the size of each backing block. Requests larger
// than a chunk get a dedicated block.
const DefaultChunkSize = 8 << 10

// Arena hands out string views over a list of append-only byte chunks.
//
// Chunks are never rewritten after Reset: the arena drops its references
// and starts a new chunk, so a view that escaped the arena (for example
// one held by a snapshot that forgot to copy it) still points at
// immutable memory rather than at recycled bytes.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	chunkSize int
	cur       []byte
	chunks    int
	allocated int
	resets    int
}

// New returns an arena whose chunks are chunkSize bytes long. A
// non-positive size selects DefaultChunkSize.
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize}
}

// String copies s into the arena and returns a view of the copy.
func (a *Arena) String(s string) string {
	if s == "" {
		return ""
	}
	b := a.alloc(len(s))
	copy(b, s)
	return unsafe.String(&b[0], len(b))
}

// Bytes reserves n zeroed bytes in the arena.
func (a *Arena) Bytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	return a.alloc(n)
}

// Concat joins the given parts into a single arena-owned string.
func (a *Arena) Concat(parts ...string) string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	if n == 0 {
		return ""
	}
	b := a.alloc(n)
	off := 0
	for _, p := range parts {
		off += copy(b[off:], p)
	}
	return unsafe.String(&b[0], len(b))
}

func (a *Arena) alloc(n int) []byte {
	a.allocated += n
	if n > a.chunkSize/4 {
		// Large requests get their own block so they don't waste the
		// tail of the current chunk.
		a.chunks++
		return make([]byte, n, n)
	}
	if cap(a.cur)-len(a.cur) < n {
		a.cur = make([]byte, 0, a.chunkSize)
		a.chunks++
	}
	start := len(a.cur)
	a.cur = a.cur[:start+n]
	return a.cur[start : start+n : start+n]
}

// Reset releases everything allocated so far.
func (a *Arena) Reset() {
	a.cur = nil
	a.chunks = 0
	a.allocated = 0
	a.resets++
}

// Allocated reports the bytes handed out since the last Reset.
func (a *Arena) Allocated() int { return a.allocated }

// Chunks reports the number of blocks backing the current allocations.
func (a *Arena) Chunks() int { return a.chunks }

// Resets reports how many times the arena has been reset.
func (a *Arena) Resets() int { return a.resets }
