// Package logpipe implements the chunk framing used to hand log lines
// to an external log collector over a pipe.
//
// Writes to a pipe are only atomic up to PIPE_BUF bytes, so a message
// is split into chunks of at most ChunkSize bytes (header included) and
// each chunk is sent with a single Write. Chunks from different writers
// may interleave; the collector reassembles them per process id.
package logpipe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// ChunkSize is the largest write issued. It stays within the
	// smallest PIPE_BUF POSIX allows.
	ChunkSize = 512

	// HeaderSize is the encoded size of Header.
	HeaderSize = 2 + 2 + 8 + 1 + 1 + 4

	// MaxPayload is the payload carried by a full chunk.
	MaxPayload = ChunkSize - HeaderSize

	// Magic marks a well-formed header.
	Magic uint32 = 0x454c4f47

	// LogTypeElog tags chunks produced by the error core.
	LogTypeElog uint8 = 1
)

// Kind distinguishes the stream a chunk belongs to.
type Kind uint8

const (
	KindStderr Kind = iota
	KindCSV
)

// lastMarker returns the is_last byte for a chunk of kind k.
func (k Kind) lastMarker(last bool) byte {
	switch {
	case k == KindCSV && last:
		return 'T'
	case k == KindCSV:
		return 'F'
	case last:
		return 't'
	default:
		return 'f'
	}
}

// Header is the fixed-size prefix of every chunk.
type Header struct {
	Len     uint16
	PID     int64
	LogType uint8
	IsLast  byte
	Magic   uint32
}

// Kind reports which stream the chunk belongs to.
func (h Header) Kind() Kind {
	if h.IsLast == 'F' || h.IsLast == 'T' {
		return KindCSV
	}
	return KindStderr
}

// Last reports whether the chunk terminates its message.
func (h Header) Last() bool { return h.IsLast == 't' || h.IsLast == 'T' }

func (h Header) encode(dst []byte) {
	dst[0], dst[1] = 0, 0
	binary.LittleEndian.PutUint16(dst[2:], h.Len)
	binary.LittleEndian.PutUint64(dst[4:], uint64(h.PID))
	dst[12] = h.LogType
	dst[13] = h.IsLast
	binary.LittleEndian.PutUint32(dst[14:], h.Magic)
}

var (
	ErrBadHeader = errors.New("logpipe: malformed chunk header")
	ErrEmpty     = errors.New("logpipe: empty message")
)

// DecodeHeader parses the header at the start of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize || b[0] != 0 || b[1] != 0 {
		return Header{}, ErrBadHeader
	}
	h := Header{
		Len:     binary.LittleEndian.Uint16(b[2:]),
		PID:     int64(binary.LittleEndian.Uint64(b[4:])),
		LogType: b[12],
		IsLast:  b[13],
		Magic:   binary.LittleEndian.Uint32(b[14:]),
	}
	if h.Magic != Magic || int(h.Len) > MaxPayload {
		return Header{}, ErrBadHeader
	}
	switch h.IsLast {
	case 'f', 't', 'F', 'T':
	default:
		return Header{}, ErrBadHeader
	}
	return h, nil
}

// WriteChunks frames data and writes it to w, one Write call per chunk.
// It stops at the first failed write.
func WriteChunks(w io.Writer, pid int64, kind Kind, data []byte) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	var buf [ChunkSize]byte
	h := Header{PID: pid, LogType: LogTypeElog, Magic: Magic}
	for {
		n := len(data)
		last := n <= MaxPayload
		if !last {
			n = MaxPayload
		}
		h.Len = uint16(n)
		h.IsLast = kind.lastMarker(last)
		h.encode(buf[:HeaderSize])
		copy(buf[HeaderSize:], data[:n])
		if _, err := w.Write(buf[:HeaderSize+n]); err != nil {
			return fmt.Errorf("logpipe: write chunk: %w", err)
		}
		data = data[n:]
		if last {
			return nil
		}
	}
}

// Message is one reassembled log message.
type Message struct {
	PID  int64
	Kind Kind
	Data []byte
}

// Reader reassembles messages from a chunk stream. Chunks belonging to
// different processes may be interleaved.
type Reader struct {
	r       io.Reader
	pending map[int64][]byte
	hdr     [HeaderSize]byte
}

// NewReader returns a Reader that consumes chunks from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, pending: make(map[int64][]byte)}
}

// Next returns the next complete message. It returns io.EOF once the
// stream ends between chunks.
func (r *Reader) Next() (Message, error) {
	for {
		if _, err := io.ReadFull(r.r, r.hdr[:]); err != nil {
			return Message{}, err
		}
		h, err := DecodeHeader(r.hdr[:])
		if err != nil {
			return Message{}, err
		}
		payload := make([]byte, h.Len)
		if _, err := io.ReadFull(r.r, payload); err != nil {
			return Message{}, fmt.Errorf("logpipe: short chunk: %w", err)
		}
		buf := append(r.pending[h.PID], payload...)
		if !h.Last() {
			r.pending[h.PID] = buf
			continue
		}
		delete(r.pending, h.PID)
		return Message{PID: h.PID, Kind: h.Kind(), Data: buf}, nil
	}
}
