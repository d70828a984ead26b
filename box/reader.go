package box

import (
	"encoding/binary"
	"errors"
	"io"
)

// Reader wraps a buffered byte source with the big-endian primitives and
// bounded sub-reading the box framework needs. It has no look-ahead: every
// read advances the position by exactly the number of bytes requested.
type Reader struct {
	r      io.Reader
	pos    int64
	limit  int64 // -1 means unbounded
	parent *Reader
}

// NewReader wraps r as a Reader with no length bound.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, limit: -1}
}

// Position returns the number of bytes read so far from this Reader (not
// the parent's absolute offset).
func (r *Reader) Position() int64 {
	return r.pos
}

// Remaining reports how many bytes may still be read before the bound is
// hit, or -1 if the Reader is unbounded.
func (r *Reader) Remaining() int64 {
	if r.limit < 0 {
		return -1
	}
	return r.limit - r.pos
}

func (r *Reader) readFull(p []byte) error {
	if r.limit >= 0 && r.pos+int64(len(p)) > r.limit {
		return ErrTruncatedBox
	}
	n, err := io.ReadFull(r.r, p)
	r.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ErrTruncatedBox
		}
		return err
	}
	return nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	var b [1]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16BE reads a big-endian uint16.
func (r *Reader) ReadU16BE() (uint16, error) {
	var b [2]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// ReadU32BE reads a big-endian uint32.
func (r *Reader) ReadU32BE() (uint32, error) {
	var b [4]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// ReadU64BE reads a big-endian uint64.
func (r *Reader) ReadU64BE() (uint64, error) {
	var b [8]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// ReadExact reads exactly n bytes.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, ioReaderFunc(r.readFull), n)
	return err
}

// ioReaderFunc adapts readFull (which wants a fixed-size buffer) to
// io.Reader so Skip can reuse io.CopyN's buffering without duplicating the
// bound-check logic.
type ioReaderFunc func([]byte) error

func (f ioReaderFunc) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := f(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// BoundedSubReader returns a Reader limited to exactly length bytes read
// from r's current position. The caller must consume all length bytes of
// the sub-reader before resuming reads on the parent (Close does not skip
// unread bytes); Close verifies that exactly length bytes were consumed and
// returns ErrExtraPayload otherwise.
func (r *Reader) BoundedSubReader(length int64) *Reader {
	return &Reader{r: ioReaderFunc(r.readFull), limit: length, parent: r}
}

// Close asserts the bounded sub-reader was consumed to exactly its declared
// length. Bytes left unread mean the payload carried more than the schema
// that parsed it expected, surfaced as ErrExtraPayload; it is a no-op on an
// unbounded Reader. Container-box parsers that loop ReadBox until
// exhaustion always satisfy this; fixed-schema leaf parsers must read their
// entire declared payload (including any "rest of payload" trailer) before
// calling Close.
func (r *Reader) Close() error {
	if r.limit < 0 {
		return nil
	}
	remaining := r.limit - r.pos
	if remaining != 0 {
		return ErrExtraPayload
	}
	return nil
}
