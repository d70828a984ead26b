// Package box parses the JP2 file format: a signature-prefixed tree of
// length-prefixed typed boxes (ISO/IEC 15444-1 Annex I).
package box

import (
	"errors"
	"io"

	"github.com/jp2kit/jp2core/internal/jp2log"
)

// maxBoxPayload bounds how large a single box payload this package will
// allocate for, refusing pathological headers per spec's "configurable
// maximum" resource note.
const maxBoxPayload = 1 << 30 // 1 GiB

// Box is the generic typed-length record every JP2 box header parses to.
// Offset is the absolute byte position of the box header in the source
// Reader it was read from; Length is the total box size including header.
type Box struct {
	Type   Type
	Offset int64
	Length uint64
}

// Identifier returns the box's 4-character type code.
func (b *Box) Identifier() string {
	return b.Type.String()
}

// ReadBox reads one box header from r and returns the box metadata together
// with a Reader bounded to exactly its payload. The caller must read the
// payload's schema from the returned Reader and Close it (propagating
// ErrExtraPayload if the schema didn't consume the whole declared length).
//
// Returns io.EOF (unwrapped) when r has no more bytes at a box boundary, so
// callers can loop container parsing with `for { ...; if errors.Is(err,
// io.EOF) { break } }`.
func ReadBox(r *Reader) (*Box, *Reader, error) {
	start := r.Position()
	// Offsets are taken from the outermost Reader so that child boxes of a
	// container also carry their absolute position in the source.
	root := r
	for root.parent != nil {
		root = root.parent
	}
	offset := root.Position()

	l32, err := r.ReadU32BE()
	if err != nil {
		if errors.Is(err, ErrTruncatedBox) && r.Position() == start && r.Remaining() <= 0 {
			return nil, nil, io.EOF
		}
		return nil, nil, err
	}
	typ, err := r.ReadU32BE()
	if err != nil {
		return nil, nil, err
	}

	headerLen := uint64(8)
	var length uint64
	switch l32 {
	case 1:
		ext, err := r.ReadU64BE()
		if err != nil {
			return nil, nil, err
		}
		length = ext
		headerLen = 16
	case 0:
		remaining := r.Remaining()
		if remaining < 0 {
			return nil, nil, &UnsupportedFeature{Feature: "box extending to end-of-file on an unbounded source"}
		}
		length = uint64(remaining) + headerLen
	default:
		length = uint64(l32)
	}

	if length < headerLen {
		return nil, nil, &MalformedBox{AtOffset: offset, Identifier: Type(typ).String(), Reason: "length underflow: shorter than its own header"}
	}

	payloadLen := length - headerLen
	if payloadLen > maxBoxPayload {
		return nil, nil, &UnsupportedFeature{Feature: "box payload exceeds configured maximum size"}
	}

	jp2log.Logger().Debug("box header", "type", Type(typ).String(), "offset", offset, "length", length)

	b := &Box{Type: Type(typ), Offset: offset, Length: length}
	return b, r.BoundedSubReader(int64(payloadLen)), nil
}
