package box

import (
	"errors"
	"io"

	"github.com/google/uuid"
)

// UUIDBox is a "uuid" box: a 16-byte identifier prefix followed by an
// opaque vendor-defined body (e.g. GeoJP2's embedded TIFF).
type UUIDBox struct {
	Box
	ID   uuid.UUID
	Body []byte
}

func parseUUIDBox(b *Box, r *Reader) (*UUIDBox, error) {
	raw, err := r.ReadExact(16)
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, &MalformedBox{AtOffset: b.Offset, Identifier: "uuid", Reason: err.Error()}
	}
	body, err := r.ReadExact(int(r.Remaining()))
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return &UUIDBox{Box: *b, ID: id, Body: body}, nil
}

// UUIDListBox is the "ulst" child of a UUID-info box.
type UUIDListBox struct {
	Box
	IDs []uuid.UUID
}

func parseUUIDListBox(b *Box, r *Reader) (*UUIDListBox, error) {
	count, err := r.ReadU16BE()
	if err != nil {
		return nil, err
	}
	ulst := &UUIDListBox{Box: *b, IDs: make([]uuid.UUID, count)}
	for i := range ulst.IDs {
		raw, err := r.ReadExact(16)
		if err != nil {
			return nil, err
		}
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return nil, &MalformedBox{AtOffset: b.Offset, Identifier: "ulst", Reason: err.Error()}
		}
		ulst.IDs[i] = id
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return ulst, nil
}

// URLBox is the "url " child of a UUID-info box: a versioned, flagged
// pointer to external data carrying the UUID-info's payload.
type URLBox struct {
	Box
	Version  uint8
	Flags    [3]byte
	Location string
}

func parseURLBox(b *Box, r *Reader) (*URLBox, error) {
	url := &URLBox{Box: *b}
	var err error
	if url.Version, err = r.ReadU8(); err != nil {
		return nil, err
	}
	flags, err := r.ReadExact(3)
	if err != nil {
		return nil, err
	}
	copy(url.Flags[:], flags)
	loc, err := r.ReadExact(int(r.Remaining()))
	if err != nil {
		return nil, err
	}
	url.Location = string(loc)
	if err := r.Close(); err != nil {
		return nil, err
	}
	return url, nil
}

// UUIDInfoBox is the "uinf" container associating a list of UUIDs with a
// URL that resolves what they mean.
type UUIDInfoBox struct {
	Box
	List *UUIDListBox
	URL  *URLBox
}

func parseUUIDInfoBox(b *Box, r *Reader) (*UUIDInfoBox, error) {
	uinf := &UUIDInfoBox{Box: *b}
	for {
		child, sub, err := ReadBox(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch child.Type {
		case TypeUUIDList:
			if uinf.List != nil {
				return nil, &DuplicateSingleton{Parent: "uinf", Child: "ulst"}
			}
			uinf.List, err = parseUUIDListBox(child, sub)
		case TypeURL:
			if uinf.URL != nil {
				return nil, &DuplicateSingleton{Parent: "uinf", Child: "url "}
			}
			uinf.URL, err = parseURLBox(child, sub)
		default:
			return nil, &UnexpectedBoxInContainer{Parent: "uinf", Child: child.Identifier()}
		}
		if err != nil {
			return nil, err
		}
	}
	return uinf, nil
}
