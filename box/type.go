package box

import "encoding/binary"

// Type is a 4-byte box type code, printed as its ASCII form.
type Type uint32

// String returns the 4-character type code (padded with spaces per the
// standard's own convention, e.g. "jP  ", "res ").
func (t Type) String() string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(t))
	return string(b)
}

// Well-known box type codes, ISO/IEC 15444-1 Annex I.
const (
	TypeSignature Type = 0x6A502020 // "jP  "
	TypeFileType  Type = 0x66747970 // "ftyp"

	TypeJP2Header    Type = 0x6A703268 // "jp2h"
	TypeImageHeader  Type = 0x69686472 // "ihdr"
	TypeBitsPerComp  Type = 0x62706363 // "bpcc"
	TypeColorSpec    Type = 0x636F6C72 // "colr"
	TypePalette      Type = 0x70636C72 // "pclr"
	TypeComponentMap Type = 0x636D6170 // "cmap"
	TypeChannelDef   Type = 0x63646566 // "cdef"
	TypeResolution   Type = 0x72657320 // "res "
	TypeCaptureRes   Type = 0x72657363 // "resc"
	TypeDisplayRes   Type = 0x72657364 // "resd"

	TypeContCodestream Type = 0x6A703263 // "jp2c"
	TypeIPR            Type = 0x6A703269 // "jp2i"

	TypeXML      Type = 0x786D6C20 // "xml "
	TypeUUID     Type = 0x75756964 // "uuid"
	TypeUUIDInfo Type = 0x75696E66 // "uinf"
	TypeUUIDList Type = 0x756C7374 // "ulst"
	TypeURL      Type = 0x75726C20 // "url "
)
