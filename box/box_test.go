package box

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// TestDecodeJP2_SignatureAndFileType reproduces the spec's first end-to-end
// scenario: a signature box followed by an ftyp box, nothing else.
func TestDecodeJP2_SignatureAndFileType(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0x0D, 0x0A, 0x87, 0x0A,
		0x00, 0x00, 0x00, 0x14, 0x66, 0x74, 0x79, 0x70, 0x6A, 0x70, 0x32, 0x20,
		0x00, 0x00, 0x00, 0x00, 0x6A, 0x70, 0x32, 0x20,
	}

	f, err := DecodeJP2(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeJP2() err = %v", err)
	}

	if f.Signature == nil {
		t.Fatal("Signature box not populated")
	}
	wantSig := [4]byte{0x0D, 0x0A, 0x87, 0x0A}
	if f.Signature.Signature != wantSig {
		t.Errorf("Signature = %X, want %X", f.Signature.Signature, wantSig)
	}

	if f.FileType == nil {
		t.Fatal("FileType box not populated")
	}
	if got := f.FileType.Brand.String(); got != "jp2 " {
		t.Errorf("Brand = %q, want \"jp2 \"", got)
	}
	if f.FileType.MinorVersion != 0 {
		t.Errorf("MinorVersion = %d, want 0", f.FileType.MinorVersion)
	}
	if !f.FileType.HasCompatibility(Type(0x6A703220)) {
		t.Errorf("Compatibility list missing \"jp2 \": %v", f.FileType.Compatibility)
	}

	if diff := cmp.Diff(uint64(len(data)), f.Length); diff != "" {
		t.Errorf("JP2File.Length mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeJP2_BadSignature(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0xAA, 0xBB, 0xCC, 0xDD,
	}
	if _, err := DecodeJP2(bytes.NewReader(data)); err != ErrBadMagic {
		t.Fatalf("DecodeJP2() err = %v, want ErrBadMagic", err)
	}
}

// buildPaletteBoxPayload constructs a "pclr" payload with numEntries rows,
// numComponents unsigned 8-bit columns, overriding the rows given in
// overrides (zero elsewhere).
func buildPaletteBoxPayload(numEntries int, numComponents int, overrides map[int][]byte) []byte {
	buf := &bytes.Buffer{}
	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], uint16(numEntries))
	buf.Write(u16[:])
	buf.WriteByte(byte(numComponents))
	for i := 0; i < numComponents; i++ {
		buf.WriteByte(0x07) // unsigned, 8 bits: (7&0x7F)+1 = 8
	}
	for row := 0; row < numEntries; row++ {
		if v, ok := overrides[row]; ok {
			buf.Write(v)
		} else {
			buf.Write(make([]byte, numComponents))
		}
	}
	return buf.Bytes()
}

// TestPaletteBox_256Entries reproduces the spec's palette scenario: 256
// entries, 3 unsigned 8-bit columns.
func TestPaletteBox_256Entries(t *testing.T) {
	payload := buildPaletteBoxPayload(256, 3, map[int][]byte{
		0: {0x00, 0x00, 0x00},
		1: {0xFF, 0xFF, 0xFF},
		2: {0x17, 0x0C, 0x15},
	})
	r := NewReader(bytes.NewReader(payload)).BoundedSubReader(int64(len(payload)))
	pclr, err := parsePaletteBox(&Box{Type: TypePalette}, r)
	if err != nil {
		t.Fatalf("parsePaletteBox() err = %v", err)
	}

	if pclr.NumEntries != 256 {
		t.Errorf("NumEntries = %d, want 256", pclr.NumEntries)
	}
	if pclr.NumComponents != 3 {
		t.Errorf("NumComponents = %d, want 3", pclr.NumComponents)
	}
	for k := 0; k < 3; k++ {
		depth, ok := pclr.BitDepthAt(k)
		if !ok || depth.Bits != 8 || depth.Signed {
			t.Errorf("BitDepthAt(%d) = %+v, %v, want {8 false}, true", k, depth, ok)
		}
	}
	if _, ok := pclr.BitDepthAt(3); ok {
		t.Errorf("BitDepthAt(3) should be out of range")
	}

	if v, ok := pclr.EntryAt(2, 0); !ok || v != 0x17 {
		t.Errorf("EntryAt(2,0) = %#x, %v, want 0x17, true", v, ok)
	}
	if _, ok := pclr.EntryAt(256, 0); ok {
		t.Errorf("EntryAt(256,0) should be out of range")
	}
}

// TestChannelDefBox_Order reproduces the spec's channel-definition scenario.
func TestChannelDefBox_Order(t *testing.T) {
	buf := &bytes.Buffer{}
	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], 3)
	buf.Write(u16[:])
	write := func(idx, typ, assoc uint16) {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], idx)
		buf.Write(b[:])
		binary.BigEndian.PutUint16(b[:], typ)
		buf.Write(b[:])
		binary.BigEndian.PutUint16(b[:], assoc)
		buf.Write(b[:])
	}
	write(0, 0, 3)
	write(1, 0, 2)
	write(2, 0, 1)

	r := NewReader(bytes.NewReader(buf.Bytes())).BoundedSubReader(int64(buf.Len()))
	cdef, err := parseChannelDefBox(&Box{Type: TypeChannelDef}, r)
	if err != nil {
		t.Fatalf("parseChannelDefBox() err = %v", err)
	}

	want := []ChannelDefinition{
		{ChannelIndex: 0, Type: ChannelColourImageData, Association: 3},
		{ChannelIndex: 1, Type: ChannelColourImageData, Association: 2},
		{ChannelIndex: 2, Type: ChannelColourImageData, Association: 1},
	}
	if diff := cmp.Diff(want, cdef.Definitions); diff != "" {
		t.Errorf("Definitions mismatch (-want +got):\n%s", diff)
	}
}

// TestUUIDBox_GeoJP2 reproduces the spec's GeoJP2 UUID scenario.
func TestUUIDBox_GeoJP2(t *testing.T) {
	wantID := uuid.MustParse("B14BF8BD-083D-4B43-A5AE-8CD7D5A6CE03")
	body := append([]byte{'I', 'I'}, make([]byte, 354)...)

	buf := &bytes.Buffer{}
	idBytes, _ := wantID.MarshalBinary()
	buf.Write(idBytes)
	buf.Write(body)

	r := NewReader(bytes.NewReader(buf.Bytes())).BoundedSubReader(int64(buf.Len()))
	u, err := parseUUIDBox(&Box{Type: TypeUUID}, r)
	if err != nil {
		t.Fatalf("parseUUIDBox() err = %v", err)
	}
	if u.ID != wantID {
		t.Errorf("ID = %s, want %s", u.ID, wantID)
	}
	if len(u.Body) != len(body) || u.Body[0] != 'I' || u.Body[1] != 'I' {
		t.Errorf("Body does not start with the TIFF little-endian signature")
	}
}

// TestHeaderBox_MissingImageHeader checks the required-child invariant.
func TestHeaderBox_MissingImageHeader(t *testing.T) {
	r := NewReader(bytes.NewReader(nil)).BoundedSubReader(0)
	if _, err := parseHeaderBox(&Box{Type: TypeJP2Header}, r); err == nil {
		t.Fatal("parseHeaderBox() with no children should fail: ihdr is required")
	}
}

// TestColorSpecBox_ReservedMethod ensures reserved values are surfaced, not
// rejected, per the §9 design note.
func TestColorSpecBox_ReservedMethod(t *testing.T) {
	payload := []byte{0x09, 0x00, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}
	r := NewReader(bytes.NewReader(payload)).BoundedSubReader(int64(len(payload)))
	colr, err := parseColorSpecBox(&Box{Type: TypeColorSpec}, r)
	if err != nil {
		t.Fatalf("parseColorSpecBox() err = %v", err)
	}
	if !colr.IsReservedMethod() {
		t.Errorf("IsReservedMethod() = false, want true for method 9")
	}
}
