package box

import (
	"bytes"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestReader_BigEndianPrimitives(t *testing.T) {
	c := qt.New(t)
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}))

	u8, err := r.ReadU8()
	c.Assert(err, qt.IsNil)
	c.Assert(u8, qt.Equals, uint8(0x01))

	u16, err := r.ReadU16BE()
	c.Assert(err, qt.IsNil)
	c.Assert(u16, qt.Equals, uint16(0x0203))

	u32, err := r.ReadU32BE()
	c.Assert(err, qt.IsNil)
	c.Assert(u32, qt.Equals, uint32(0x04050607))

	c.Assert(r.Position(), qt.Equals, int64(7))
}

func TestReader_TruncatedBox(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x00, 0x01}))
	if _, err := r.ReadU32BE(); !errors.Is(err, ErrTruncatedBox) {
		t.Fatalf("ReadU32BE() err = %v, want ErrTruncatedBox", err)
	}
}

func TestReader_BoundedSubReader_ExtraPayload(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04}))
	sub := r.BoundedSubReader(4)
	if _, err := sub.ReadU8(); err != nil {
		t.Fatalf("ReadU8() err = %v", err)
	}
	// Only 1 of 4 declared bytes consumed.
	if err := sub.Close(); !errors.Is(err, ErrExtraPayload) {
		t.Fatalf("Close() err = %v, want ErrExtraPayload", err)
	}
}

func TestReader_BoundedSubReader_ExactConsumption(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0xAA}))
	sub := r.BoundedSubReader(4)
	if _, err := sub.ReadExact(4); err != nil {
		t.Fatalf("ReadExact() err = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close() err = %v, want nil", err)
	}
	// Parent resumes immediately after the bounded region.
	tail, err := r.ReadU8()
	if err != nil || tail != 0xAA {
		t.Fatalf("ReadU8() = %#x, %v, want 0xAA, nil", tail, err)
	}
}

func TestReader_BoundedSubReader_RefusesPastLimit(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04}))
	sub := r.BoundedSubReader(2)
	if _, err := sub.ReadExact(3); !errors.Is(err, ErrTruncatedBox) {
		t.Fatalf("ReadExact(3) over a 2-byte bound err = %v, want ErrTruncatedBox", err)
	}
}
