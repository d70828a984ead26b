package entropy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestCodeBlockDecoder_J10a reproduces ISO/IEC 15444-1 Annex J.10(a): a
// 1x5 LL code-block, 16 coding passes, mb=9, 3 leading zero bit-planes.
func TestCodeBlockDecoder_J10a(t *testing.T) {
	data := []byte{0x01, 0x8F, 0x0D, 0xC8, 0x75, 0x5D}

	d, err := NewCodeBlockDecoder(1, 5, SubBandLL, 16, 9)
	if err != nil {
		t.Fatalf("NewCodeBlockDecoder() err = %v", err)
	}
	d.SetNumZeroBitPlanes(3)

	mq := NewMQDecoder(data)
	if err := d.Decode(mq); err != nil {
		t.Fatalf("Decode() err = %v", err)
	}

	want := []int32{-26, -22, -30, -32, -19}
	if diff := cmp.Diff(want, d.Coefficients()); diff != "" {
		t.Errorf("Coefficients mismatch (-want +got):\n%s", diff)
	}
}

// TestCodeBlockDecoder_J10b reproduces ISO/IEC 15444-1 Annex J.10(b): a
// 1x4 LH code-block, 7 coding passes, mb=10, 7 leading zero bit-planes.
func TestCodeBlockDecoder_J10b(t *testing.T) {
	data := []byte{0x0F, 0xB1, 0x76}

	d, err := NewCodeBlockDecoder(1, 4, SubBandLH, 7, 10)
	if err != nil {
		t.Fatalf("NewCodeBlockDecoder() err = %v", err)
	}
	d.SetNumZeroBitPlanes(7)

	mq := NewMQDecoder(data)
	if err := d.Decode(mq); err != nil {
		t.Fatalf("Decode() err = %v", err)
	}

	want := []int32{1, 5, 1, 0}
	if diff := cmp.Diff(want, d.Coefficients()); diff != "" {
		t.Errorf("Coefficients mismatch (-want +got):\n%s", diff)
	}
}

// TestCodeBlockDecoder_CoefficientsWithinMagnitudeBudget checks the
// quantified invariant that every coefficient's magnitude stays under
// 2^mb, and that the coefficient count always equals width*height.
func TestCodeBlockDecoder_CoefficientsWithinMagnitudeBudget(t *testing.T) {
	d, err := NewCodeBlockDecoder(1, 5, SubBandLL, 16, 9)
	if err != nil {
		t.Fatalf("NewCodeBlockDecoder() err = %v", err)
	}
	d.SetNumZeroBitPlanes(3)
	mq := NewMQDecoder([]byte{0x01, 0x8F, 0x0D, 0xC8, 0x75, 0x5D})
	if err := d.Decode(mq); err != nil {
		t.Fatalf("Decode() err = %v", err)
	}

	coeffs := d.Coefficients()
	if len(coeffs) != 5 {
		t.Fatalf("len(Coefficients()) = %d, want 5", len(coeffs))
	}
	limit := int32(1) << 9
	for i, c := range coeffs {
		if c >= limit || c <= -limit {
			t.Errorf("coefficient[%d] = %d, exceeds magnitude budget 2^9", i, c)
		}
	}
}

// TestNewCodeBlockDecoder_RejectsPassCountAboveBudget checks the
// construction-time validation of the no-passes ≤ 164 invariant.
func TestNewCodeBlockDecoder_RejectsPassCountAboveBudget(t *testing.T) {
	if _, err := NewCodeBlockDecoder(4, 4, SubBandHH, 200, 9); err == nil {
		t.Fatal("NewCodeBlockDecoder() with no_passes=200 should fail validation")
	}
}
