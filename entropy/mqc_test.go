package entropy

import "testing"

// TestMQDecoder_InitialUniformContextIsEquiprobable exercises the Annex C
// INITDEC procedure: the UNIFORM context starts at the self-looping state
// 92/93 and never adapts, since it models a true coin-flip.
func TestMQDecoder_InitialUniformContextIsEquiprobable(t *testing.T) {
	d := NewMQDecoder([]byte{0x00, 0x00, 0x00, 0x00})
	if d.contexts[CtxUni] != uniformStateIdx {
		t.Fatalf("initial UNIFORM state = %d, want %d", d.contexts[CtxUni], uniformStateIdx)
	}
	d.DecodeBit(CtxUni)
	if got := d.contexts[CtxUni]; got != uniformStateIdx && got != uniformStateIdx+1 {
		t.Fatalf("UNIFORM state after one decode = %d, want to stay within {92,93}", got)
	}
}

// TestMQDecoder_EmptyInputDoesNotPanic exercises the zero-length INITDEC
// path, where the decoder must behave as though it read a stream of
// terminating 0xFF markers rather than indexing out of bounds.
func TestMQDecoder_EmptyInputDoesNotPanic(t *testing.T) {
	d := NewMQDecoder(nil)
	for i := 0; i < 32; i++ {
		d.DecodeBit(CtxZC0)
	}
}

// TestMQDecoder_ResetAllContexts checks every context returns to its
// initial probability state, including RUN_LEN's mandated state 3
// (flattened index 6) and the all-zero-neighbours context's state 4
// (flattened index 8), not state 0.
func TestMQDecoder_ResetAllContexts(t *testing.T) {
	d := NewMQDecoder([]byte{0xFF, 0x00, 0xAB, 0xCD, 0x12})
	for i := 0; i < 64; i++ {
		d.DecodeBit(i % NumContexts)
	}
	d.ResetAllContexts()
	for ctx := 0; ctx < NumContexts; ctx++ {
		want := uint8(0)
		switch ctx {
		case CtxUni:
			want = uniformStateIdx
		case CtxRL:
			want = runLengthStateIdx
		case CtxZC0:
			want = zeroNeighbourStateIdx
		}
		if d.contexts[ctx] != want {
			t.Errorf("contexts[%d] after reset = %d, want %d", ctx, d.contexts[ctx], want)
		}
	}
}

// TestMQDecoder_RunLengthInitialStateMatchesJ10a pins the RUN_LEN context's
// initial decode against the Annex J.10(a) MockCoder ground truth: the
// first RUN_LEN decode on this exact byte sequence must yield 1, which only
// holds when RUN_LEN starts in state 3 (Qe=0x0AC1, MPS=0), not state 0
// (Qe=0x5601, MPS=0).
func TestMQDecoder_RunLengthInitialStateMatchesJ10a(t *testing.T) {
	d := NewMQDecoder([]byte{0x01, 0x8F, 0x0D, 0xC8, 0x75, 0x5D})
	if got := d.DecodeBit(CtxRL); got != 1 {
		t.Fatalf("first RUN_LEN decode = %d, want 1 (Annex J.10(a) ground truth)", got)
	}
}
