// Package entropy implements the MQ context-adaptive arithmetic decoder and
// the EBCOT Tier-1 code-block bit-plane decoder that drives it
// (ISO/IEC 15444-1 Annex C and Annex D). Only the decode direction is
// implemented; encoding is out of scope.
package entropy

import "github.com/jp2kit/jp2core/internal/jp2log"

// mqState is one row of the 94-state probability-estimation table
// (ITU-T T.800 Annex C / Table C.2, OpenJPEG's flattened 47*2 layout: even
// indices carry MPS=0, odd indices carry MPS=1).
type mqState struct {
	Qe   uint32
	MPS  uint8
	NMPS uint8
	NLPS uint8
}

var mqStates = [94]mqState{
	{0x5601, 0, 2, 3}, {0x5601, 1, 3, 2},
	{0x3401, 0, 4, 12}, {0x3401, 1, 5, 13},
	{0x1801, 0, 6, 18}, {0x1801, 1, 7, 19},
	{0x0AC1, 0, 8, 24}, {0x0AC1, 1, 9, 25},
	{0x0521, 0, 10, 58}, {0x0521, 1, 11, 59},
	{0x0221, 0, 76, 66}, {0x0221, 1, 77, 67},
	{0x5601, 0, 14, 13}, {0x5601, 1, 15, 12},
	{0x5401, 0, 16, 28}, {0x5401, 1, 17, 29},
	{0x4801, 0, 18, 28}, {0x4801, 1, 19, 29},
	{0x3801, 0, 20, 28}, {0x3801, 1, 21, 29},
	{0x3001, 0, 22, 34}, {0x3001, 1, 23, 35},
	{0x2401, 0, 24, 36}, {0x2401, 1, 25, 37},
	{0x1C01, 0, 26, 40}, {0x1C01, 1, 27, 41},
	{0x1601, 0, 58, 42}, {0x1601, 1, 59, 43},
	{0x5601, 0, 30, 29}, {0x5601, 1, 31, 28},
	{0x5401, 0, 32, 28}, {0x5401, 1, 33, 29},
	{0x5101, 0, 34, 30}, {0x5101, 1, 35, 31},
	{0x4801, 0, 36, 32}, {0x4801, 1, 37, 33},
	{0x3801, 0, 38, 34}, {0x3801, 1, 39, 35},
	{0x3401, 0, 40, 36}, {0x3401, 1, 41, 37},
	{0x3001, 0, 42, 38}, {0x3001, 1, 43, 39},
	{0x2801, 0, 44, 38}, {0x2801, 1, 45, 39},
	{0x2401, 0, 46, 40}, {0x2401, 1, 47, 41},
	{0x2201, 0, 48, 42}, {0x2201, 1, 49, 43},
	{0x1C01, 0, 50, 44}, {0x1C01, 1, 51, 45},
	{0x1801, 0, 52, 46}, {0x1801, 1, 53, 47},
	{0x1601, 0, 54, 48}, {0x1601, 1, 55, 49},
	{0x1401, 0, 56, 50}, {0x1401, 1, 57, 51},
	{0x1201, 0, 58, 52}, {0x1201, 1, 59, 53},
	{0x1101, 0, 60, 54}, {0x1101, 1, 61, 55},
	{0x0AC1, 0, 62, 56}, {0x0AC1, 1, 63, 57},
	{0x09C1, 0, 64, 58}, {0x09C1, 1, 65, 59},
	{0x08A1, 0, 66, 60}, {0x08A1, 1, 67, 61},
	{0x0521, 0, 68, 62}, {0x0521, 1, 69, 63},
	{0x0441, 0, 70, 64}, {0x0441, 1, 71, 65},
	{0x02A1, 0, 72, 66}, {0x02A1, 1, 73, 67},
	{0x0221, 0, 74, 68}, {0x0221, 1, 75, 69},
	{0x0141, 0, 76, 70}, {0x0141, 1, 77, 71},
	{0x0111, 0, 78, 72}, {0x0111, 1, 79, 73},
	{0x0085, 0, 80, 74}, {0x0085, 1, 81, 75},
	{0x0049, 0, 82, 76}, {0x0049, 1, 83, 77},
	{0x0025, 0, 84, 78}, {0x0025, 1, 85, 79},
	{0x0015, 0, 86, 80}, {0x0015, 1, 87, 81},
	{0x0009, 0, 88, 82}, {0x0009, 1, 89, 83},
	{0x0005, 0, 90, 84}, {0x0005, 1, 91, 85},
	{0x0001, 0, 90, 86}, {0x0001, 1, 91, 87},
	{0x5601, 0, 92, 92}, // 92 - Uniform context, MPS=0, never adapts
	{0x5601, 1, 93, 93}, // 93 - Uniform context, MPS=1, never adapts
}

var (
	mqQe   [94]uint32
	mqNMPS [94]uint8
	mqNLPS [94]uint8
)

func init() {
	for i, s := range mqStates {
		mqQe[i] = s.Qe
		mqNMPS[i] = s.NMPS
		mqNLPS[i] = s.NLPS
	}
}

// Context indices, ITU-T T.800 Table D.7 groupings.
const (
	CtxZC0 = iota
	CtxZC1
	CtxZC2
	CtxZC3
	CtxZC4
	CtxZC5
	CtxZC6
	CtxZC7
	CtxZC8

	CtxSC0
	CtxSC1
	CtxSC2
	CtxSC3
	CtxSC4

	CtxMag0
	CtxMag1
	CtxMag2

	CtxRL
	CtxUni

	NumContexts
)

// uniformStateIdx is the fixed equiprobable state the UNIFORM context
// starts in and always returns to on reset; it never adapts (NMPS/NLPS
// both loop back to themselves).
const uniformStateIdx = 92

// runLengthStateIdx is the RUN_LEN context's mandated initial state
// (Annex C/D: state index 3 in the Table C.2 numbering, flattened here to
// mqStates[6] = {0x0AC1, MPS=0, NMPS=8, NLPS=24}).
const runLengthStateIdx = 6

// zeroNeighbourStateIdx is the initial state of the all-zero-neighbours
// significance context CtxZC0 (Table D.7: state index 4, flattened here to
// mqStates[8] = {0x0521, MPS=0, NMPS=10, NLPS=58}).
const zeroNeighbourStateIdx = 8

// MQDecoder is the MQ arithmetic decoder (ITU-T T.800 Annex C, decode
// direction only). It owns its own per-context probability state, which
// must never be shared across code-blocks (§9 design note); construct a
// fresh MQDecoder per code-block segment.
type MQDecoder struct {
	C          uint32
	A          uint32
	CT         uint32
	bp         int
	data       []byte
	contexts   [NumContexts]uint8
	endCounter int
}

// NewMQDecoder performs the standard INITDEC procedure over data, the
// compressed byte segment for one code-block.
func NewMQDecoder(data []byte) *MQDecoder {
	d := &MQDecoder{A: 0x8000, data: data, bp: -1}
	d.ResetAllContexts()

	if len(data) == 0 {
		d.C = 0xFF << 16
	} else {
		d.bp = 0
		d.C = uint32(data[0]) << 16
	}
	d.byteIn()
	d.C <<= 7
	d.CT -= 7
	d.A = 0x8000

	return d
}

// byteIn implements BYTEIN (C.3.4): feeds the next byte into C, handling
// the 0xFF marker-detection bit-stuffing rule.
func (d *MQDecoder) byteIn() {
	if d.bp < 0 {
		d.bp = 0
	}
	if d.bp >= len(d.data) {
		d.C += 0xFF00
		d.CT = 8
		d.endCounter++
		return
	}

	var nextByte byte
	if d.bp+1 < len(d.data) {
		nextByte = d.data[d.bp+1]
	} else {
		nextByte = 0xFF
	}

	if d.data[d.bp] == 0xFF {
		if nextByte > 0x8F {
			d.C += 0xFF00
			d.CT = 8
			d.endCounter++
		} else {
			d.bp++
			d.C += uint32(nextByte) << 9
			d.CT = 7
		}
	} else {
		d.bp++
		d.C += uint32(nextByte) << 8
		d.CT = 8
	}
}

// DecodeBit decodes one binary decision under ctx (DECODE, C.3.2),
// including the conditional-exchange logic of Annex C and renormalization.
func (d *MQDecoder) DecodeBit(ctx int) int {
	stateIdx := d.contexts[ctx]
	qe := mqQe[stateIdx]
	mps := int(stateIdx & 1)

	d.A -= qe

	if (d.C >> 16) < qe {
		var decision int
		if d.A < qe {
			d.A = qe
			decision = mps
			d.contexts[ctx] = mqNMPS[stateIdx]
		} else {
			d.A = qe
			decision = 1 - mps
			d.contexts[ctx] = mqNLPS[stateIdx]
		}
		d.renormDec()
		return decision
	}

	d.C -= qe << 16
	if (d.A & 0x8000) == 0 {
		var decision int
		if d.A < qe {
			decision = 1 - mps
			d.contexts[ctx] = mqNLPS[stateIdx]
		} else {
			decision = mps
			d.contexts[ctx] = mqNMPS[stateIdx]
		}
		d.renormDec()
		return decision
	}
	return mps
}

func (d *MQDecoder) renormDec() {
	for (d.A & 0x8000) == 0 {
		if d.CT == 0 {
			d.byteIn()
		}
		d.A <<= 1
		d.C <<= 1
		d.CT--
	}
}

// ResetContext resets ctx to its initial probability state.
func (d *MQDecoder) ResetContext(ctx int) {
	switch ctx {
	case CtxUni:
		d.contexts[ctx] = uniformStateIdx
	case CtxRL:
		d.contexts[ctx] = runLengthStateIdx
	case CtxZC0:
		d.contexts[ctx] = zeroNeighbourStateIdx
	default:
		d.contexts[ctx] = 0
	}
}

// ResetAllContexts resets every context to its initial probability state.
func (d *MQDecoder) ResetAllContexts() {
	for i := range d.contexts {
		d.contexts[i] = 0
	}
	d.contexts[CtxUni] = uniformStateIdx
	d.contexts[CtxRL] = runLengthStateIdx
	d.contexts[CtxZC0] = zeroNeighbourStateIdx
	jp2log.Logger().Debug("mq decoder contexts reset")
}
