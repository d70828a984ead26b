package entropy

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jp2kit/jp2core/internal/jp2log"
)

// SubBand identifies one of the four quadrants a 2D wavelet decomposition
// produces. The significance-context tables (§4.5.1) vary by sub-band.
type SubBand int

const (
	SubBandLL SubBand = iota
	SubBandHL
	SubBandLH
	SubBandHH
)

// cell is one entry of the code-block coefficient lattice (§3). A cell that
// has never become significant carries insigShift, the bit-plane shift at
// which the significance pass last considered and rejected it; this lets
// the cleanup pass skip cells its own bit-plane's significance pass already
// visited without re-decoding them.
type cell struct {
	significant bool
	insigShift  uint8
	magnitude   int32
	negative    bool
}

const insigShiftUntouched = 255

var paramsValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New()
})

type codeBlockParams struct {
	Width         int   `validate:"gt=0"`
	Height        int   `validate:"gt=0"`
	NoPasses      uint8 `validate:"lte=164"`
	MagnitudeBits uint8 `validate:"gte=1,lte=38"`
}

// CodeBlockDecoder reconstructs the signed wavelet coefficients of one
// EBCOT Tier-1 code-block from its compressed byte segment (§4.5). Each
// instance owns its own coefficient lattice; it is driven by exactly one
// MQDecoder, which must not be reused across code-blocks (§9).
type CodeBlockDecoder struct {
	width, height int
	subband       SubBand
	noPasses      uint8
	bitPlaneShift uint8
	cells         []cell
}

// NewCodeBlockDecoder constructs a decoder for a width x height code-block
// in the given sub-band. noPasses is the total number of coding passes to
// consume (≤ 164, Table B.4); mb is the magnitude bit budget. The initial
// bit-plane shift is mb-1; call SetNumZeroBitPlanes to account for leading
// all-zero bit-planes signalled out-of-band.
func NewCodeBlockDecoder(width, height int, subband SubBand, noPasses uint8, mb uint8) (*CodeBlockDecoder, error) {
	params := codeBlockParams{Width: width, Height: height, NoPasses: noPasses, MagnitudeBits: mb}
	if err := paramsValidator().Struct(params); err != nil {
		return nil, &CodeBlockDecodeFailure{Reason: err.Error()}
	}
	cells := make([]cell, width*height)
	for i := range cells {
		cells[i].insigShift = insigShiftUntouched
	}
	return &CodeBlockDecoder{
		width: width, height: height, subband: subband, noPasses: noPasses,
		bitPlaneShift: mb - 1, cells: cells,
	}, nil
}

// SetNumZeroBitPlanes subtracts n leading all-zero bit-planes from the
// initial bit-plane shift.
func (d *CodeBlockDecoder) SetNumZeroBitPlanes(n uint8) {
	d.bitPlaneShift -= n
}

func (d *CodeBlockDecoder) idx(x, y int) int {
	return y*d.width + x
}

func (d *CodeBlockDecoder) inBounds(x, y int) bool {
	return x >= 0 && x < d.width && y >= 0 && y < d.height
}

func (d *CodeBlockDecoder) isSignificant(x, y int) bool {
	if !d.inBounds(x, y) {
		return false
	}
	return d.cells[d.idx(x, y)].significant
}

// signContribution returns the neighbour's contribution to a sign context:
// out-of-lattice and insignificant neighbours both contribute 0.
func (d *CodeBlockDecoder) signContribution(x, y int) int8 {
	if !d.inBounds(x, y) {
		return 0
	}
	c := d.cells[d.idx(x, y)]
	if !c.significant {
		return 0
	}
	if c.negative {
		return -1
	}
	return 1
}

// Decode drives the full pass schedule of §4.5 against mq: pass 1 is always
// Cleanup at the highest remaining bit-plane; each subsequent triplet of
// passes (Significance, Refinement, Cleanup) is preceded by decrementing
// the bit-plane shift, until exactly noPasses passes have run (a final
// partial triplet stops at the last counted pass).
func (d *CodeBlockDecoder) Decode(mq *MQDecoder) error {
	jp2log.Logger().Debug("code-block decode start", "width", d.width, "height", d.height, "subband", d.subband, "passes", d.noPasses)
	if d.noPasses == 0 {
		return nil
	}
	d.passCleanup(mq)
	passes := [3]func(*MQDecoder){d.passSignificance, d.passRefinement, d.passCleanup}
	for done := uint8(1); done < d.noPasses; {
		d.bitPlaneShift--
		for _, pass := range passes {
			if done == d.noPasses {
				break
			}
			pass(mq)
			done++
		}
	}
	return nil
}

// Coefficients returns the row-major signed reconstructed coefficients;
// insignificant cells are 0.
func (d *CodeBlockDecoder) Coefficients() []int32 {
	out := make([]int32, len(d.cells))
	for i, c := range d.cells {
		if !c.significant {
			continue
		}
		if c.negative {
			out[i] = -c.magnitude
		} else {
			out[i] = c.magnitude
		}
	}
	return out
}

func (d *CodeBlockDecoder) makeSignificant(x, y int) {
	d.cells[d.idx(x, y)] = cell{significant: true, magnitude: int32(1) << d.bitPlaneShift}
}

func (d *CodeBlockDecoder) decodeSignBit(x, y int, mq *MQDecoder) {
	ctx, xorFlag := d.signContext(x, y)
	bit := mq.DecodeBit(ctx)
	i := d.idx(x, y)
	d.cells[i].negative = (uint8(bit) ^ xorFlag) != 0
}

// significanceContext implements ITU-T T.800 Table D.1 (§4.5.1).
func (d *CodeBlockDecoder) significanceContext(x, y int) int {
	h := 0
	if d.isSignificant(x-1, y) {
		h++
	}
	if d.isSignificant(x+1, y) {
		h++
	}
	v := 0
	if d.isSignificant(x, y-1) {
		v++
	}
	if d.isSignificant(x, y+1) {
		v++
	}
	dd := 0
	if d.isSignificant(x-1, y-1) {
		dd++
	}
	if d.isSignificant(x+1, y-1) {
		dd++
	}
	if d.isSignificant(x-1, y+1) {
		dd++
	}
	if d.isSignificant(x+1, y+1) {
		dd++
	}

	switch d.subband {
	case SubBandLL, SubBandLH:
		switch {
		case h == 0 && v == 0 && dd == 0:
			return CtxZC0
		case h == 0 && v == 0 && dd == 1:
			return CtxZC1
		case h == 0 && v == 0:
			return CtxZC2
		case h == 0 && v == 1:
			return CtxZC3
		case h == 0 && v == 2:
			return CtxZC4
		case h == 1 && v == 0 && dd == 0:
			return CtxZC5
		case h == 1 && v == 0:
			return CtxZC6
		case h == 1:
			return CtxZC7
		case h == 2:
			return CtxZC8
		}
	case SubBandHL:
		switch {
		case h == 0 && v == 0 && dd == 0:
			return CtxZC0
		case h == 0 && v == 0 && dd == 1:
			return CtxZC1
		case h == 0 && v == 0:
			return CtxZC2
		case h == 1 && v == 0:
			return CtxZC3
		case h == 2 && v == 0:
			return CtxZC4
		case h == 0 && v == 1 && dd == 0:
			return CtxZC5
		case h == 0 && v == 1:
			return CtxZC6
		case v == 1:
			return CtxZC7
		case v == 2:
			return CtxZC8
		}
	case SubBandHH:
		hv := h + v
		switch {
		case hv == 0 && dd == 0:
			return CtxZC0
		case hv == 1 && dd == 0:
			return CtxZC1
		case hv >= 2 && dd == 0:
			return CtxZC2
		case hv == 0 && dd == 1:
			return CtxZC3
		case hv == 1 && dd == 1:
			return CtxZC4
		case hv >= 2 && dd == 1:
			return CtxZC5
		case hv == 0 && dd == 2:
			return CtxZC6
		case hv >= 1 && dd == 2:
			return CtxZC7
		case dd >= 3:
			return CtxZC8
		}
	}
	panic("entropy: unreachable significance context: no table entry matched neighbour counts")
}

// signContext implements ITU-T T.800 Table D.3 (§4.5.2), returning the
// context index and the xor flag applied to the decoded bit.
func (d *CodeBlockDecoder) signContext(x, y int) (int, uint8) {
	contribution := func(a, b int8) int8 {
		switch total := a + b; {
		case total >= 1:
			return 1
		case total == 0:
			return 0
		default:
			return -1
		}
	}
	hc := contribution(d.signContribution(x-1, y), d.signContribution(x+1, y))
	vc := contribution(d.signContribution(x, y-1), d.signContribution(x, y+1))

	switch {
	case hc == 1 && vc == 1:
		return CtxSC4, 0
	case hc == 1 && vc == 0:
		return CtxSC3, 0
	case hc == 1 && vc == -1:
		return CtxSC2, 0
	case hc == 0 && vc == 1:
		return CtxSC1, 0
	case hc == 0 && vc == 0:
		return CtxSC0, 0
	case hc == 0 && vc == -1:
		return CtxSC1, 1
	case hc == -1 && vc == 1:
		return CtxSC2, 1
	case hc == -1 && vc == 0:
		return CtxSC3, 1
	default: // hc == -1 && vc == -1
		return CtxSC4, 1
	}
}

// magnitudeContext implements §4.5.3: context 16 on every refinement after
// the first, else 15 when any neighbour (orthogonal or diagonal) is
// significant, else 14.
func (d *CodeBlockDecoder) magnitudeContext(x, y int) int {
	c := d.cells[d.idx(x, y)]
	if (c.magnitude >> (1 + d.bitPlaneShift)) != 1 {
		return CtxMag2
	}
	orth := 0
	for _, sig := range []bool{d.isSignificant(x-1, y), d.isSignificant(x+1, y), d.isSignificant(x, y-1), d.isSignificant(x, y+1)} {
		if sig {
			orth++
		}
	}
	if orth > 0 {
		return CtxMag1
	}
	diag := 0
	for _, sig := range []bool{d.isSignificant(x-1, y-1), d.isSignificant(x+1, y-1), d.isSignificant(x-1, y+1), d.isSignificant(x+1, y+1)} {
		if sig {
			diag++
		}
	}
	if diag > 0 {
		return CtxMag1
	}
	return CtxMag0
}

// forEachColumnStrip walks the 4-row column strips in the scan order §5
// fixes: for each strip top by, for each column x, then a visitor gets the
// strip's row range.
func (d *CodeBlockDecoder) forEachColumnStrip(visit func(by, x, yEnd int)) {
	for by := 0; by < d.height; by += 4 {
		yEnd := by + 4
		if yEnd > d.height {
			yEnd = d.height
		}
		for x := 0; x < d.width; x++ {
			visit(by, x, yEnd)
		}
	}
}

func (d *CodeBlockDecoder) passSignificance(mq *MQDecoder) {
	d.forEachColumnStrip(func(by, x, yEnd int) {
		for y := by; y < yEnd; y++ {
			i := d.idx(x, y)
			if d.cells[i].significant {
				continue // D1
			}
			ctx := d.significanceContext(x, y)
			if ctx == CtxZC0 {
				continue // D2
			}
			if mq.DecodeBit(ctx) == 1 {
				d.makeSignificant(x, y)
				d.decodeSignBit(x, y, mq)
			} else {
				d.cells[i].insigShift = d.bitPlaneShift
			}
		}
	})
}

func (d *CodeBlockDecoder) passRefinement(mq *MQDecoder) {
	d.forEachColumnStrip(func(by, x, yEnd int) {
		for y := by; y < yEnd; y++ {
			i := d.idx(x, y)
			c := d.cells[i]
			if !c.significant {
				continue // D5
			}
			if (c.magnitude>>d.bitPlaneShift)&1 == 1 {
				continue // D6
			}
			ctx := d.magnitudeContext(x, y)
			bit := mq.DecodeBit(ctx)
			d.cells[i].magnitude |= int32(bit) << d.bitPlaneShift
		}
	})
}

// decodeSignificanceUnconditional is the cleanup pass's tail-of-strip
// decode: unlike the significance-propagation pass, it does not skip a
// zero-valued context — it only skips a cell the significance pass already
// decided against at this exact bit-plane.
func (d *CodeBlockDecoder) decodeSignificanceUnconditional(x, y int, mq *MQDecoder) bool {
	i := d.idx(x, y)
	if d.cells[i].insigShift == d.bitPlaneShift {
		return false
	}
	ctx := d.significanceContext(x, y)
	if mq.DecodeBit(ctx) == 1 {
		d.makeSignificant(x, y)
		return true
	}
	return false
}

func (d *CodeBlockDecoder) passCleanup(mq *MQDecoder) {
	d.forEachColumnStrip(func(by, x, yEnd int) {
		offsetY := 0

		countInsig := 0
		for y := by; y < yEnd; y++ {
			if !d.isSignificant(x, y) {
				countInsig++
			}
		}
		d8 := yEnd-by == 4 && countInsig == 4
		if d8 {
			if mq.DecodeBit(CtxRL) != 1 {
				return // no coefficient becomes significant this pass
			}
			a := mq.DecodeBit(CtxUni)
			b := mq.DecodeBit(CtxUni)
			c5 := 2*a + b
			offsetY += c5
			d.makeSignificant(x, by+offsetY)
			d.decodeSignBit(x, by+offsetY, mq)
			offsetY++
		}

		for y := by + offsetY; y < yEnd; y++ {
			if d.isSignificant(x, y) {
				continue
			}
			if d.decodeSignificanceUnconditional(x, y, mq) {
				d.decodeSignBit(x, y, mq)
			}
		}
	})
}
