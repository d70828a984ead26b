package box

import (
	"errors"
	"io"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
)

// structValidator is the shared validator instance for header-box field
// invariants (non-zero dimensions, non-zero component counts). Built once
// and reused, following the same singleton idiom as entropy.paramsValidator.
var structValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New()
})

// BitDepth is the decomposed form of a JP2 "bits per component" byte: the
// low 7 bits encode bits-per-component minus one, the top bit encodes
// signedness.
type BitDepth struct {
	Bits   uint8
	Signed bool
}

func decomposeBitDepth(raw uint8) BitDepth {
	return BitDepth{Bits: (raw & 0x7F) + 1, Signed: raw&0x80 != 0}
}

// ImageHeaderBox is the required "ihdr" child of the JP2 header box.
type ImageHeaderBox struct {
	Box
	Height               uint32 `validate:"gt=0"`
	Width                uint32 `validate:"gt=0"`
	NumComponents        uint16 `validate:"gt=0"`
	BitsPerComponentRaw  uint8
	CompressionType      uint8 `validate:"eq=7"`
	ColourspaceUnknown   uint8
	IntellectualProperty uint8
}

// ComponentsBits decomposes BitsPerComponentRaw. varies is true when the raw
// byte is 0xFF, meaning per-component depths are carried by a sibling
// "bpcc" box instead.
func (b *ImageHeaderBox) ComponentsBits() (depth BitDepth, varies bool) {
	if b.BitsPerComponentRaw == 0xFF {
		return BitDepth{}, true
	}
	return decomposeBitDepth(b.BitsPerComponentRaw), false
}

func parseImageHeaderBox(b *Box, r *Reader) (*ImageHeaderBox, error) {
	ihdr := &ImageHeaderBox{Box: *b}
	var err error
	if ihdr.Height, err = r.ReadU32BE(); err != nil {
		return nil, err
	}
	if ihdr.Width, err = r.ReadU32BE(); err != nil {
		return nil, err
	}
	if ihdr.NumComponents, err = r.ReadU16BE(); err != nil {
		return nil, err
	}
	if ihdr.BitsPerComponentRaw, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if ihdr.CompressionType, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if ihdr.ColourspaceUnknown, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if ihdr.IntellectualProperty, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	if err := structValidator().Struct(ihdr); err != nil {
		return nil, &MalformedBox{AtOffset: b.Offset, Identifier: "ihdr", Reason: err.Error()}
	}
	if depth, varies := ihdr.ComponentsBits(); !varies && (depth.Bits < 1 || depth.Bits > 38) {
		return nil, &MalformedBox{AtOffset: b.Offset, Identifier: "ihdr", Reason: "bits per component out of range 1..=38"}
	}
	return ihdr, nil
}

// BitsPerCompBox is the optional "bpcc" child carrying one bit-depth byte
// per component, present only when ImageHeaderBox.BitsPerComponentRaw is
// the 0xFF "varies" sentinel.
type BitsPerCompBox struct {
	Box
	Depths []BitDepth
}

func parseBitsPerCompBox(b *Box, r *Reader) (*BitsPerCompBox, error) {
	bpcc := &BitsPerCompBox{Box: *b}
	for r.Remaining() > 0 {
		raw, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		bpcc.Depths = append(bpcc.Depths, decomposeBitDepth(raw))
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return bpcc, nil
}

// Colour spec method codes.
const (
	ColourSpecMethodEnumerated      = 1
	ColourSpecMethodRestrictedICC   = 2
	ColourSpecMethodFullICC         = 3 // Part-2 extension, tolerated not decoded
)

// Enumerated colour space values, ISO/IEC 15444-1 Annex M.
const (
	CSBilevel1  = 0
	CSYCbCr1    = 1
	CSYCbCr2    = 3
	CSYCbCr3    = 4
	CSPhotoYCC  = 9
	CSCMY       = 11
	CSCMYK      = 12
	CSYCCK      = 13
	CSCIELab    = 14
	CSBilevel2  = 15
	CSSRGB      = 16
	CSGray      = 17
	CSsYCC      = 18
	CSCIEJab    = 19
	CSeSRGB     = 20
	CSROMMRGB   = 21
	CSYPbPr1125 = 22
	CSYPbPr1250 = 23
	CSeSYCC     = 24
)

func isKnownEnumeratedColourSpace(v uint32) bool {
	switch v {
	case CSBilevel1, CSYCbCr1, CSYCbCr2, CSYCbCr3, CSPhotoYCC, CSCMY, CSCMYK,
		CSYCCK, CSCIELab, CSBilevel2, CSSRGB, CSGray, CSsYCC, CSCIEJab,
		CSeSRGB, CSROMMRGB, CSYPbPr1125, CSYPbPr1250, CSeSYCC:
		return true
	}
	return false
}

// ColorSpecBox is one "colr" box. Exactly one of EnumeratedColourSpace (when
// Method == ColourSpecMethodEnumerated) or ICCProfile (otherwise) is
// meaningful; IsReservedMethod/IsReservedColourSpace surface out-of-range
// values the standard reserves rather than erroring, per §9's
// reserved-enum-tolerance design note.
type ColorSpecBox struct {
	Box
	Method               uint8
	Precedence           uint8
	Approximation        uint8
	EnumeratedColourSpace uint32
	ICCProfile           []byte
}

// IsReservedMethod reports whether Method is outside {1, 2, 3}.
func (b *ColorSpecBox) IsReservedMethod() bool {
	return b.Method != ColourSpecMethodEnumerated && b.Method != ColourSpecMethodRestrictedICC && b.Method != ColourSpecMethodFullICC
}

// IsReservedColourSpace reports whether EnumeratedColourSpace is outside the
// set this package assigns meaning to. Only meaningful when Method ==
// ColourSpecMethodEnumerated.
func (b *ColorSpecBox) IsReservedColourSpace() bool {
	return !isKnownEnumeratedColourSpace(b.EnumeratedColourSpace)
}

// HasUnexpectedApproximation reports a non-zero approximation value, which
// JP2 forbids but some samples carry (as 1); §9 leaves the hard-error policy
// to the caller.
func (b *ColorSpecBox) HasUnexpectedApproximation() bool {
	return b.Approximation != 0
}

func parseColorSpecBox(b *Box, r *Reader) (*ColorSpecBox, error) {
	colr := &ColorSpecBox{Box: *b}
	var err error
	if colr.Method, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if colr.Precedence, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if colr.Approximation, err = r.ReadU8(); err != nil {
		return nil, err
	}
	switch colr.Method {
	case ColourSpecMethodEnumerated:
		if colr.EnumeratedColourSpace, err = r.ReadU32BE(); err != nil {
			return nil, err
		}
	default:
		// Restricted/full ICC profile, or a reserved method: the remainder
		// of the payload is an opaque byte block either way.
		rest, err := r.ReadExact(int(r.Remaining()))
		if err != nil {
			return nil, err
		}
		colr.ICCProfile = rest
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return colr, nil
}

// PaletteBox is the "pclr" box: a row-major lookup table with an
// independent bit depth per column.
type PaletteBox struct {
	Box
	NumEntries    uint16
	NumComponents uint8 `validate:"gt=0"`
	BitDepths     []BitDepth
	Entries       [][]int64
}

// BitDepthAt returns the bit depth of column, or (_, false) when column is
// out of range.
func (p *PaletteBox) BitDepthAt(column int) (BitDepth, bool) {
	if column < 0 || column >= len(p.BitDepths) {
		return BitDepth{}, false
	}
	return p.BitDepths[column], true
}

// EntryAt returns the value at (row, column), or (_, false) when either
// index is out of range.
func (p *PaletteBox) EntryAt(row, column int) (int64, bool) {
	if row < 0 || row >= len(p.Entries) {
		return 0, false
	}
	if column < 0 || column >= len(p.Entries[row]) {
		return 0, false
	}
	return p.Entries[row][column], true
}

func readPaletteValue(r *Reader, depth BitDepth) (int64, error) {
	nbytes := (int(depth.Bits) + 7) / 8
	data, err := r.ReadExact(nbytes)
	if err != nil {
		return 0, err
	}
	var raw uint64
	for _, by := range data {
		raw = raw<<8 | uint64(by)
	}
	if !depth.Signed {
		return int64(raw), nil
	}
	if depth.Bits < 64 && raw&(uint64(1)<<(depth.Bits-1)) != 0 {
		raw |= ^uint64(0) << depth.Bits
	}
	return int64(raw), nil
}

func parsePaletteBox(b *Box, r *Reader) (*PaletteBox, error) {
	pclr := &PaletteBox{Box: *b}
	var err error
	if pclr.NumEntries, err = r.ReadU16BE(); err != nil {
		return nil, err
	}
	if pclr.NumComponents, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if err := structValidator().StructPartial(pclr, "NumComponents"); err != nil {
		return nil, &MalformedBox{AtOffset: b.Offset, Identifier: "pclr", Reason: err.Error()}
	}
	pclr.BitDepths = make([]BitDepth, pclr.NumComponents)
	for i := range pclr.BitDepths {
		raw, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		pclr.BitDepths[i] = decomposeBitDepth(raw)
	}
	pclr.Entries = make([][]int64, pclr.NumEntries)
	for row := range pclr.Entries {
		entry := make([]int64, pclr.NumComponents)
		for col := range entry {
			v, err := readPaletteValue(r, pclr.BitDepths[col])
			if err != nil {
				return nil, err
			}
			entry[col] = v
		}
		pclr.Entries[row] = entry
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return pclr, nil
}

// ComponentMapping maps one output channel to a decoded component, or
// through a palette column.
type ComponentMapping struct {
	Component     uint16
	MappingType   uint8 // 0 = direct, 1 = palette
	PaletteColumn uint8
}

// ComponentMapBox is the "cmap" box.
type ComponentMapBox struct {
	Box
	Mappings []ComponentMapping
}

func parseComponentMapBox(b *Box, r *Reader) (*ComponentMapBox, error) {
	cmap := &ComponentMapBox{Box: *b}
	for r.Remaining() > 0 {
		component, err := r.ReadU16BE()
		if err != nil {
			return nil, err
		}
		mappingType, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		paletteColumn, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		cmap.Mappings = append(cmap.Mappings, ComponentMapping{
			Component: component, MappingType: mappingType, PaletteColumn: paletteColumn,
		})
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return cmap, nil
}

// ChannelType identifies what a channel carries.
type ChannelType uint16

const (
	ChannelColourImageData      ChannelType = 0
	ChannelOpacity              ChannelType = 1
	ChannelPremultipliedOpacity ChannelType = 2
)

// ChannelDefinition associates one channel with a component and a role.
type ChannelDefinition struct {
	ChannelIndex uint16
	Type         ChannelType
	Association  uint16
}

// ChannelDefBox is the "cdef" box: an ordered list of channel definitions.
type ChannelDefBox struct {
	Box
	Definitions []ChannelDefinition
}

func parseChannelDefBox(b *Box, r *Reader) (*ChannelDefBox, error) {
	cdef := &ChannelDefBox{Box: *b}
	count, err := r.ReadU16BE()
	if err != nil {
		return nil, err
	}
	cdef.Definitions = make([]ChannelDefinition, count)
	for i := range cdef.Definitions {
		idx, err := r.ReadU16BE()
		if err != nil {
			return nil, err
		}
		typ, err := r.ReadU16BE()
		if err != nil {
			return nil, err
		}
		assoc, err := r.ReadU16BE()
		if err != nil {
			return nil, err
		}
		cdef.Definitions[i] = ChannelDefinition{ChannelIndex: idx, Type: ChannelType(typ), Association: assoc}
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return cdef, nil
}

// ResolutionEntryBox is a "resc" or "resd" child of the resolution box.
type ResolutionEntryBox struct {
	Box
	VerticalNumerator     uint16
	VerticalDenominator   uint16
	HorizontalNumerator   uint16
	HorizontalDenominator uint16
	VerticalExponent      int8
	HorizontalExponent    int8
}

// VerticalResolution computes (num/den) * 10^exp.
func (b *ResolutionEntryBox) VerticalResolution() float64 {
	return float64(b.VerticalNumerator) / float64(b.VerticalDenominator) * math.Pow(10, float64(b.VerticalExponent))
}

// HorizontalResolution computes (num/den) * 10^exp.
func (b *ResolutionEntryBox) HorizontalResolution() float64 {
	return float64(b.HorizontalNumerator) / float64(b.HorizontalDenominator) * math.Pow(10, float64(b.HorizontalExponent))
}

func parseResolutionEntryBox(b *Box, r *Reader) (*ResolutionEntryBox, error) {
	e := &ResolutionEntryBox{Box: *b}
	var err error
	if e.VerticalNumerator, err = r.ReadU16BE(); err != nil {
		return nil, err
	}
	if e.VerticalDenominator, err = r.ReadU16BE(); err != nil {
		return nil, err
	}
	if e.HorizontalNumerator, err = r.ReadU16BE(); err != nil {
		return nil, err
	}
	if e.HorizontalDenominator, err = r.ReadU16BE(); err != nil {
		return nil, err
	}
	if e.VerticalExponent, err = r.ReadI8(); err != nil {
		return nil, err
	}
	if e.HorizontalExponent, err = r.ReadI8(); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return e, nil
}

// ResolutionBox is the "res " container.
type ResolutionBox struct {
	Box
	Capture        *ResolutionEntryBox
	DefaultDisplay *ResolutionEntryBox
}

func parseResolutionBox(b *Box, r *Reader) (*ResolutionBox, error) {
	res := &ResolutionBox{Box: *b}
	for {
		child, sub, err := ReadBox(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch child.Type {
		case TypeCaptureRes:
			if res.Capture != nil {
				return nil, &DuplicateSingleton{Parent: "res ", Child: "resc"}
			}
			res.Capture, err = parseResolutionEntryBox(child, sub)
		case TypeDisplayRes:
			if res.DefaultDisplay != nil {
				return nil, &DuplicateSingleton{Parent: "res ", Child: "resd"}
			}
			res.DefaultDisplay, err = parseResolutionEntryBox(child, sub)
		default:
			return nil, &UnexpectedBoxInContainer{Parent: "res ", Child: child.Identifier()}
		}
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// HeaderBox is the "jp2h" super-box. ImageHeader is required; every other
// field is optional per the schema in §3.
type HeaderBox struct {
	Box
	ImageHeader      *ImageHeaderBox
	BitsPerComponent *BitsPerCompBox
	ColourSpecs      []*ColorSpecBox
	Palette          *PaletteBox
	ComponentMap     *ComponentMapBox
	ChannelDef       *ChannelDefBox
	Resolution       *ResolutionBox
}

func parseHeaderBox(b *Box, r *Reader) (*HeaderBox, error) {
	h := &HeaderBox{Box: *b}
	for {
		child, sub, err := ReadBox(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch child.Type {
		case TypeImageHeader:
			if h.ImageHeader != nil {
				return nil, &DuplicateSingleton{Parent: "jp2h", Child: "ihdr"}
			}
			h.ImageHeader, err = parseImageHeaderBox(child, sub)
		case TypeBitsPerComp:
			if h.BitsPerComponent != nil {
				return nil, &DuplicateSingleton{Parent: "jp2h", Child: "bpcc"}
			}
			h.BitsPerComponent, err = parseBitsPerCompBox(child, sub)
		case TypeColorSpec:
			var colr *ColorSpecBox
			colr, err = parseColorSpecBox(child, sub)
			if err == nil {
				h.ColourSpecs = append(h.ColourSpecs, colr)
			}
		case TypePalette:
			if h.Palette != nil {
				return nil, &DuplicateSingleton{Parent: "jp2h", Child: "pclr"}
			}
			h.Palette, err = parsePaletteBox(child, sub)
		case TypeComponentMap:
			if h.ComponentMap != nil {
				return nil, &DuplicateSingleton{Parent: "jp2h", Child: "cmap"}
			}
			h.ComponentMap, err = parseComponentMapBox(child, sub)
		case TypeChannelDef:
			if h.ChannelDef != nil {
				return nil, &DuplicateSingleton{Parent: "jp2h", Child: "cdef"}
			}
			h.ChannelDef, err = parseChannelDefBox(child, sub)
		case TypeResolution:
			if h.Resolution != nil {
				return nil, &DuplicateSingleton{Parent: "jp2h", Child: "res "}
			}
			h.Resolution, err = parseResolutionBox(child, sub)
		default:
			return nil, &UnexpectedBoxInContainer{Parent: "jp2h", Child: child.Identifier()}
		}
		if err != nil {
			return nil, err
		}
	}
	if h.ImageHeader == nil {
		return nil, &MalformedBox{AtOffset: b.Offset, Identifier: "jp2h", Reason: "missing required ihdr child"}
	}
	return h, nil
}
