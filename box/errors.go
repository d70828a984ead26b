package box

import "fmt"

// ErrTruncatedBox is returned when the underlying stream (or a bounded
// sub-reader's declared length) ends before a read completes.
var ErrTruncatedBox = fmt.Errorf("box: truncated box")

// ErrExtraPayload is returned when a box's declared length carries more
// bytes than its schema consumed.
var ErrExtraPayload = fmt.Errorf("box: extra payload beyond parsed schema")

// ErrBadMagic is returned when the 4-byte payload of the JP2 signature box
// is not the fixed 0D 0A 87 0A sequence required by ISO/IEC 15444-1 Annex I.
var ErrBadMagic = fmt.Errorf("box: bad JP2 signature")

// MalformedBox reports a structural violation found while parsing a box's
// payload: a field out of range, a child box appearing where the schema
// forbids it, a required child missing. AtOffset is the byte offset of the
// box header in the enclosing stream.
type MalformedBox struct {
	AtOffset   int64
	Identifier string
	Reason     string
}

func (e *MalformedBox) Error() string {
	return fmt.Sprintf("box: malformed %q box at offset %d: %s", e.Identifier, e.AtOffset, e.Reason)
}

// InvalidEnum describes a field whose value falls outside the set this
// package assigns meaning to. No parser in this package returns it:
// known-reserved ranges (colour-spec method, enumerated colourspace,
// channel type) are kept as raw values on the parsed box (see
// ColorSpecBox.IsReservedMethod and IsReservedColourSpace) so callers can
// decide, rather than raised as a parse failure.
type InvalidEnum struct {
	Field string
	Value uint32
}

func (e *InvalidEnum) Error() string {
	return fmt.Sprintf("box: reserved/unrecognized value %d for %s", e.Value, e.Field)
}

// UnsupportedFeature is returned for wire forms this package recognizes but
// does not implement (for example a box length form not yet handled).
type UnsupportedFeature struct {
	Feature string
}

func (e *UnsupportedFeature) Error() string {
	return fmt.Sprintf("box: unsupported feature: %s", e.Feature)
}

// UnexpectedBoxInContainer is returned when a container box (jp2h, res ,
// uinf) encounters a child its schema forbids.
type UnexpectedBoxInContainer struct {
	Parent string
	Child  string
}

func (e *UnexpectedBoxInContainer) Error() string {
	return fmt.Sprintf("box: unexpected %q box inside %q container", e.Child, e.Parent)
}

// DuplicateSingleton is returned when a box that the schema allows at most
// once inside a given container appears a second time.
type DuplicateSingleton struct {
	Parent string
	Child  string
}

func (e *DuplicateSingleton) Error() string {
	return fmt.Sprintf("box: duplicate %q box inside %q container", e.Child, e.Parent)
}
