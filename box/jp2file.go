package box

import (
	"errors"
	"io"
)

// JP2File is the root aggregate produced by DecodeJP2: every well-known box
// recognised at the top level, plus any unrecognised boxes preserved
// opaquely in source order.
type JP2File struct {
	Signature            *SignatureBox
	FileType             *FileTypeBox
	Header               *HeaderBox
	IntellectualProperty *IntellectualPropertyBox
	XMLBoxes             []*XMLBox
	UUIDBoxes            []*UUIDBox
	UUIDInfoBoxes        []*UUIDInfoBox
	Codestreams          []*ContiguousCodestreamBox
	Unknown              []*UnknownBox
	Length               uint64
}

// DecodeJP2 parses a complete JP2 container from r, populating every
// well-known box. Unknown top-level boxes are retained opaquely rather than
// rejected.
func DecodeJP2(r io.Reader) (*JP2File, error) {
	br := NewReader(r)
	f := &JP2File{}

	for {
		b, sub, err := ReadBox(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		f.Length += b.Length

		switch b.Type {
		case TypeSignature:
			if f.Signature != nil {
				return nil, &DuplicateSingleton{Parent: "jp2", Child: "jP  "}
			}
			f.Signature, err = parseSignatureBox(b, sub)
		case TypeFileType:
			if f.FileType != nil {
				return nil, &DuplicateSingleton{Parent: "jp2", Child: "ftyp"}
			}
			f.FileType, err = parseFileTypeBox(b, sub)
		case TypeJP2Header:
			if f.Header != nil {
				return nil, &DuplicateSingleton{Parent: "jp2", Child: "jp2h"}
			}
			f.Header, err = parseHeaderBox(b, sub)
		case TypeIPR:
			if f.IntellectualProperty != nil {
				return nil, &DuplicateSingleton{Parent: "jp2", Child: "jp2i"}
			}
			f.IntellectualProperty, err = parseIntellectualPropertyBox(b, sub)
		case TypeXML:
			var xml *XMLBox
			xml, err = parseXMLBox(b, sub)
			if err == nil {
				f.XMLBoxes = append(f.XMLBoxes, xml)
			}
		case TypeUUID:
			var u *UUIDBox
			u, err = parseUUIDBox(b, sub)
			if err == nil {
				f.UUIDBoxes = append(f.UUIDBoxes, u)
			}
		case TypeUUIDInfo:
			var info *UUIDInfoBox
			info, err = parseUUIDInfoBox(b, sub)
			if err == nil {
				f.UUIDInfoBoxes = append(f.UUIDInfoBoxes, info)
			}
		case TypeContCodestream:
			var cs *ContiguousCodestreamBox
			cs, err = parseContiguousCodestreamBox(b, sub)
			if err == nil {
				f.Codestreams = append(f.Codestreams, cs)
			}
		default:
			var unk *UnknownBox
			unk, err = parseUnknownBox(b, sub)
			if err == nil {
				f.Unknown = append(f.Unknown, unk)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Validate checks the top-level structural invariants §8 quantifies over
// every accepted file: signature present and correct, file-type brand and
// compatibility, exactly one header box, at least one codestream.
func (f *JP2File) Validate() error {
	if f.Signature == nil {
		return &MalformedBox{Identifier: "jp2", Reason: "missing signature box"}
	}
	if f.FileType == nil {
		return &MalformedBox{Identifier: "jp2", Reason: "missing file type box"}
	}
	if f.FileType.Brand != Type(0x6A703220) { // "jp2 "
		return &MalformedBox{AtOffset: f.FileType.Offset, Identifier: "ftyp", Reason: "brand is not \"jp2 \""}
	}
	if f.FileType.MinorVersion != 0 {
		return &MalformedBox{AtOffset: f.FileType.Offset, Identifier: "ftyp", Reason: "minor version is not 0"}
	}
	if !f.FileType.HasCompatibility(Type(0x6A703220)) {
		return &MalformedBox{AtOffset: f.FileType.Offset, Identifier: "ftyp", Reason: "compatibility list does not include \"jp2 \""}
	}
	if f.Header == nil {
		return &MalformedBox{Identifier: "jp2", Reason: "missing jp2h header box"}
	}
	if len(f.Codestreams) == 0 {
		return &MalformedBox{Identifier: "jp2", Reason: "no contiguous codestream box present"}
	}
	return nil
}
