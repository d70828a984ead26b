package box

// SignatureBox is the mandatory first box of a well-formed JP2 file,
// identifier "jP  ", carrying the fixed 4-byte signature.
type SignatureBox struct {
	Box
	Signature [4]byte
}

var jp2SignatureBytes = [4]byte{0x0D, 0x0A, 0x87, 0x0A}

func parseSignatureBox(b *Box, r *Reader) (*SignatureBox, error) {
	data, err := r.ReadExact(4)
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	sig := &SignatureBox{Box: *b}
	copy(sig.Signature[:], data)
	if sig.Signature != jp2SignatureBytes {
		return nil, ErrBadMagic
	}
	return sig, nil
}

// FileTypeBox is the "ftyp" box: a brand, minor version, and ordered
// compatibility list.
type FileTypeBox struct {
	Box
	Brand         Type
	MinorVersion  uint32
	Compatibility []Type
}

// HasCompatibility reports whether brand appears anywhere in the
// compatibility list.
func (b *FileTypeBox) HasCompatibility(brand Type) bool {
	for _, c := range b.Compatibility {
		if c == brand {
			return true
		}
	}
	return false
}

func parseFileTypeBox(b *Box, r *Reader) (*FileTypeBox, error) {
	brand, err := r.ReadU32BE()
	if err != nil {
		return nil, err
	}
	minor, err := r.ReadU32BE()
	if err != nil {
		return nil, err
	}
	ftyp := &FileTypeBox{Box: *b, Brand: Type(brand), MinorVersion: minor}
	for r.Remaining() > 0 {
		c, err := r.ReadU32BE()
		if err != nil {
			return nil, err
		}
		ftyp.Compatibility = append(ftyp.Compatibility, Type(c))
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return ftyp, nil
}
