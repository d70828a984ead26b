package box

// ContiguousCodestreamBox is the "jp2c" box. Its payload is the embedded
// JPEG 2000 codestream; this package records only its (Offset, Length)
// locator and does not parse the marker-segment stream within.
type ContiguousCodestreamBox struct {
	Box
	PayloadOffset int64
	PayloadLength int64
}

func parseContiguousCodestreamBox(b *Box, r *Reader) (*ContiguousCodestreamBox, error) {
	payloadOffset := b.Offset + (int64(b.Length) - r.Remaining())
	n := r.Remaining()
	if err := r.Skip(n); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return &ContiguousCodestreamBox{Box: *b, PayloadOffset: payloadOffset, PayloadLength: n}, nil
}

// IntellectualPropertyBox is the "jp2i" box: an opaque payload (observed in
// the wild holding free-form rights-management text), parsed identically
// to the xml/url trailing-text boxes — no internal schema of its own.
type IntellectualPropertyBox struct {
	Box
	Content []byte
}

func parseIntellectualPropertyBox(b *Box, r *Reader) (*IntellectualPropertyBox, error) {
	content, err := r.ReadExact(int(r.Remaining()))
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return &IntellectualPropertyBox{Box: *b, Content: content}, nil
}

// XMLBox is an "xml " box: opaque bytes treated as UTF-8 text.
type XMLBox struct {
	Box
	Content []byte
}

func parseXMLBox(b *Box, r *Reader) (*XMLBox, error) {
	content, err := r.ReadExact(int(r.Remaining()))
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return &XMLBox{Box: *b, Content: content}, nil
}

// Text returns the XML box content as a string.
func (b *XMLBox) Text() string {
	return string(b.Content)
}

// UnknownBox preserves a top-level box this package does not recognize, per
// §7's "unknown box identifiers at the top level are not errors" policy.
type UnknownBox struct {
	Box
	Contents []byte
}

func parseUnknownBox(b *Box, r *Reader) (*UnknownBox, error) {
	contents, err := r.ReadExact(int(r.Remaining()))
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return &UnknownBox{Box: *b, Contents: contents}, nil
}
