package entropy

import "fmt"

// CodeBlockDecodeFailure reports code-block decoder construction parameters
// outside the values ISO/IEC 15444-1 allows (see NewCodeBlockDecoder).
// CodeBlockDecoder.Decode does not return it: the magnitude budget is not
// checked during decoding, and the MQ decoder keeps decoding on synthetic
// 0xFF bytes once the compressed segment is exhausted.
type CodeBlockDecodeFailure struct {
	Reason string
}

func (e *CodeBlockDecodeFailure) Error() string {
	return fmt.Sprintf("entropy: code-block decode failed: %s", e.Reason)
}
