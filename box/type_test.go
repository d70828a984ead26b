package box

import "testing"

func TestType_String(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{TypeSignature, "jP  "},
		{TypeFileType, "ftyp"},
		{TypeJP2Header, "jp2h"},
		{TypeImageHeader, "ihdr"},
		{TypeColorSpec, "colr"},
		{TypeContCodestream, "jp2c"},
		{TypeIPR, "jp2i"},
		{TypeResolution, "res "},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type(%08X).String() = %q, want %q", uint32(tt.typ), got, tt.want)
		}
	}
}
