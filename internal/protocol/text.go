package protocol

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// DecodeName turns wire bytes into a display name. Invalid UTF-8 is replaced
// with U+FFFD and never fails the packet carrying it.
func DecodeName(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	// decoders carry transform state, so one per call
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string([]rune(string(b)))
	}
	return string(out)
}
