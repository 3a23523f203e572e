package secrets

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// codecFor maps a configured encoding name to its text encoding.
func codecFor(name string) (encoding.Encoding, error) {
	switch name {
	case "utf-8":
		return unicode.UTF8, nil
	case "utf-8-bom":
		// Strips a leading byte-order mark on decode and writes one on encode.
		return unicode.UTF8BOM, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// decodeText converts raw file bytes into UTF-8 document text. The x/text
// decoders substitute U+FFFD for bad sequences, so validity is checked first.
func decodeText(enc encoding.Encoding, raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("file is not valid UTF-8")
	}
	return enc.NewDecoder().Bytes(raw)
}

func encodeText(enc encoding.Encoding, text []byte) ([]byte, error) {
	return enc.NewEncoder().Bytes(text)
}
