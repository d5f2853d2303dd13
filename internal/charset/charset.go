// Package charset decodes the exports' bytes into UTF-8 and encodes output
// files back into the encoding a caller asks for. Encodings are tried as an
// ordered list; there is no detection heuristic.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names a supported character encoding.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Latin1      Encoding = "latin-1"
	Windows1252 Encoding = "windows-1252"
)

// Parse normalizes the usual spellings of an encoding name.
func Parse(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "utf-8-sig":
		return UTF8, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1", "l1":
		return Latin1, nil
	case "windows-1252", "cp1252":
		return Windows1252, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", name)
	}
}

// ParseList parses a list of encoding names, keeping their order.
func ParseList(names []string) ([]Encoding, error) {
	out := make([]Encoding, 0, len(names))
	for _, n := range names {
		e, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Decode converts raw bytes in e into UTF-8. UTF-8 input is validated
// strictly and a leading byte order mark is dropped; the single-byte
// encodings accept every byte.
func (e Encoding) Decode(raw []byte) ([]byte, error) {
	switch e {
	case UTF8:
		if _, _, err := transform.Bytes(encoding.UTF8Validator, raw); err != nil {
			return nil, err
		}
		out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
		return out, err
	case Latin1:
		return charmap.ISO8859_1.NewDecoder().Bytes(raw)
	case Windows1252:
		return charmap.Windows1252.NewDecoder().Bytes(raw)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", string(e))
	}
}

// Encode converts UTF-8 text into e. Runes the target cannot represent are
// an error.
func (e Encoding) Encode(text []byte) ([]byte, error) {
	switch e {
	case UTF8:
		if _, _, err := transform.Bytes(encoding.UTF8Validator, text); err != nil {
			return nil, err
		}
		return text, nil
	case Latin1:
		return charmap.ISO8859_1.NewEncoder().Bytes(text)
	case Windows1252:
		return charmap.Windows1252.NewEncoder().Bytes(text)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", string(e))
	}
}

// Attempt records one failed decode.
type Attempt struct {
	Encoding Encoding
	Err      error
}

// DecodeError lists every encoding that was tried.
type DecodeError struct {
	Attempts []Attempt
}

func (e *DecodeError) Error() string {
	if len(e.Attempts) == 0 {
		return "no encodings configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Encoding, a.Err)
	}
	return "could not decode with any encoding (" + strings.Join(parts, "; ") + ")"
}

// DecodeFirst decodes raw with the first encoding of encs that succeeds and
// reports which one it was.
func DecodeFirst(raw []byte, encs []Encoding) ([]byte, Encoding, error) {
	failed := &DecodeError{}
	for _, e := range encs {
		out, err := e.Decode(raw)
		if err == nil {
			return out, e, nil
		}
		failed.Attempts = append(failed.Attempts, Attempt{Encoding: e, Err: err})
	}
	return nil, "", failed
}
