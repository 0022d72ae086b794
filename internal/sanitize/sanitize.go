// Package sanitize repairs report streams whose producers write raw angle brackets inside
// quoted attribute values. Quotes are treated as plain, non-nesting toggles; no other XML
// escaping rules are applied.
package sanitize

import (
	"bufio"
	"bytes"
	"io"
)

var (
	escapedLT = []byte("&lt;")
	escapedGT = []byte("&gt;")
)

// QuotedMarkup reads r to the end and returns a reader over the escaped bytes.
// The whole output is buffered in memory. Read errors from r are returned unchanged.
func QuotedMarkup(r io.Reader) (io.Reader, error) {
	var out bytes.Buffer
	br := bufio.NewReader(r)
	inQuotes := false

	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		inQuotes = writeByte(&out, b, inQuotes)
	}

	return bytes.NewReader(out.Bytes()), nil
}

// QuotedMarkupBytes applies the same transform to an in-memory slice.
func QuotedMarkupBytes(in []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(in))
	inQuotes := false
	for _, b := range in {
		inQuotes = writeByte(&out, b, inQuotes)
	}
	return out.Bytes()
}

// writeByte emits b and returns the quote state after it.
// An unbalanced quote leaves the state set for every remaining byte.
func writeByte(out *bytes.Buffer, b byte, inQuotes bool) bool {
	switch {
	case b == '"':
		out.WriteByte(b)
		return !inQuotes
	case inQuotes && b == '<':
		out.Write(escapedLT)
	case inQuotes && b == '>':
		out.Write(escapedGT)
	default:
		out.WriteByte(b)
	}
	return inQuotes
}
