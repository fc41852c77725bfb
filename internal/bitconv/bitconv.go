package bitconv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadToken reports a bit list token that is not 0 or 1.
var ErrBadToken = errors.New("bit token must be 0 or 1")

func BytesToBools(b []byte) []bool {
	bits := make([]bool, 0, len(b)*8)
	for _, bb := range b {
		for i := 7; i >= 0; i-- {
			bits = append(bits, ((bb>>uint(i))&1) == 1)
		}
	}
	return bits
}

// BoolsToBytes packs bits MSB first; a trailing partial byte is zero padded.
func BoolsToBytes(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// ParseList parses a comma-separated list such as "1,0,1,1".
// Whitespace around tokens is ignored.
func ParseList(s string) ([]bool, error) {
	tokens := strings.Split(s, ",")
	bits := make([]bool, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q is not an integer", ErrBadToken, i, tok)
		}
		switch v {
		case 0:
		case 1:
			bits[i] = true
		default:
			return nil, fmt.Errorf("%w: token %d is %d", ErrBadToken, i, v)
		}
	}
	return bits, nil
}

// FormatThreshold binarizes confidences (v >= cut is 1) and joins them
// with commas.
func FormatThreshold(values []float64, cut float64) string {
	var sb strings.Builder
	sb.Grow(len(values) * 2)
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		if v >= cut {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
