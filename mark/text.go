package mark

import (
	"github.com/yyyoichi/watermark_desk/internal/bitconv"
	"github.com/yyyoichi/watermark_desk/internal/kmeans"
)

// EncodeText returns the bits embedded for s. Their count is the bit length
// a caller must supply to DecodeText.
func (c *Codec) EncodeText(s string) []bool {
	return shuffle(c, c.ecc.encode(bitconv.BytesToBools([]byte(s))))
}

// TextBytes returns the largest byte count whose encoding is bitLen bits
// long, or 0 when no byte count matches.
func (c *Codec) TextBytes(bitLen int) int {
	_, n := c.textBytes(bitLen)
	return n
}

// textBytes returns the smallest and largest byte counts whose encoding is
// bitLen bits long.
func (c *Codec) textBytes(bitLen int) (lo, hi int) {
	for size := 1; c.ecc.encodedLen(size*8) <= bitLen; size++ {
		if c.ecc.encodedLen(size*8) == bitLen {
			if lo == 0 {
				lo = size
			}
			hi = size
		}
	}
	return lo, hi
}

// DecodeText binarises confidences and reverses EncodeText. When ECC padding
// makes several text lengths encode to the same bit length, the bytes past
// the shortest of them are padding and trailing NULs there are dropped. NULs
// inside the shortest length are kept.
func (c *Codec) DecodeText(confidence []float64) string {
	lo, hi := c.textBytes(len(confidence))
	if hi == 0 {
		return ""
	}
	b := bitconv.BoolsToBytes(c.ecc.decode(unshuffle(c, kmeans.OneDimKmeans(confidence)), hi*8))
	for len(b) > lo && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}
