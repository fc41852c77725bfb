package mark

// EncodeBits shuffles bits without error correction.
func (c *Codec) EncodeBits(bits []bool) []bool {
	return shuffle(c, bits)
}

// DecodeBits restores the original order of per-bit confidences.
func (c *Codec) DecodeBits(confidence []float64) []float64 {
	return unshuffle(c, confidence)
}
