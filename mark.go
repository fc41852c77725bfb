package watermark

// Payload is the watermark handed to ReadWatermark.
type Payload struct {
	mode Mode
	text string
	bits []bool
	path string
}

func TextPayload(s string) Payload {
	return Payload{mode: ModeText, text: s}
}

func BitsPayload(bits []bool) Payload {
	return Payload{mode: ModeBits, bits: bits}
}

// ImagePayload embeds the image at path, binarised to black and white.
func ImagePayload(path string) Payload {
	return Payload{mode: ModeImage, path: path}
}

func (p Payload) Mode() Mode {
	return p.mode
}

// Extracted is what Extract recovers. Text is set in text mode; Confidence
// holds one value in [0, 1] per embedded bit in bits and image mode.
type Extracted struct {
	Text       string
	Confidence []float64
}
