package watermark

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is the kind of watermark payload.
type Mode int

const (
	ModeText Mode = iota
	ModeImage
	ModeBits
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeImage:
		return "image"
	case ModeBits:
		return "bits"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts text|str, image|img and bits|bit.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "str":
		return ModeText, nil
	case "image", "img":
		return ModeImage, nil
	case "bits", "bit":
		return ModeBits, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Shape tells Extract how many bits to read. Text and bits use W as the bit
// length; image uses W x H pixels.
type Shape struct {
	W, H int
}

// MaxShapeBits bounds the bits a shape may describe, a 4096x4096 image mark.
const MaxShapeBits = 1 << 24

// Bits returns the number of embedded bits described by s. Call Check first
// on shapes that did not come from ParseShape.
func (s Shape) Bits(mode Mode) int {
	if mode == ModeImage {
		return s.W * s.H
	}
	return s.W
}

// ParseShape parses "w,h" for image mode and "n" otherwise. Every number
// must be a positive integer.
func ParseShape(s string, mode Mode) (Shape, error) {
	parts := strings.Split(s, ",")
	want := 1
	if mode == ModeImage {
		want = 2
	}
	if len(parts) != want {
		return Shape{}, fmt.Errorf("%s shape needs %d positive integers, got %q", mode, want, s)
	}
	vals := make([]int, want)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 1 {
			return Shape{}, fmt.Errorf("%s shape needs %d positive integers, got %q", mode, want, s)
		}
		vals[i] = v
	}
	shape := Shape{W: vals[0]}
	if want == 2 {
		shape.H = vals[1]
	}
	if err := shape.Check(mode); err != nil {
		return Shape{}, err
	}
	return shape, nil
}

// Check reports a shape with a non-positive side or more than MaxShapeBits
// bits. Errors wrap ErrInvalidShape.
func (s Shape) Check(mode Mode) error {
	if s.W < 1 || (mode == ModeImage && s.H < 1) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidShape, s.W, s.H)
	}
	if mode == ModeImage {
		if s.W > MaxShapeBits/s.H {
			return fmt.Errorf("%w: %dx%d exceeds %d bits", ErrInvalidShape, s.W, s.H, MaxShapeBits)
		}
		return nil
	}
	if s.W > MaxShapeBits {
		return fmt.Errorf("%w: %d exceeds %d bits", ErrInvalidShape, s.W, MaxShapeBits)
	}
	return nil
}
