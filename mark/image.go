package mark

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Threshold above which a gray pixel is embedded as a white bit.
const lumaThreshold = 128

// EncodeImage converts img to gray and returns one bit per pixel, row-major,
// true for white.
func (c *Codec) EncodeImage(img image.Image) []bool {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	bits := make([]bool, 0, len(gray.Pix))
	for y := range b.Dy() {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for _, v := range row {
			bits = append(bits, v > lumaThreshold)
		}
	}
	return shuffle(c, bits)
}

// DecodeImage renders confidences as a w x h gray image, 255 times the
// confidence of each pixel. A shape that does not match the confidence
// count yields an empty image.
func (c *Codec) DecodeImage(confidence []float64, w, h int) *image.Gray {
	if w < 1 || h < 1 || len(confidence)%w != 0 || len(confidence)/w != h {
		return image.NewGray(image.Rectangle{})
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range unshuffle(c, confidence) {
		v = math.Max(0, math.Min(1, v))
		gray.Pix[(i/w)*gray.Stride+i%w] = uint8(math.Round(255 * v))
	}
	return gray
}
