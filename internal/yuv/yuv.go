package yuv

import (
	"image"
	"image/color"
)

// https://github.com/opencv/opencv/blob/0e88b49a53842f0f7cdc4c61b98c283be7e5057c/modules/imgproc/src/opencl/color_yuv.cl#L148-L234

const delta = .5
const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
	uf = 0.492
	vf = 0.877
)

// exact inverses of the forward coefficients
const (
	vr = 1 / vf
	ub = 1 / uf
	ug = -yb / yg / uf
	vg = -yr / yg / vf
)

// Planes is an image split into Y, U and V float planes on a 0..255 scale.
type Planes struct {
	Bounds        image.Rectangle
	Width, Height int
	// Channels holds Y, U, V in that order.
	Channels [3][]float32
	alpha    []uint16
}

// FromImage converts src. Samples keep 16-bit precision so that a marked
// image written as 16-bit PNG reads back without rounding loss.
func FromImage(src image.Image) *Planes {
	b := src.Bounds()
	p := &Planes{
		Bounds: b,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	area := p.Width * p.Height
	for i := range p.Channels {
		p.Channels[i] = make([]float32, area)
	}
	p.alpha = make([]uint16, area)

	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(src.At(x, y)).(color.NRGBA64)
			r := float32(c.R) / 257
			g := float32(c.G) / 257
			bl := float32(c.B) / 257

			yVal := yr*r + yg*g + yb*bl
			p.Channels[0][idx] = yVal
			p.Channels[1][idx] = uf*(bl-yVal) + delta
			p.Channels[2][idx] = vf*(r-yVal) + delta
			p.alpha[idx] = c.A
			idx++
		}
	}
	return p
}

// Image converts the planes back to RGB.
func (p *Planes) Image() *image.NRGBA64 {
	dst := image.NewNRGBA64(image.Rect(0, 0, p.Width, p.Height))
	idx := 0
	for y := range p.Height {
		for x := range p.Width {
			yVal := p.Channels[0][idx]
			uDelta := p.Channels[1][idx] - delta
			vDelta := p.Channels[2][idx] - delta

			dst.SetNRGBA64(x, y, color.NRGBA64{
				R: clip16(yVal + vr*vDelta),
				G: clip16(yVal + ug*uDelta + vg*vDelta),
				B: clip16(yVal + ub*uDelta),
				A: p.alpha[idx],
			})
			idx++
		}
	}
	return dst
}

func clip16(v float32) uint16 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 65535
	}
	return uint16(v*257 + 0.5)
}
