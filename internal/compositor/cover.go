package compositor

import (
	"image"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
)

// Size is a window or frame size in pixels.
type Size struct {
	W, H int
}

func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// coverRect returns the size src is resized to so it covers win, and the
// window-sized rectangle cut from its center.
func coverRect(src, win Size) (Size, image.Rectangle) {
	scale := max(float64(win.W)/float64(src.W), float64(win.H)/float64(src.H))
	resized := Size{
		W: max(int(float64(src.W)*scale), win.W),
		H: max(int(float64(src.H)*scale), win.H),
	}
	left := (resized.W - win.W) / 2
	top := (resized.H - win.H) / 2
	return resized, image.Rect(left, top, left+win.W, top+win.H)
}

// CoverFit scales src with a Lanczos filter until it covers win and crops
// the center. The result is exactly win.
func CoverFit(src image.Image, win Size) *image.NRGBA {
	b := src.Bounds()
	resized, crop := coverRect(Size{b.Dx(), b.Dy()}, win)
	g := gift.New(
		gift.Resize(resized.W, resized.H, gift.LanczosResampling),
		gift.Crop(crop),
	)
	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, src)
	return dst
}

// thumbnail is the cheaper cover-fit used for previews: the centered
// source region with the aspect of win is scaled straight to win.
func thumbnail(src image.Image, win Size) *image.NRGBA {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw*win.H > sh*win.W {
		sw = sh * win.W / win.H
	} else {
		sh = sw * win.H / win.W
	}
	sw, sh = max(sw, 1), max(sh, 1)
	x0 := b.Min.X + (b.Dx()-sw)/2
	y0 := b.Min.Y + (b.Dy()-sh)/2

	dst := image.NewNRGBA(image.Rect(0, 0, win.W, win.H))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(x0, y0, x0+sw, y0+sh), draw.Src, nil)
	return dst
}
