package watermark

import (
	"image"

	"github.com/yyyoichi/watermark_desk/internal/yuv"
)

// Source is a decoded cover image held as YUV planes.
type Source struct {
	planes                *yuv.Planes
	waveWidth, waveHeight int
}

func NewSource(src image.Image) *Source {
	p := yuv.FromImage(src)
	return &Source{
		planes:     p,
		waveWidth:  (p.Width + 1) / 2,
		waveHeight: (p.Height + 1) / 2,
	}
}

// Copy returns a Source whose planes can be modified without touching s.
func (s *Source) Copy() *Source {
	p := *s.planes
	for i := range p.Channels {
		p.Channels[i] = append([]float32(nil), s.planes.Channels[i]...)
	}
	return &Source{planes: &p, waveWidth: s.waveWidth, waveHeight: s.waveHeight}
}

func (s *Source) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.planes.Width, s.planes.Height)
}

func (s *Source) build() *image.NRGBA64 {
	return s.planes.Image()
}
