package bench

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/yyyoichi/watermark_desk/internal/dct"
	"github.com/yyyoichi/watermark_desk/internal/dwt"
	"github.com/yyyoichi/watermark_desk/internal/svd"
)

// BenchmarkBlockPass measures one embedding pass over the low band without
// the permutation and vote bookkeeping.
func BenchmarkBlockPass(b *testing.B) {
	bw, bh := 4, 4
	d1, d2 := 36.0, 20.0
	quantise := func(s, d, bit float64) float64 {
		return (float64(int(s/d)) + 0.25 + 0.5*bit) * d
	}
	genSrc := func(w, h int) []float32 {
		src := make([]float32, w*h)
		for i := range src {
			src[i] = rand.Float32() * 255.0
		}
		return src
	}

	for _, size := range [][2]int{{1280, 720}, {1920, 1080}, {3840, 2160}} {
		w, h := size[0], size[1]
		img := genSrc(w, h)
		b.Run(fmt.Sprintf("%dx%d", w, h), func(b *testing.B) {
			dcos := dct.New(bw, bh)
			dec := svd.New(bh, bw)
			block := make([]float64, bw*bh)
			for b.Loop() {
				bands := dwt.Haar(img, w, h)
				bmap := dwt.NewBlockMap(bands.Width, bands.Height, bw, bh)
				for at := range bmap.Len() {
					bmap.Gather(bands.A, at, block)
					coef := dcos.Forward(block)
					s, rebuild, err := dec.Exec(coef)
					if err != nil {
						b.Fatal(err)
					}
					bit := float64(at % 2)
					s[0], s[1] = quantise(s[0], d1, bit), quantise(s[1], d2, bit)
					rebuild()
					dcos.Inverse(coef, block)
					bmap.Scatter(bands.A, at, block)
				}
				_ = dwt.InverseHaar(bands, w, h)
			}
		})
	}
}
