package watermark

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/yyyoichi/watermark_desk/internal/dct"
	"github.com/yyyoichi/watermark_desk/internal/dwt"
	"github.com/yyyoichi/watermark_desk/internal/svd"
)

// Params selects the block layout and quantisation steps. Seed orders the
// DCT coefficients of every block before the SVD.
type Params struct {
	Shape BlockShape
	D1    int
	D2    int // disabled when < 1
	Seed  int64
}

// ctx is polled every checkEvery blocks.
const checkEvery = 256

func Enable(src *Source, markLen int, shape BlockShape) error {
	if markLen < 1 {
		return fmt.Errorf("mark length %d", markLen)
	}
	if total := shape.TotalBlocks(src); total < markLen {
		return fmt.Errorf("total blocks %d < mark length %d", total, markLen)
	}
	return nil
}

// TotalBlocks returns the capacity in bits of an image of size rect.
func TotalBlocks(rect image.Rectangle, shape BlockShape) int {
	return shape.totalBlocks((rect.Dx()+1)/2, (rect.Dy()+1)/2)
}

func quantise(s float64, d int, bit float64) float64 {
	fd := float64(d)
	return (math.Floor(s/fd) + 1.0/4.0 + 1.0/2.0*bit) * fd
}

func vote(s float64, d int) float64 {
	fd := float64(d)
	if math.Mod(s, fd) > fd/2 {
		return 1
	}
	return 0
}

// Embed writes mark into src block by block, cycling through the bits, and
// returns the rebuilt image. src is modified.
func Embed(ctx context.Context, src *Source, mark []bool, p Params, cache *dct.Cache) (*image.NRGBA64, error) {
	if err := Enable(src, len(mark), p.Shape); err != nil {
		return nil, err
	}
	embed := func(s []float64, bit float64) {
		s[0] = quantise(s[0], p.D1, bit)
		if p.D2 >= 1 && len(s) > 1 {
			s[1] = quantise(s[1], p.D2, bit)
		}
	}
	err := eachChannel(ctx, src, p, cache, true, func(at int, s []float64) {
		embed(s, bitAt(mark, at))
	})
	if err != nil {
		return nil, err
	}
	return src.build(), nil
}

// Extract returns one confidence in [0, 1] per bit: the average vote of
// all blocks carrying that bit across the three channels.
func Extract(ctx context.Context, src *Source, markLen int, p Params, cache *dct.Cache) ([]float64, error) {
	if err := Enable(src, markLen, p.Shape); err != nil {
		return nil, err
	}
	extract := func(s []float64) float64 {
		v := vote(s[0], p.D1)
		if p.D2 < 1 || len(s) < 2 {
			return v
		}
		return (v*3 + vote(s[1], p.D2)) / 4.
	}
	mk := newVotes(markLen)
	err := eachChannel(ctx, src, p, cache, false, func(at int, s []float64) {
		mk.add(at, extract(s))
	})
	if err != nil {
		return nil, err
	}
	return mk.averages(), nil
}

// eachChannel runs fn on the singular values of every block of the three
// channels, one goroutine per channel. When write is set the edited values
// are transformed back into src.
func eachChannel(ctx context.Context, src *Source, p Params, cache *dct.Cache, write bool, fn func(at int, s []float64)) error {
	var (
		bw, bh = p.Shape.Width(), p.Shape.Height()
		area   = p.Shape.Area()
		bmap   = dwt.NewBlockMap(src.waveWidth, src.waveHeight, bw, bh)
		total  = bmap.Len()
		perms  = permutations(p.Seed, total, area)
		width  = src.planes.Width
		height = src.planes.Height
	)
	if cache == nil {
		cache = new(dct.Cache)
	}
	dcos := cache.Get(bw, bh)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	wg.Add(3)
	for ch := range 3 {
		go func(ch int) {
			defer wg.Done()
			var (
				dec      = svd.New(bh, bw)
				bands    = dwt.Haar(src.planes.Channels[ch], width, height)
				block    = make([]float64, area)
				shuffled = make([]float64, area)
			)
			for at := range total {
				if at%checkEvery == 0 {
					if err := ctx.Err(); err != nil {
						fail(err)
						return
					}
				}
				bmap.Gather(bands.A, at, block)
				coef := dcos.Forward(block)
				shuffle(shuffled, coef, perms[at])
				s, rebuild, err := dec.Exec(shuffled)
				if err != nil {
					fail(fmt.Errorf("block %d: %w", at, err))
					return
				}
				fn(at, s)
				if !write {
					continue
				}
				rebuild()
				unshuffle(coef, shuffled, perms[at])
				dcos.Inverse(coef, block)
				bmap.Scatter(bands.A, at, block)
			}
			if write {
				src.planes.Channels[ch] = dwt.InverseHaar(bands, width, height)
			}
		}(ch)
	}
	wg.Wait()
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
