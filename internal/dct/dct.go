package dct

import (
	"fmt"
	"math"
	"sync"
)

// DCT is an orthonormal 2D DCT-II for w x h row-major blocks.
type DCT struct {
	w, h   int
	basisW []float64 // w x w, row = frequency
	basisH []float64 // h x h
}

func New(w, h int) *DCT {
	return &DCT{w: w, h: h, basisW: basis(w), basisH: basis(h)}
}

func basis(n int) []float64 {
	fn := float64(n)
	phi := make([]float64, n*n)
	for j := range n {
		phi[j] = 1.0 / math.Sqrt(fn)
	}
	for i := 1; i < n; i++ {
		for j := range n {
			phi[i*n+j] = math.Sqrt(2.0/fn) *
				math.Cos(float64(i)*math.Pi*(2*float64(j)+1)/(2*fn))
		}
	}
	return phi
}

// Forward returns the coefficients of block.
func (d *DCT) Forward(block []float64) []float64 {
	w, h := d.w, d.h
	tmp := make([]float64, w*h)
	// rows
	for y := range h {
		for u := range w {
			var sum float64
			for x := range w {
				sum += d.basisW[u*w+x] * block[y*w+x]
			}
			tmp[y*w+u] = sum
		}
	}
	out := make([]float64, w*h)
	// columns
	for v := range h {
		for u := range w {
			var sum float64
			for y := range h {
				sum += d.basisH[v*h+y] * tmp[y*w+u]
			}
			out[v*w+u] = sum
		}
	}
	return out
}

// Inverse writes the block reconstructed from coef into dst.
func (d *DCT) Inverse(coef, dst []float64) {
	w, h := d.w, d.h
	tmp := make([]float64, w*h)
	for y := range h {
		for u := range w {
			var sum float64
			for v := range h {
				sum += d.basisH[v*h+y] * coef[v*w+u]
			}
			tmp[y*w+u] = sum
		}
	}
	for y := range h {
		for x := range w {
			var sum float64
			for u := range w {
				sum += d.basisW[u*w+x] * tmp[y*w+u]
			}
			dst[y*w+x] = sum
		}
	}
}

// Cache shares DCT plans of the same block size.
type Cache struct {
	data sync.Map
}

func (c *Cache) Get(w, h int) *DCT {
	key := fmt.Sprintf("%d-%d", w, h)
	if v, ok := c.data.Load(key); ok {
		return v.(*DCT)
	}
	actual, _ := c.data.LoadOrStore(key, New(w, h))
	return actual.(*DCT)
}
