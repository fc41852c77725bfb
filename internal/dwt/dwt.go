package dwt

import "math"

// Bands holds the four sub-bands of a single level Haar transform.
// Each band is stored row-major with Width x Height elements.
type Bands struct {
	Width, Height int
	// A is the low frequency approximation, H/V/D the detail bands.
	A, H, V, D []float32
}

// Haar applies a one level 2D Haar wavelet transform to a row-major plane of
// w x h samples. Odd edges are handled by repeating the last row or column.
func Haar(data []float32, w, h int) Bands {
	hw, hh := (w+1)/2, (h+1)/2
	n := hw * hh
	b := Bands{
		Width:  hw,
		Height: hh,
		A:      make([]float32, n),
		H:      make([]float32, n),
		V:      make([]float32, n),
		D:      make([]float32, n),
	}
	for y0 := 0; y0 < h; y0 += 2 {
		y1 := min(y0+1, h-1)
		for x0 := 0; x0 < w; x0 += 2 {
			x1 := min(x0+1, w-1)
			a1, d1 := pair(data[y0*w+x0], data[y1*w+x0])
			a2, d2 := pair(data[y0*w+x1], data[y1*w+x1])

			idx := (y0/2)*hw + x0/2
			b.A[idx], b.V[idx] = pair(a1, a2)
			b.H[idx], b.D[idx] = pair(d1, d2)
		}
	}
	return b
}

// InverseHaar rebuilds the w x h plane from its sub-bands.
func InverseHaar(b Bands, w, h int) []float32 {
	data := make([]float32, w*h)
	for y0 := 0; y0 < h; y0 += 2 {
		for x0 := 0; x0 < w; x0 += 2 {
			idx := (y0/2)*b.Width + x0/2

			a1, a2 := unpair(b.A[idx], b.V[idx])
			d1, d2 := unpair(b.H[idx], b.D[idx])
			v1, v2 := unpair(a1, d1)
			v3, v4 := unpair(a2, d2)

			data[y0*w+x0] = v1
			if y0+1 < h {
				data[(y0+1)*w+x0] = v2
			}
			if x0+1 < w {
				data[y0*w+x0+1] = v3
			}
			if y0+1 < h && x0+1 < w {
				data[(y0+1)*w+x0+1] = v4
			}
		}
	}
	return data
}

func pair(v1, v2 float32) (float32, float32) {
	return (v1 + v2) / math.Sqrt2, (v1 - v2) / math.Sqrt2
}

func unpair(a, d float32) (float32, float32) {
	return (a + d) / math.Sqrt2, (a - d) / math.Sqrt2
}
