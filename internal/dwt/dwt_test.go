package dwt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaar(t *testing.T) {
	t.Run("constant plane", func(t *testing.T) {
		data := []float32{
			10, 10, 10, 10,
			10, 10, 10, 10,
		}
		b := Haar(data, 4, 2)
		require.Equal(t, 2, b.Width)
		require.Equal(t, 1, b.Height)
		for i := range b.A {
			// 2x2 block of 10 → 2*10
			assert.InDelta(t, 20, b.A[i], 1e-4)
			assert.InDelta(t, 0, b.H[i], 1e-4)
			assert.InDelta(t, 0, b.V[i], 1e-4)
			assert.InDelta(t, 0, b.D[i], 1e-4)
		}
	})

	test := []struct {
		name string
		w, h int
	}{
		{"even", 8, 6},
		{"odd width", 7, 6},
		{"odd height", 8, 5},
		{"odd both", 9, 7},
		{"single pixel", 1, 1},
	}
	for _, tt := range test {
		t.Run("inverse "+tt.name, func(t *testing.T) {
			rd := rand.New(rand.NewSource(1))
			data := make([]float32, tt.w*tt.h)
			for i := range data {
				data[i] = rd.Float32() * 255
			}
			b := Haar(data, tt.w, tt.h)
			assert.Equal(t, (tt.w+1)/2, b.Width)
			assert.Equal(t, (tt.h+1)/2, b.Height)

			got := InverseHaar(b, tt.w, tt.h)
			require.Len(t, got, len(data))
			for i := range data {
				assert.InDelta(t, data[i], got[i], 1e-3, "index %d", i)
			}
		})
	}
}

func TestBlockMap(t *testing.T) {
	// 5x4 band, 2x2 blocks → 2x2 whole blocks, one margin column
	band := make([]float32, 5*4)
	for i := range band {
		band[i] = float32(i)
	}
	m := NewBlockMap(5, 4, 2, 2)
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, 4, m.Area())

	blk := make([]float64, m.Area())
	m.Gather(band, 3, blk)
	assert.Equal(t, []float64{12, 13, 17, 18}, blk)

	for i := range blk {
		blk[i] = -1
	}
	m.Scatter(band, 3, blk)
	assert.Equal(t, float32(-1), band[12])
	assert.Equal(t, float32(-1), band[18])
	assert.Equal(t, float32(14), band[14], "margin untouched")
}
