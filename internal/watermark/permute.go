package watermark

import "math/rand"

// permutations returns one coefficient order per block, derived from seed.
// The same seed always yields the same orders.
func permutations(seed int64, blocks, area int) [][]int {
	rd := rand.New(rand.NewSource(seed))
	out := make([][]int, blocks)
	for i := range out {
		out[i] = rd.Perm(area)
	}
	return out
}

func shuffle(dst, src []float64, perm []int) {
	for i, p := range perm {
		dst[i] = src[p]
	}
}

func unshuffle(dst, src []float64, perm []int) {
	for i, p := range perm {
		dst[p] = src[i]
	}
}
