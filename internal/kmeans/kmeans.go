package kmeans

import "math"

// OneDimKmeans performs k-means clustering on one-dimensional data with k=2.
// It classifies input values into two clusters (high and low) starting from
// the min and max values, and iterates until the split point settles.
//
// The returned slice contains classification results where true indicates the high
// cluster and false indicates the low cluster. When all values are (nearly)
// equal there is no second cluster and the split falls back to 0.5.
func OneDimKmeans(values []float64) []bool {
	out := make([]bool, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	threshold := 0.5
	if hi-lo > 1e-9 {
		threshold = split(values, lo, hi)
	}
	for i, v := range values {
		out[i] = threshold <= v
	}
	return out
}

func split(values []float64, lo, hi float64) float64 {
	const etol = 1e-6
	center := [2]float64{hi, lo}
	threshold := (center[0] + center[1]) / 2
	for range 300 {
		var highs, lows AverageStore
		for _, v := range values {
			if threshold <= v {
				highs.Add(v)
			} else {
				lows.Add(v)
			}
		}
		if highs.Count() > 0 {
			center[0] = highs.Average()
		}
		if lows.Count() > 0 {
			center[1] = lows.Average()
		}
		next := (center[0] + center[1]) / 2
		if math.Abs(next-threshold) < etol {
			return next
		}
		threshold = next
	}
	return threshold
}
