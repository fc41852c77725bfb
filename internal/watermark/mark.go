package watermark

import "github.com/yyyoichi/watermark_desk/internal/kmeans"

// votes collects per-bit confidences. Block at votes for bit at%len.
type votes []kmeans.AverageStore

func newVotes(markLen int) votes {
	return make([]kmeans.AverageStore, markLen)
}

func (m votes) add(at int, v float64) {
	m[at%len(m)].Add(v)
}

func (m votes) averages() []float64 {
	avrs := make([]float64, len(m))
	for i := range m {
		avrs[i] = m[i].Average()
	}
	return avrs
}

func bitAt(mark []bool, at int) float64 {
	if mark[at%len(mark)] {
		return 1
	}
	return 0
}
