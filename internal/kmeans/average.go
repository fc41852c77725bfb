package kmeans

import "sync"

// AverageStore accumulates votes from concurrent workers.
type AverageStore struct {
	sum   float64
	count int
	mu    sync.Mutex
}

func (s *AverageStore) Add(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sum += value
	s.count += 1
}

// Average returns 0 for an empty store.
func (s *AverageStore) Average() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *AverageStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
