package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	failures    map[string]int
	latencies   int
}

func newMockMetrics() *MockMetrics {
	return &MockMetrics{predictions: map[string]int{}, failures: map[string]int{}}
}

func (m *MockMetrics) MLPredictionsInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[model]++
}

func (m *MockMetrics) MLFailuresInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[model]++
}

func (m *MockMetrics) MLLatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}
