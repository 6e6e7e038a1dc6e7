package metrics

import "strconv"

// Wrapper adapts Metrics to the small metric interfaces the worldbank, ml,
// pipeline and dashboard packages depend on.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) IndicatorRequestsInc(code string) {
	w.m.IndicatorRequests.WithLabelValues(code).Inc()
}

func (w *Wrapper) IndicatorMissesInc(code string) {
	w.m.IndicatorMisses.WithLabelValues(code).Inc()
}

func (w *Wrapper) FetchLatencyObserve(v float64) {
	w.m.FetchLatency.Observe(v)
}

func (w *Wrapper) LiveRequestsInc() {
	w.m.LiveRequests.Inc()
}

func (w *Wrapper) IncompleteRequestsInc() {
	w.m.IncompleteRequests.Inc()
}

func (w *Wrapper) ScenarioRequestsInc() {
	w.m.ScenarioRequests.Inc()
}

func (w *Wrapper) MLPredictionsInc(model string) {
	w.m.MLPredictions.WithLabelValues(model).Inc()
}

func (w *Wrapper) MLFailuresInc(model string) {
	w.m.MLFailures.WithLabelValues(model).Inc()
}

func (w *Wrapper) MLLatencyObserve(v float64) {
	w.m.MLLatency.Observe(v)
}

func (w *Wrapper) HTTPErrorsInc(code int) {
	w.m.HTTPErrors.WithLabelValues(strconv.Itoa(code)).Inc()
}
