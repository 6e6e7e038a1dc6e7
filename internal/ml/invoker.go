package ml

import (
	"fmt"
	"time"

	"poverty-dashboard/internal/features"
)

// MetricsInterface defines metrics methods needed by the invoker
type MetricsInterface interface {
	MLPredictionsInc(model string)
	MLFailuresInc(model string)
	MLLatencyObserve(float64)
}

// Invoker runs every model of a bundle. It holds no mutable state and is
// safe for concurrent use.
type Invoker struct {
	bundle  *Bundle
	metrics MetricsInterface
}

func NewInvoker(bundle *Bundle, metrics MetricsInterface) *Invoker {
	return &Invoker{bundle: bundle, metrics: metrics}
}

// Bundle returns the bundle the invoker predicts with.
func (inv *Invoker) Bundle() *Bundle {
	return inv.bundle
}

// Predict delegates to the model. The output is not adjusted.
func (inv *Invoker) Predict(name string, m Model, vec features.Vector) (float64, error) {
	start := time.Now()
	y, err := m.Predict(vec)
	if inv.metrics != nil {
		inv.metrics.MLLatencyObserve(time.Since(start).Seconds())
		if err != nil {
			inv.metrics.MLFailuresInc(name)
		} else {
			inv.metrics.MLPredictionsInc(name)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("model %q: %w", name, err)
	}
	return y, nil
}

// PredictAll runs every model on the same vector and returns one prediction
// per model in bundle order.
func (inv *Invoker) PredictAll(vec features.Vector) ([]Prediction, error) {
	if inv == nil || inv.bundle == nil {
		return nil, fmt.Errorf("invoker not initialized")
	}

	models := inv.bundle.models
	out := make([]Prediction, 0, len(models))
	for _, m := range models {
		y, err := inv.Predict(m.Name, m.Model, vec)
		if err != nil {
			return nil, err
		}
		out = append(out, Prediction{Model: m.Name, Value: y})
	}
	return out, nil
}
