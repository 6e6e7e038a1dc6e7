// Package ml provides the pre-trained regression models behind the
// dashboard. It loads a model bundle exported by the training process,
// exposes each model variant through the Model interface and invokes
// every variant on the same feature vector.
//
// Inference is deterministic: the same vector always produces the same
// prediction for a given model.
package ml

import (
	"fmt"

	"poverty-dashboard/internal/features"
)

// Model is a trained regressor over a fixed number of features.
type Model interface {
	// Predict returns the model output for the vector. It returns an error
	// only when the vector does not match the model's input width.
	Predict(vec features.Vector) (float64, error)

	// NumFeatures is the input width the model was trained with.
	NumFeatures() int
}

// Prediction is one model's output for one vector.
type Prediction struct {
	Model string  `json:"model"`
	Value float64 `json:"value"`
}

// Percent formats the prediction as a percentage with two decimals.
func (p Prediction) Percent() string {
	return fmt.Sprintf("%.2f%%", p.Value)
}

func checkWidth(m Model, vec features.Vector) error {
	if len(vec) != m.NumFeatures() {
		return fmt.Errorf("expected %d features, got %d", m.NumFeatures(), len(vec))
	}
	return nil
}
