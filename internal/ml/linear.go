package ml

import (
	"errors"

	"poverty-dashboard/internal/features"
)

// LinearModel is an ordinary least squares regressor.
type LinearModel struct {
	coefficients []float64
	intercept    float64
}

func NewLinearModel(coefficients []float64, intercept float64) (*LinearModel, error) {
	if len(coefficients) == 0 {
		return nil, errors.New("linear model has no coefficients")
	}
	c := make([]float64, len(coefficients))
	copy(c, coefficients)
	return &LinearModel{coefficients: c, intercept: intercept}, nil
}

func (m *LinearModel) NumFeatures() int {
	return len(m.coefficients)
}

func (m *LinearModel) Predict(vec features.Vector) (float64, error) {
	if err := checkWidth(m, vec); err != nil {
		return 0, err
	}
	y := m.intercept
	for i, c := range m.coefficients {
		y += c * vec[i]
	}
	return y, nil
}
