// Package features turns fetched indicator values or a manual economic
// scenario into the ordered feature vector the regression models expect.
package features

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncomplete is matched by every IncompleteError.
var ErrIncomplete = errors.New("incomplete feature values")

// IncompleteError lists the features that had no value.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete feature values: missing %s", strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// Vector is a feature vector ordered like the model's training columns.
type Vector []float64

// Normalize builds a vector ordered exactly as order. If any feature in
// order is absent it returns an *IncompleteError and a nil vector.
func Normalize(values Values, order []string) (Vector, error) {
	if len(order) == 0 {
		return nil, errors.New("feature order is empty")
	}
	if missing := values.Missing(order); len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	vec := make(Vector, len(order))
	for i, name := range order {
		vec[i], _ = values[name].Get()
	}
	return vec, nil
}
