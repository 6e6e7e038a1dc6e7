package ml

import (
	"testing"

	"poverty-dashboard/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearModel_Predict(t *testing.T) {
	m, err := NewLinearModel([]float64{-0.0005, 0.12, 0.35, -0.4}, 12)
	require.NoError(t, err)

	y, err := m.Predict(features.Vector{2000, 5.0, 5.5, 3.0})
	require.NoError(t, err)
	assert.InDelta(t, 12.325, y, 1e-9)
}

func TestLinearModel_NoClamping(t *testing.T) {
	m, err := NewLinearModel([]float64{-1}, 0)
	require.NoError(t, err)

	y, err := m.Predict(features.Vector{250})
	require.NoError(t, err)
	assert.Equal(t, -250.0, y)
}

func TestLinearModel_Errors(t *testing.T) {
	_, err := NewLinearModel(nil, 1)
	assert.Error(t, err)

	m, err := NewLinearModel([]float64{1, 2}, 0)
	require.NoError(t, err)
	_, err = m.Predict(features.Vector{1})
	assert.Error(t, err)
}

func TestLinearModel_CopiesCoefficients(t *testing.T) {
	coef := []float64{1, 1}
	m, err := NewLinearModel(coef, 0)
	require.NoError(t, err)
	coef[0] = 100

	y, err := m.Predict(features.Vector{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 2.0, y)
}

func stump(feature int, threshold, left, right float64) Tree {
	return Tree{Nodes: []TreeNode{
		{Feature: feature, Threshold: threshold, Left: 1, Right: 2},
		{Left: leaf, Right: leaf, Value: left},
		{Left: leaf, Right: leaf, Value: right},
	}}
}

func TestForestModel_Predict(t *testing.T) {
	m, err := NewForestModel([]Tree{
		stump(0, 10, 1, 3),
		stump(1, 0, 5, 7),
	}, 2)
	require.NoError(t, err)

	testCases := []struct {
		name string
		vec  features.Vector
		want float64
	}{
		{"left left", features.Vector{10, 0}, 3},
		{"right left", features.Vector{11, -1}, 4},
		{"left right", features.Vector{0, 0.5}, 4},
		{"right right", features.Vector{20, 2}, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			y, err := m.Predict(tc.vec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, y)
		})
	}
}

func TestForestModel_SingleLeaf(t *testing.T) {
	m, err := NewForestModel([]Tree{{Nodes: []TreeNode{{Left: leaf, Right: leaf, Value: 9}}}}, 4)
	require.NoError(t, err)
	y, err := m.Predict(features.Vector{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 9.0, y)
}

func TestForestModel_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		trees []Tree
		n     int
	}{
		{"no trees", nil, 2},
		{"empty tree", []Tree{{}}, 2},
		{"zero features", []Tree{stump(0, 1, 1, 2)}, 0},
		{"feature out of range", []Tree{stump(2, 1, 1, 2)}, 2},
		{"child out of range", []Tree{{Nodes: []TreeNode{{Feature: 0, Left: 1, Right: 5}, {Left: leaf, Right: leaf}}}}, 1},
		{"cycle", []Tree{{Nodes: []TreeNode{{Feature: 0, Left: 1, Right: 2}, {Feature: 0, Left: 0, Right: 2}, {Left: leaf, Right: leaf}}}}, 1},
		{"half leaf", []Tree{{Nodes: []TreeNode{{Feature: 0, Left: leaf, Right: 1}, {Left: leaf, Right: leaf}}}}, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewForestModel(tc.trees, tc.n)
			assert.Error(t, err)
		})
	}
}

func TestForestModel_WidthMismatch(t *testing.T) {
	m, err := NewForestModel([]Tree{stump(0, 1, 1, 2)}, 4)
	require.NoError(t, err)
	_, err = m.Predict(features.Vector{1, 2})
	assert.Error(t, err)
}

func TestPrediction_Percent(t *testing.T) {
	assert.Equal(t, "12.33%", Prediction{Model: "x", Value: 12.325001}.Percent())
	assert.Equal(t, "-1.50%", Prediction{Model: "x", Value: -1.5}.Percent())
}
