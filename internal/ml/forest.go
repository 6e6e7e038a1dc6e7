package ml

import (
	"errors"
	"fmt"

	"poverty-dashboard/internal/features"
)

// leaf marks a node without children.
const leaf = -1

// TreeNode is one node of an array-encoded regression tree. Samples with
// x[Feature] <= Threshold go to Left, the rest to Right.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a regression tree rooted at node 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Left == leaf && n.Right == leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		// Children always come after their parent, so traversal terminates.
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

func (t Tree) predict(vec features.Vector) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == leaf {
			return n.Value
		}
		if vec[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// ForestModel averages the output of its trees.
type ForestModel struct {
	trees       []Tree
	numFeatures int
}

func NewForestModel(trees []Tree, numFeatures int) (*ForestModel, error) {
	if len(trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	if numFeatures <= 0 {
		return nil, fmt.Errorf("invalid feature count %d", numFeatures)
	}
	for i, t := range trees {
		if err := t.validate(numFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	ts := make([]Tree, len(trees))
	copy(ts, trees)
	return &ForestModel{trees: ts, numFeatures: numFeatures}, nil
}

func (m *ForestModel) NumFeatures() int {
	return m.numFeatures
}

func (m *ForestModel) Predict(vec features.Vector) (float64, error) {
	if err := checkWidth(m, vec); err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range m.trees {
		sum += t.predict(vec)
	}
	return sum / float64(len(m.trees)), nil
}
