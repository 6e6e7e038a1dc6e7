package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrBundleNotFound is returned when the model bundle file does not exist.
var ErrBundleNotFound = errors.New("model bundle not found")

// Model types understood by the bundle loader.
const (
	TypeLinear       = "linear"
	TypeRandomForest = "random_forest"
)

// EvalMetrics are a model's scores on the held-out test set.
type EvalMetrics struct {
	R2  float64 `json:"R2"`
	MAE float64 `json:"MAE"`
	MSE float64 `json:"MSE"`
}

// FeatureImportance is one row of the importance table.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// NamedModel is a model variant with its display name.
type NamedModel struct {
	Name  string
	Model Model
}

// Bundle holds everything the training process produced. It is read-only
// once built.
type Bundle struct {
	features   []string
	models     []NamedModel
	metrics    map[string]EvalMetrics
	importance []FeatureImportance
}

// NewBundle validates and builds a bundle. Every model must accept
// len(featureNames) inputs.
func NewBundle(featureNames []string, models []NamedModel, metrics map[string]EvalMetrics, importance []FeatureImportance) (*Bundle, error) {
	if len(featureNames) == 0 {
		return nil, errors.New("bundle has no features")
	}
	if len(models) == 0 {
		return nil, errors.New("bundle has no models")
	}

	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if m.Name == "" || m.Model == nil {
			return nil, errors.New("bundle contains an unnamed or empty model")
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("duplicate model %q", m.Name)
		}
		seen[m.Name] = true
		if m.Model.NumFeatures() != len(featureNames) {
			return nil, fmt.Errorf("model %q expects %d features, bundle declares %d", m.Name, m.Model.NumFeatures(), len(featureNames))
		}
	}

	b := &Bundle{
		features:   append([]string(nil), featureNames...),
		models:     append([]NamedModel(nil), models...),
		metrics:    make(map[string]EvalMetrics, len(metrics)),
		importance: append([]FeatureImportance(nil), importance...),
	}
	for k, v := range metrics {
		b.metrics[k] = v
	}
	sort.SliceStable(b.importance, func(i, j int) bool {
		return b.importance[i].Importance > b.importance[j].Importance
	})
	return b, nil
}

// Features returns the feature names in training order.
func (b *Bundle) Features() []string {
	return append([]string(nil), b.features...)
}

// Models returns the model variants in bundle order.
func (b *Bundle) Models() []NamedModel {
	return append([]NamedModel(nil), b.models...)
}

// Model looks up a variant by name.
func (b *Bundle) Model(name string) (Model, bool) {
	for _, m := range b.models {
		if m.Name == name {
			return m.Model, true
		}
	}
	return nil, false
}

// Metrics returns the evaluation metrics keyed by model name.
func (b *Bundle) Metrics() map[string]EvalMetrics {
	out := make(map[string]EvalMetrics, len(b.metrics))
	for k, v := range b.metrics {
		out[k] = v
	}
	return out
}

// FeatureImportance returns the importance table, most important first.
func (b *Bundle) FeatureImportance() []FeatureImportance {
	return append([]FeatureImportance(nil), b.importance...)
}

// BestBy returns the model with the best score for metric: highest R2,
// lowest MAE or MSE.
func (b *Bundle) BestBy(metric string) (string, bool) {
	var score func(EvalMetrics) float64
	higher := false
	switch metric {
	case "R2":
		score, higher = func(m EvalMetrics) float64 { return m.R2 }, true
	case "MAE":
		score = func(m EvalMetrics) float64 { return m.MAE }
	case "MSE":
		score = func(m EvalMetrics) float64 { return m.MSE }
	default:
		return "", false
	}

	best, found := "", false
	var bestScore float64
	// Iterate in bundle order so ties resolve the same way every time.
	for _, m := range b.models {
		em, ok := b.metrics[m.Name]
		if !ok {
			continue
		}
		s := score(em)
		if !found || (higher && s > bestScore) || (!higher && s < bestScore) {
			best, bestScore, found = m.Name, s, true
		}
	}
	return best, found
}

type modelSpec struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Trees        []Tree    `json:"trees,omitempty"`
}

type bundleFile struct {
	Features          []string               `json:"features"`
	Models            []modelSpec            `json:"models"`
	Metrics           map[string]EvalMetrics `json:"metrics"`
	FeatureImportance []FeatureImportance    `json:"feature_importance"`
}

// LoadBundle reads a JSON model bundle from path.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, path)
		}
		return nil, fmt.Errorf("failed to read model bundle %s: %w", path, err)
	}

	b, err := ParseBundle(data)
	if err != nil {
		return nil, fmt.Errorf("invalid model bundle %s: %w", path, err)
	}
	return b, nil
}

// ParseBundle decodes a JSON model bundle.
func ParseBundle(data []byte) (*Bundle, error) {
	var f bundleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model bundle: %w", err)
	}

	models := make([]NamedModel, 0, len(f.Models))
	for _, spec := range f.Models {
		m, err := spec.build(len(f.Features))
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", spec.Name, err)
		}
		models = append(models, NamedModel{Name: spec.Name, Model: m})
	}

	return NewBundle(f.Features, models, f.Metrics, f.FeatureImportance)
}

func (s modelSpec) build(numFeatures int) (Model, error) {
	switch s.Type {
	case TypeLinear:
		return NewLinearModel(s.Coefficients, s.Intercept)
	case TypeRandomForest:
		return NewForestModel(s.Trees, numFeatures)
	default:
		return nil, fmt.Errorf("unknown model type %q", s.Type)
	}
}
