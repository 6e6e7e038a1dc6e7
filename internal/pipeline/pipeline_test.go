package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"poverty-dashboard/internal/common"
	"poverty-dashboard/internal/features"
	"poverty-dashboard/internal/ml"
	"poverty-dashboard/internal/storage"
	"poverty-dashboard/internal/worldbank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var featureOrder = []string{
	common.FeatureGDP,
	common.FeatureInflation,
	common.FeatureUnemployment,
	common.FeatureGrowth,
}

// recordingModel returns a fixed output and remembers every vector it saw.
type recordingModel struct {
	mu     sync.Mutex
	out    float64
	inputs []features.Vector
}

func (m *recordingModel) NumFeatures() int { return len(featureOrder) }

func (m *recordingModel) Predict(vec features.Vector) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, append(features.Vector(nil), vec...))
	return m.out, nil
}

func (m *recordingModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

type fixture struct {
	linear *recordingModel
	forest *recordingModel
	inv    *ml.Invoker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		linear: &recordingModel{out: 11.5},
		forest: &recordingModel{out: 9.25},
	}
	b, err := ml.NewBundle(featureOrder, []ml.NamedModel{
		{Name: "Random Forest", Model: f.forest},
		{Name: "Linear Regression", Model: f.linear},
	}, nil, nil)
	require.NoError(t, err)
	f.inv = ml.NewInvoker(b, nil)
	return f
}

type stubFetcher struct {
	values features.Values
	calls  int
}

func (s *stubFetcher) Fetch(ctx context.Context, country string, year int) features.Values {
	s.calls++
	return s.values
}

type memoryStore struct {
	records []storage.PredictionRecord
	err     error
}

func (m *memoryStore) StorePrediction(rec storage.PredictionRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

type countingMetrics struct {
	live, incomplete, scenario int
}

func (c *countingMetrics) LiveRequestsInc()       { c.live++ }
func (c *countingMetrics) IncompleteRequestsInc() { c.incomplete++ }
func (c *countingMetrics) ScenarioRequestsInc()   { c.scenario++ }

func TestLive_Complete(t *testing.T) {
	f := newFixture(t)
	fetcher := &stubFetcher{values: features.Values{
		// map order is irrelevant, the vector follows the bundle order
		common.FeatureGrowth:       features.Some(-2.8),
		common.FeatureGDP:          features.Some(20893.7),
		common.FeatureUnemployment: features.Some(8.1),
		common.FeatureInflation:    features.Some(1.2),
	}}
	store := &memoryStore{}
	metrics := &countingMetrics{}
	svc := New(fetcher, f.inv, store, metrics)

	res, err := svc.Live(context.Background(), "USA", 2020)
	require.NoError(t, err)

	assert.Equal(t, ModeLive, res.Mode)
	assert.Equal(t, "USA", res.Country)
	assert.Equal(t, 2020, res.Year)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, features.Vector{20893.7, 1.2, 8.1, -2.8}, res.Vector)
	assert.Equal(t, []ml.Prediction{
		{Model: "Random Forest", Value: 9.25},
		{Model: "Linear Regression", Value: 11.5},
	}, res.Predictions)

	require.Len(t, store.records, 1)
	assert.Equal(t, "USA", store.records[0].Subject)
	assert.Equal(t, res.ID, store.records[0].ID)

	assert.Equal(t, 1, metrics.live)
	assert.Zero(t, metrics.incomplete)
}

func TestLive_IncompleteSkipsPrediction(t *testing.T) {
	for _, absent := range featureOrder {
		t.Run(absent, func(t *testing.T) {
			f := newFixture(t)
			values := features.Values{}
			for _, name := range featureOrder {
				values[name] = features.Some(1)
			}
			values[absent] = features.None()

			store := &memoryStore{}
			metrics := &countingMetrics{}
			svc := New(&stubFetcher{values: values}, f.inv, store, metrics)

			res, err := svc.Live(context.Background(), "PAK", 2013)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, features.ErrIncomplete))

			var incomplete *IncompleteError
			require.True(t, errors.As(err, &incomplete))
			assert.Equal(t, "PAK", incomplete.Country)
			assert.Equal(t, 2013, incomplete.Year)
			assert.Equal(t, []string{absent}, incomplete.Missing)
			assert.Equal(t, "could not retrieve all required data for PAK for 2013", err.Error())

			assert.Zero(t, f.linear.calls())
			assert.Zero(t, f.forest.calls())
			assert.Empty(t, store.records)
			assert.Equal(t, 1, metrics.incomplete)
		})
	}
}

func TestScenario_PassesVectorToBothModels(t *testing.T) {
	f := newFixture(t)
	fetcher := &stubFetcher{}
	store := &memoryStore{}
	metrics := &countingMetrics{}
	svc := New(fetcher, f.inv, store, metrics)

	res, err := svc.Scenario(context.Background(), features.Scenario{GDP: 2000, Inflation: 5.0, Unemployment: 5.5, Growth: 3.0})
	require.NoError(t, err)

	want := features.Vector{2000, 5.0, 5.5, 3.0}
	assert.Equal(t, want, res.Vector)
	assert.Equal(t, []features.Vector{want}, f.linear.inputs)
	assert.Equal(t, []features.Vector{want}, f.forest.inputs)
	assert.Len(t, res.Predictions, 2)
	assert.Equal(t, ModeScenario, res.Mode)

	assert.Zero(t, fetcher.calls)
	require.Len(t, store.records, 1)
	assert.Equal(t, storage.ScenarioSubject, store.records[0].Subject)
	assert.Equal(t, 1, metrics.scenario)
}

func TestService_StoreFailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t)
	svc := New(&stubFetcher{}, f.inv, &memoryStore{err: errors.New("disk full")}, nil)

	res, err := svc.Scenario(context.Background(), features.DefaultScenario)
	require.NoError(t, err)
	assert.Len(t, res.Predictions, 2)
}

func TestService_NilCollaborators(t *testing.T) {
	f := newFixture(t)
	svc := New(&stubFetcher{values: features.DefaultScenario.Values()}, f.inv, nil, nil)

	_, err := svc.Live(context.Background(), "USA", 2020)
	assert.NoError(t, err)
	_, err = svc.Scenario(context.Background(), features.DefaultScenario)
	assert.NoError(t, err)
}

func TestService_Deterministic(t *testing.T) {
	b, err := ml.LoadBundle("../ml/testdata/bundle.json")
	require.NoError(t, err)
	svc := New(&stubFetcher{}, ml.NewInvoker(b, nil), nil, nil)

	first, err := svc.Scenario(context.Background(), features.DefaultScenario)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := svc.Scenario(context.Background(), features.DefaultScenario)
		require.NoError(t, err)
		assert.Equal(t, first.Predictions, again.Predictions)
		assert.NotEqual(t, first.ID, again.ID)
	}
}

// worldBankStub serves every indicator for USA and empty data for anything else.
func worldBankStub(t *testing.T) *httptest.Server {
	t.Helper()
	values := map[string]string{
		"NY.GDP.MKTP.CD":    "20893743833000",
		"FP.CPI.TOTL.ZG":    "1.23358439630637",
		"SL.UEM.TOTL.ZS":    "8.055",
		"NY.GDP.MKTP.KD.ZG": "-2.76780303",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) == 4 && parts[1] == "USA" {
			fmt.Fprintf(w, `[{"page":1,"pages":1,"per_page":50,"total":1},[{"date":"%s","value":%s}]]`,
				r.URL.Query().Get("date"), values[parts[3]])
			return
		}
		fmt.Fprint(w, `[{"page":0,"pages":0,"per_page":50,"total":0},[]]`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEndToEnd_LiveUSA(t *testing.T) {
	srv := worldBankStub(t)
	b, err := ml.LoadBundle("../ml/testdata/bundle.json")
	require.NoError(t, err)

	client := worldbank.NewClient(worldbank.Config{BaseURL: srv.URL, Timeout: time.Second, Concurrent: true}, nil)
	svc := New(client, ml.NewInvoker(b, nil), nil, nil)

	res, err := svc.Live(context.Background(), "USA", 2020)
	require.NoError(t, err)
	require.Len(t, res.Predictions, 2)
	assert.Equal(t, "Random Forest", res.Predictions[0].Model)
	assert.Equal(t, 12.0, res.Predictions[0].Value)
	assert.Equal(t, "Linear Regression", res.Predictions[1].Model)
	assert.InDelta(t, 20893.743833, res.Vector[0], 1e-6)
}

func TestEndToEnd_LiveUnknownCountry(t *testing.T) {
	srv := worldBankStub(t)
	f := newFixture(t)

	client := worldbank.NewClient(worldbank.Config{BaseURL: srv.URL, Timeout: time.Second}, nil)
	svc := New(client, f.inv, nil, nil)

	res, err := svc.Live(context.Background(), "XYZ", 2021)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, "could not retrieve all required data for XYZ for 2021", err.Error())

	var incomplete *IncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, featureOrder, incomplete.Missing)
	assert.Zero(t, f.linear.calls())
	assert.Zero(t, f.forest.calls())
}
