// Package pipeline wires the indicator fetcher, the feature normalizer and
// the model invoker into the two prediction paths the dashboard offers:
// live World Bank data for a country and year, and a manual scenario.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poverty-dashboard/internal/features"
	"poverty-dashboard/internal/ml"
	"poverty-dashboard/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Prediction modes
const (
	ModeLive     = "live"
	ModeScenario = "scenario"
)

// Fetcher retrieves indicator values for a country and year. Values that
// could not be retrieved are absent; Fetch never fails.
type Fetcher interface {
	Fetch(ctx context.Context, country string, year int) features.Values
}

// HistoryStore records served predictions.
type HistoryStore interface {
	StorePrediction(rec storage.PredictionRecord) error
}

// MetricsInterface defines metrics methods needed by the service
type MetricsInterface interface {
	LiveRequestsInc()
	IncompleteRequestsInc()
	ScenarioRequestsInc()
}

// IncompleteError reports that live data for a country and year could not
// be fully retrieved. No prediction is made in that case.
type IncompleteError struct {
	Country string
	Year    int
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("could not retrieve all required data for %s for %d", e.Country, e.Year)
}

func (e *IncompleteError) Is(target error) bool {
	return target == features.ErrIncomplete
}

// Result is the outcome of one prediction request.
type Result struct {
	ID          string          `json:"id"`
	Mode        string          `json:"mode"`
	Country     string          `json:"country,omitempty"`
	Year        int             `json:"year,omitempty"`
	Inputs      features.Values `json:"inputs"`
	Vector      features.Vector `json:"vector"`
	Predictions []ml.Prediction `json:"predictions"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Service runs prediction requests. It keeps no state between requests.
type Service struct {
	fetcher Fetcher
	invoker *ml.Invoker
	history HistoryStore
	metrics MetricsInterface
	now     func() time.Time
}

// New creates a service. history and metrics may be nil.
func New(fetcher Fetcher, invoker *ml.Invoker, history HistoryStore, metrics MetricsInterface) *Service {
	return &Service{
		fetcher: fetcher,
		invoker: invoker,
		history: history,
		metrics: metrics,
		now:     time.Now,
	}
}

// Invoker returns the model invoker the service predicts with.
func (s *Service) Invoker() *ml.Invoker {
	return s.invoker
}

// Live fetches the indicators for country and year and predicts with every
// model. If any indicator is absent it returns an *IncompleteError and the
// models are not called.
func (s *Service) Live(ctx context.Context, country string, year int) (*Result, error) {
	if s.metrics != nil {
		s.metrics.LiveRequestsInc()
	}

	values := s.fetcher.Fetch(ctx, country, year)

	vec, err := features.Normalize(values, s.invoker.Bundle().Features())
	if err != nil {
		var incomplete *features.IncompleteError
		if errors.As(err, &incomplete) {
			if s.metrics != nil {
				s.metrics.IncompleteRequestsInc()
			}
			log.Info().Str("country", country).Int("year", year).
				Strs("missing", incomplete.Missing).Msg("live data incomplete, skipping prediction")
			return nil, &IncompleteError{Country: country, Year: year, Missing: incomplete.Missing}
		}
		return nil, err
	}

	return s.predict(ModeLive, country, year, values, vec)
}

// Scenario predicts with every model from manually entered values.
func (s *Service) Scenario(ctx context.Context, scenario features.Scenario) (*Result, error) {
	if s.metrics != nil {
		s.metrics.ScenarioRequestsInc()
	}

	values := scenario.Values()
	vec, err := features.Normalize(values, s.invoker.Bundle().Features())
	if err != nil {
		return nil, err
	}

	return s.predict(ModeScenario, "", 0, values, vec)
}

func (s *Service) predict(mode, country string, year int, values features.Values, vec features.Vector) (*Result, error) {
	preds, err := s.invoker.PredictAll(vec)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	res := &Result{
		ID:          uuid.NewString(),
		Mode:        mode,
		Country:     country,
		Year:        year,
		Inputs:      values,
		Vector:      vec,
		Predictions: preds,
		CreatedAt:   s.now(),
	}

	log.Debug().Str("id", res.ID).Str("mode", mode).Str("country", country).Int("year", year).
		Interface("predictions", preds).Msg("prediction served")

	s.record(res)
	return res, nil
}

func (s *Service) record(res *Result) {
	if s.history == nil {
		return
	}

	subject := res.Country
	if res.Mode == ModeScenario {
		subject = storage.ScenarioSubject
	}

	err := s.history.StorePrediction(storage.PredictionRecord{
		ID:          res.ID,
		Mode:        res.Mode,
		Subject:     subject,
		Year:        res.Year,
		Inputs:      res.Inputs,
		Predictions: res.Predictions,
		CreatedAt:   res.CreatedAt,
	})
	if err != nil {
		log.Warn().Err(err).Str("id", res.ID).Msg("failed to record prediction")
	}
}
