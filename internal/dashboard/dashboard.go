// Package dashboard serves the poverty prediction dashboard: an HTML page
// with the live data and scenario builder modes, a JSON API behind it, a
// WebSocket that re-predicts on every scenario change, and the static model
// performance panel.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"poverty-dashboard/internal/common"
	"poverty-dashboard/internal/features"
	"poverty-dashboard/internal/ml"
	"poverty-dashboard/internal/pipeline"
	"poverty-dashboard/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const defaultHistoryWindow = 30 * 24 * time.Hour

// Predictor runs the two prediction paths.
type Predictor interface {
	Live(ctx context.Context, country string, year int) (*pipeline.Result, error)
	Scenario(ctx context.Context, scenario features.Scenario) (*pipeline.Result, error)
}

// HistoryReader reads stored predictions.
type HistoryReader interface {
	GetPredictions(subject string, start, end time.Time) ([]storage.PredictionRecord, error)
}

// MetricsInterface defines metrics methods needed by the dashboard
type MetricsInterface interface {
	HTTPErrorsInc(code int)
}

// Dashboard is the HTTP presentation layer.
type Dashboard struct {
	predictor Predictor
	bundle    *ml.Bundle
	history   HistoryReader
	metrics   MetricsInterface
	years     []int
	router    *mux.Router
	server    *http.Server
	upgrader  websocket.Upgrader
}

// New creates the dashboard. history and metrics may be nil; without a
// history reader the history endpoint answers 404.
func New(predictor Predictor, bundle *ml.Bundle, history HistoryReader, metrics MetricsInterface, years []int, port int) *Dashboard {
	d := &Dashboard{
		predictor: predictor,
		bundle:    bundle,
		history:   history,
		metrics:   metrics,
		years:     years,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/", d.handleIndex).Methods("GET")
	r.HandleFunc("/health", d.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/ws/scenario", d.handleScenarioWS).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/countries", d.handleCountries).Methods("GET")
	api.HandleFunc("/model", d.handleModel).Methods("GET")
	api.HandleFunc("/predict/live", d.handleLive).Methods("GET")
	api.HandleFunc("/predict/scenario", d.handleScenario).Methods("POST")
	api.HandleFunc("/history", d.handleHistory).Methods("GET")
	d.router = r

	d.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Live requests wait on up to four upstream calls.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return d
}

// Handler returns the dashboard's router.
func (d *Dashboard) Handler() http.Handler {
	return d.router
}

// Start serves until Shutdown is called.
func (d *Dashboard) Start() error {
	log.Info().Str("addr", d.server.Addr).Msg("starting dashboard")
	return d.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (d *Dashboard) Shutdown(ctx context.Context) error {
	return d.server.Shutdown(ctx)
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func (d *Dashboard) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (d *Dashboard) writeError(w http.ResponseWriter, status int, resp errorResponse) {
	if d.metrics != nil {
		d.metrics.HTTPErrorsInc(status)
	}
	d.writeJSON(w, status, resp)
}

func (d *Dashboard) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type countriesResponse struct {
	Countries []common.Country `json:"countries"`
	Years     []int            `json:"years"`
}

func (d *Dashboard) handleCountries(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, countriesResponse{Countries: common.KnownCountries, Years: d.years})
}

func (d *Dashboard) yearAllowed(year int) bool {
	for _, y := range d.years {
		if y == year {
			return true
		}
	}
	return false
}

func (d *Dashboard) handleLive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	country, ok := common.LookupCountry(q.Get("country"))
	if !ok {
		d.writeError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported country %q", q.Get("country"))})
		return
	}

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || !d.yearAllowed(year) {
		d.writeError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported year %q", q.Get("year"))})
		return
	}

	res, err := d.predictor.Live(r.Context(), country.Code, year)
	if err != nil {
		var incomplete *pipeline.IncompleteError
		if errors.As(err, &incomplete) {
			d.writeError(w, http.StatusUnprocessableEntity, errorResponse{
				Error:   fmt.Sprintf("Could not retrieve all required data for %s for %d.", country.Name, year),
				Missing: incomplete.Missing,
			})
			return
		}
		log.Error().Err(err).Str("country", country.Code).Int("year", year).Msg("live prediction failed")
		d.writeError(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
		return
	}

	d.writeJSON(w, http.StatusOK, res)
}

func decodeScenario(data []byte) (features.Scenario, error) {
	var s features.Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (d *Dashboard) handleScenario(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&raw); err != nil {
		d.writeError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	s, err := decodeScenario(raw)
	if err != nil {
		d.writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := d.predictor.Scenario(r.Context(), s)
	if err != nil {
		log.Error().Err(err).Msg("scenario prediction failed")
		d.writeError(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
		return
	}

	d.writeJSON(w, http.StatusOK, res)
}

func (d *Dashboard) handleHistory(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		d.writeError(w, http.StatusNotFound, errorResponse{Error: "prediction history is disabled"})
		return
	}

	q := r.URL.Query()
	subject := q.Get("subject")
	if subject == "" {
		d.writeError(w, http.StatusBadRequest, errorResponse{Error: "subject is required"})
		return
	}

	end := time.Now()
	start := end.Add(-defaultHistoryWindow)
	var err error
	if v := q.Get("from"); v != "" {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			d.writeError(w, http.StatusBadRequest, errorResponse{Error: "from must be RFC3339"})
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			d.writeError(w, http.StatusBadRequest, errorResponse{Error: "to must be RFC3339"})
			return
		}
	}

	records, err := d.history.GetPredictions(subject, start, end)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("history query failed")
		d.writeError(w, http.StatusInternalServerError, errorResponse{Error: "history query failed"})
		return
	}
	if records == nil {
		records = []storage.PredictionRecord{}
	}
	d.writeJSON(w, http.StatusOK, records)
}

type wsMessage struct {
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// handleScenarioWS answers every scenario message with a prediction.
func (d *Dashboard) handleScenarioWS(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("scenario websocket closed")
			}
			return
		}

		var msg wsMessage
		s, err := decodeScenario(data)
		if err != nil {
			msg.Error = err.Error()
		} else if res, err := d.predictor.Scenario(r.Context(), s); err != nil {
			log.Error().Err(err).Msg("scenario prediction failed")
			msg.Error = "prediction failed"
		} else {
			msg.Result = res
		}

		if err := conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("scenario websocket write failed")
			return
		}
	}
}
