// Package worldbank fetches macroeconomic indicators from the World Bank
// open data API. Every indicator is fetched independently and any failure
// is recorded as an absent value, never as an error.
package worldbank

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"poverty-dashboard/internal/features"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	indicatorPath  = "/country/{country}/indicator/{indicator}"
	defaultTimeout = 10 * time.Second
)

// MetricsInterface defines metrics methods needed by the client
type MetricsInterface interface {
	IndicatorRequestsInc(code string)
	IndicatorMissesInc(code string)
	FetchLatencyObserve(float64)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Concurrent bool
	Indicators []Indicator
}

type Client struct {
	rest       *resty.Client
	indicators []Indicator
	concurrent bool
	metrics    MetricsInterface
}

func NewClient(c Config, metrics MetricsInterface) *Client {
	r := resty.New().SetBaseURL(c.BaseURL)
	if c.Timeout > 0 {
		r.SetTimeout(c.Timeout)
	} else {
		r.SetTimeout(defaultTimeout)
	}

	indicators := c.Indicators
	if len(indicators) == 0 {
		indicators = DefaultIndicators()
	}

	return &Client{
		rest:       r,
		indicators: indicators,
		concurrent: c.Concurrent,
		metrics:    metrics,
	}
}

// Indicators returns the indicators the client fetches.
func (c *Client) Indicators() []Indicator {
	out := make([]Indicator, len(c.indicators))
	copy(out, c.indicators)
	return out
}

// Fetch returns one value per indicator for the country and year. Values
// that could not be retrieved are absent.
func (c *Client) Fetch(ctx context.Context, country string, year int) features.Values {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.FetchLatencyObserve(time.Since(start).Seconds())
		}
	}()

	values := make([]features.Value, len(c.indicators))
	if c.concurrent {
		var wg sync.WaitGroup
		for i, ind := range c.indicators {
			wg.Add(1)
			go func(i int, ind Indicator) {
				defer wg.Done()
				values[i] = c.fetchOne(ctx, ind, country, year)
			}(i, ind)
		}
		wg.Wait()
	} else {
		for i, ind := range c.indicators {
			values[i] = c.fetchOne(ctx, ind, country, year)
		}
	}

	result := make(features.Values, len(c.indicators))
	for i, ind := range c.indicators {
		result[ind.Feature] = values[i]
	}
	return result
}

func (c *Client) fetchOne(ctx context.Context, ind Indicator, country string, year int) features.Value {
	if c.metrics != nil {
		c.metrics.IndicatorRequestsInc(ind.Code)
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"country":   country,
			"indicator": ind.Code,
		}).
		SetQueryParams(map[string]string{
			"date":   strconv.Itoa(year),
			"format": "json",
		}).
		Get(indicatorPath)
	if err != nil {
		log.Debug().Err(err).Str("indicator", ind.Code).Str("country", country).Int("year", year).Msg("indicator request failed")
		return c.miss(ind)
	}

	v, ok := parseValue(resp.Body())
	if !ok {
		log.Debug().Str("indicator", ind.Code).Str("country", country).Int("year", year).
			Int("status", resp.StatusCode()).Msg("indicator value unavailable")
		return c.miss(ind)
	}
	return features.Some(ind.convert(v))
}

func (c *Client) miss(ind Indicator) features.Value {
	if c.metrics != nil {
		c.metrics.IndicatorMissesInc(ind.Code)
	}
	return features.None()
}

type observation struct {
	Value json.RawMessage `json:"value"`
}

// parseValue extracts the first observation's value from a response of the
// form [metadata, [observation, ...]].
func parseValue(body []byte) (float64, bool) {
	var doc []json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil || len(doc) < 2 {
		return 0, false
	}

	var rows []observation
	if err := json.Unmarshal(doc[1], &rows); err != nil || len(rows) == 0 {
		return 0, false
	}

	raw := rows[0].Value
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
