package features

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		scenario Scenario
		valid    bool
	}{
		{"default", DefaultScenario, true},
		{"lower bounds", Scenario{GDP: 1, Inflation: -2, Unemployment: 1, Growth: -15}, true},
		{"upper bounds", Scenario{GDP: 25000, Inflation: 100, Unemployment: 90, Growth: 15}, true},
		{"implausible but in range", Scenario{GDP: 1, Inflation: 100, Unemployment: 90, Growth: 15}, true},
		{"gdp too low", Scenario{GDP: 0.5, Inflation: 5, Unemployment: 5, Growth: 3}, false},
		{"inflation too high", Scenario{GDP: 2000, Inflation: 100.1, Unemployment: 5, Growth: 3}, false},
		{"unemployment too low", Scenario{GDP: 2000, Inflation: 5, Unemployment: 0, Growth: 3}, false},
		{"growth too low", Scenario{GDP: 2000, Inflation: 5, Unemployment: 5, Growth: -20}, false},
		{"nan", Scenario{GDP: math.NaN(), Inflation: 5, Unemployment: 5, Growth: 3}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scenario.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestScenario_JSON(t *testing.T) {
	var s Scenario
	err := json.Unmarshal([]byte(`{"gdp_billion_usd":2000,"inflation_rate":5,"unemployment_rate":5.5,"economic_growth":3}`), &s)
	require.NoError(t, err)
	assert.Equal(t, DefaultScenario, s)
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal(Values{"a": Some(1.5), "b": None()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

	var vs Values
	require.NoError(t, json.Unmarshal(data, &vs))
	v, ok := vs["a"].Get()
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.False(t, vs["b"].Present())
}
