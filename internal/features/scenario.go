package features

import (
	"fmt"
	"math"

	"poverty-dashboard/internal/common"
)

// Scenario is a hypothetical economy entered by hand.
type Scenario struct {
	GDP          float64 `json:"gdp_billion_usd"`
	Inflation    float64 `json:"inflation_rate"`
	Unemployment float64 `json:"unemployment_rate"`
	Growth       float64 `json:"economic_growth"`
}

// Bound is an inclusive input range.
type Bound struct {
	Min, Max float64
}

// ScenarioBounds are the ranges of the scenario builder's input controls.
var ScenarioBounds = map[string]Bound{
	common.FeatureGDP:          {1, 25000},
	common.FeatureInflation:    {-2, 100},
	common.FeatureUnemployment: {1, 90},
	common.FeatureGrowth:       {-15, 15},
}

// DefaultScenario is what the scenario builder shows before any change.
var DefaultScenario = Scenario{GDP: 2000, Inflation: 5.0, Unemployment: 5.5, Growth: 3.0}

// Values returns the scenario as a fully present value map.
func (s Scenario) Values() Values {
	return Values{
		common.FeatureGDP:          Some(s.GDP),
		common.FeatureInflation:    Some(s.Inflation),
		common.FeatureUnemployment: Some(s.Unemployment),
		common.FeatureGrowth:       Some(s.Growth),
	}
}

// Validate checks the scenario against ScenarioBounds. Combinations of
// values are not checked.
func (s Scenario) Validate() error {
	for name, v := range s.Values() {
		f, _ := v.Get()
		b := ScenarioBounds[name]
		if math.IsNaN(f) || f < b.Min || f > b.Max {
			return fmt.Errorf("%s must be between %g and %g, got %g", name, b.Min, b.Max, f)
		}
	}
	return nil
}
