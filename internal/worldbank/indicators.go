package worldbank

import "poverty-dashboard/internal/common"

// billion converts raw currency units to billions.
const billion = 1_000_000_000

// Indicator binds a logical feature name to a World Bank indicator code.
type Indicator struct {
	Feature string `json:"feature" yaml:"feature"`
	Code    string `json:"code" yaml:"code"`
	// Monetary indicators are reported in raw currency units and are
	// converted to billions.
	Monetary bool `json:"monetary" yaml:"monetary"`
}

var defaultIndicators = []Indicator{
	{Feature: common.FeatureGDP, Code: "NY.GDP.MKTP.CD", Monetary: true},
	{Feature: common.FeatureInflation, Code: "FP.CPI.TOTL.ZG"},
	{Feature: common.FeatureUnemployment, Code: "SL.UEM.TOTL.ZS"},
	{Feature: common.FeatureGrowth, Code: "NY.GDP.MKTP.KD.ZG"},
}

// DefaultIndicators returns a copy of the four indicators the models use.
func DefaultIndicators() []Indicator {
	out := make([]Indicator, len(defaultIndicators))
	copy(out, defaultIndicators)
	return out
}

func (ind Indicator) convert(v float64) float64 {
	if ind.Monetary {
		return v / billion
	}
	return v
}
