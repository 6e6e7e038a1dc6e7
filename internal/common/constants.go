package common

// Logical feature names, in the order the models were trained on.
const (
	FeatureGDP          = "gdp_billion_usd"
	FeatureInflation    = "inflation_rate"
	FeatureUnemployment = "unemployment_rate"
	FeatureGrowth       = "economic_growth"
)

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvWorldBankURL    = "WORLDBANK_URL"
	EnvFetchTimeout    = "FETCH_TIMEOUT"
	EnvConcurrentFetch = "CONCURRENT_FETCH"
	EnvModelPath       = "MODEL_PATH"
	EnvDataPath        = "DATA_PATH"
	EnvPort            = "PORT"
	EnvMinYear         = "MIN_YEAR"
	EnvMaxYear         = "MAX_YEAR"
	EnvLogLevel        = "LOG_LEVEL"
)

// Defaults
const (
	DefaultWorldBankURL = "http://api.worldbank.org/v2"
	DefaultModelPath    = "poverty_predictor_assets.json"
	DefaultPort         = 8080
	DefaultMinYear      = 2011
	DefaultMaxYear      = 2022
)

// Country is a selectable country in the live prediction form.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// KnownCountries lists the countries offered by the dashboard, sorted by name.
var KnownCountries = []Country{
	{"Australia", "AUS"},
	{"Bangladesh", "BGD"},
	{"Brazil", "BRA"},
	{"Canada", "CAN"},
	{"China", "CHN"},
	{"France", "FRA"},
	{"Germany", "DEU"},
	{"India", "IND"},
	{"Indonesia", "IDN"},
	{"Italy", "ITA"},
	{"Japan", "JPN"},
	{"Malaysia", "MYS"},
	{"Pakistan", "PAK"},
	{"Russia", "RUS"},
	{"South Korea", "KOR"},
	{"Turkey", "TUR"},
	{"United Kingdom", "GBR"},
	{"United States", "USA"},
}

// LookupCountry returns the country with the given ISO3 code.
func LookupCountry(code string) (Country, bool) {
	for _, c := range KnownCountries {
		if c.Code == code {
			return c, true
		}
	}
	return Country{}, false
}

// Years returns the selectable years, newest first.
func Years(minYear, maxYear int) []int {
	if maxYear < minYear {
		return nil
	}
	years := make([]int, 0, maxYear-minYear+1)
	for y := maxYear; y >= minYear; y-- {
		years = append(years, y)
	}
	return years
}
