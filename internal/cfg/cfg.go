package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"poverty-dashboard/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	WorldBankURL    string
	FetchTimeout    time.Duration
	ConcurrentFetch bool
	ModelPath       string
	DataPath        string
	Port            int
	MinYear         int
	MaxYear         int
	LogLevel        string
}

type ConfigFile struct {
	WorldBank struct {
		BaseURL      string `yaml:"baseURL"`
		FetchTimeout string `yaml:"fetchTimeout"`
		Concurrent   *bool  `yaml:"concurrent"`
	} `yaml:"worldBank"`

	ML struct {
		ModelPath string `yaml:"modelPath"`
	} `yaml:"ml"`

	Dashboard struct {
		Port    int `yaml:"port"`
		MinYear int `yaml:"minYear"`
		MaxYear int `yaml:"maxYear"`
	} `yaml:"dashboard"`

	System struct {
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads settings from the YAML file named by CONFIG_FILE, or from the
// environment when it is unset. A .env file in the working directory is
// loaded first if present; it never overrides variables already set.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	fetchTimeout, err := time.ParseDuration(config.WorldBank.FetchTimeout)
	if err != nil {
		fetchTimeout = 10 * time.Second
	}

	concurrent := true
	if config.WorldBank.Concurrent != nil {
		concurrent = *config.WorldBank.Concurrent
	}

	settings := Settings{
		WorldBankURL:    getEnvOrDefault(common.EnvWorldBankURL, orDefault(config.WorldBank.BaseURL, common.DefaultWorldBankURL)),
		FetchTimeout:    getDurationOrDefault(common.EnvFetchTimeout, fetchTimeout),
		ConcurrentFetch: getBoolOrDefault(common.EnvConcurrentFetch, concurrent),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.ML.ModelPath, common.DefaultModelPath)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		Port:            getIntFromEnvOrConfig(common.EnvPort, config.Dashboard.Port, common.DefaultPort),
		MinYear:         getIntFromEnvOrConfig(common.EnvMinYear, config.Dashboard.MinYear, common.DefaultMinYear),
		MaxYear:         getIntFromEnvOrConfig(common.EnvMaxYear, config.Dashboard.MaxYear, common.DefaultMaxYear),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, "info")),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		WorldBankURL:    getEnvOrDefault(common.EnvWorldBankURL, common.DefaultWorldBankURL),
		FetchTimeout:    getDurationOrDefault(common.EnvFetchTimeout, 10*time.Second),
		ConcurrentFetch: getBoolOrDefault(common.EnvConcurrentFetch, true),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		DataPath:        os.Getenv(common.EnvDataPath), // optional
		Port:            getIntOrDefault(common.EnvPort, common.DefaultPort),
		MinYear:         getIntOrDefault(common.EnvMinYear, common.DefaultMinYear),
		MaxYear:         getIntOrDefault(common.EnvMaxYear, common.DefaultMaxYear),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, "info"),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// Years returns the selectable years, newest first.
func (s *Settings) Years() []int {
	return common.Years(s.MinYear, s.MaxYear)
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings checks ranges of configuration values
func validateSettings(settings *Settings) error {
	if settings.WorldBankURL == "" {
		return fmt.Errorf("World Bank URL cannot be empty")
	}
	if !strings.HasPrefix(settings.WorldBankURL, "http://") && !strings.HasPrefix(settings.WorldBankURL, "https://") {
		return fmt.Errorf("World Bank URL must be http(s), got %q", settings.WorldBankURL)
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	if settings.FetchTimeout < time.Second || settings.FetchTimeout > time.Minute {
		return fmt.Errorf("fetch timeout must be between 1s and 1m, got %v", settings.FetchTimeout)
	}
	if settings.Port < 1024 || settings.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535, got %d", settings.Port)
	}
	if settings.MinYear < 1960 || settings.MaxYear > 2100 || settings.MinYear > settings.MaxYear {
		return fmt.Errorf("year range %d-%d is invalid", settings.MinYear, settings.MaxYear)
	}

	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
