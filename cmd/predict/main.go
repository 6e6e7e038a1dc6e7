package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"poverty-dashboard/internal/common"
	"poverty-dashboard/internal/features"
	"poverty-dashboard/internal/ml"
	"poverty-dashboard/internal/pipeline"
	"poverty-dashboard/internal/worldbank"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		modelPath    = flag.String("model", common.DefaultModelPath, "Path to the model bundle")
		baseURL      = flag.String("api", common.DefaultWorldBankURL, "World Bank API base URL")
		timeout      = flag.Duration("timeout", 10*time.Second, "Per-indicator request timeout")
		country      = flag.String("country", "", "ISO3 country code for a live prediction")
		year         = flag.Int("year", common.DefaultMaxYear, "Year for a live prediction")
		gdp          = flag.Float64("gdp", features.DefaultScenario.GDP, "Scenario GDP in billion USD")
		inflation    = flag.Float64("inflation", features.DefaultScenario.Inflation, "Scenario inflation rate (%)")
		unemployment = flag.Float64("unemployment", features.DefaultScenario.Unemployment, "Scenario unemployment rate (%)")
		growth       = flag.Float64("growth", features.DefaultScenario.Growth, "Scenario economic growth (%)")
		logLevel     = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	bundle, err := ml.LoadBundle(*modelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model bundle")
	}

	client := worldbank.NewClient(worldbank.Config{BaseURL: *baseURL, Timeout: *timeout, Concurrent: true}, nil)
	svc := pipeline.New(client, ml.NewInvoker(bundle, nil), nil, nil)

	ctx := context.Background()
	var res *pipeline.Result
	if *country != "" {
		fmt.Printf("Fetching %d data for %s...\n", *year, strings.ToUpper(*country))
		res, err = svc.Live(ctx, strings.ToUpper(*country), *year)
	} else {
		s := features.Scenario{GDP: *gdp, Inflation: *inflation, Unemployment: *unemployment, Growth: *growth}
		if err := s.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid scenario")
		}
		res, err = svc.Scenario(ctx, s)
	}

	var incomplete *pipeline.IncompleteError
	if errors.As(err, &incomplete) {
		fmt.Fprintf(os.Stderr, "Could not retrieve all required data for %s for %d (missing: %s).\n",
			incomplete.Country, incomplete.Year, strings.Join(incomplete.Missing, ", "))
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("prediction failed")
	}

	printResult(res, bundle.Features())
}

func printResult(res *pipeline.Result, order []string) {
	fmt.Println("=== Inputs ===")
	for i, name := range order {
		fmt.Printf("%-20s %12.4f\n", name, res.Vector[i])
	}
	fmt.Println("=== Predictions ===")
	for _, p := range res.Predictions {
		fmt.Printf("%-20s %12s\n", p.Model, p.Percent())
	}
}
