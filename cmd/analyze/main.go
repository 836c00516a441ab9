package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/cianhughes/bank-analyzer/internal/analyze"
	"github.com/cianhughes/bank-analyzer/internal/config"
	"github.com/cianhughes/bank-analyzer/internal/extractor"
	"github.com/cianhughes/bank-analyzer/internal/logger"
	"github.com/cianhughes/bank-analyzer/internal/vat"
)

// Analyze a local statement file and print the JSON result to stdout.
func main() {
	log := logger.New()
	cfg := config.Load()

	var (
		filePath      = flag.String("file", "", "Path to a local statement file, PDF or text (required)")
		countryCode   = flag.String("country", cfg.DefaultCountryCode, "Country code selecting the VAT rate")
		modelFallback = flag.Bool("model-fallback", cfg.ModelFallback, "Fall back to the model parser when heuristics find nothing")
	)
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Usage: analyze -file /path/to/statement.pdf [-country IE] [-model-fallback]")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read statement")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var modelParser analyze.ModelParser
	if *modelFallback {
		gemini, err := analyze.NewGeminiParser(ctx, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create model parser")
		}
		modelParser = gemini
	}

	analyzer := analyze.NewAnalyzer(extractor.New(log), vat.NewRateTable(), modelParser, log)

	res, err := analyzer.Analyze(ctx, data, extractor.DetectKind(data), *countryCode)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
}
