package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mrhapile/car-diagnoser/internal/catalog"
	"github.com/mrhapile/car-diagnoser/internal/config"
	"github.com/mrhapile/car-diagnoser/internal/logging"
	"github.com/mrhapile/car-diagnoser/pkg/rules"
	"github.com/mrhapile/car-diagnoser/pkg/types"
)

// setup loads configuration and builds the logger every command shares.
func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, logger, nil
}

// loadKnowledgeBase loads the configured rules file, or the embedded rules
// when none is configured.
func loadKnowledgeBase(cfg config.RulesConfig) (*rules.KnowledgeBase, error) {
	if cfg.Path == "" {
		return rules.Default()
	}
	return rules.LoadFile(cfg.Path)
}

func newCatalogUpdater(cfg config.CatalogConfig, st *catalog.Store, logger *zap.Logger) *catalog.Updater {
	client := catalog.NewClient(catalog.ClientConfig{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Concurrency,
	})
	fetcher := catalog.NewFetcher(client, catalog.FetcherConfig{
		MaxMakes:    cfg.MaxMakes,
		Concurrency: cfg.Concurrency,
	}, logger.Named("catalog"))
	return catalog.NewUpdater(fetcher, st)
}

// parseObservation parses "id" or "id:intensity".
func parseObservation(raw string) (types.Observation, error) {
	id, intensity, _ := strings.Cut(raw, ":")
	obs := types.Observation{
		Symptom:   types.Symptom(strings.TrimSpace(id)),
		Intensity: types.NormalizeIntensity(intensity),
	}
	if obs.Symptom == "" {
		return obs, fmt.Errorf("empty symptom in %q", raw)
	}
	if !obs.Intensity.IsValid() {
		return obs, fmt.Errorf("unknown intensity %q for symptom %s", intensity, obs.Symptom)
	}
	return obs, nil
}
