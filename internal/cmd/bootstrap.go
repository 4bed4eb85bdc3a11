package cmd

import (
	"context"
	"fmt"

	"github.com/brandlens/brandlens/internal/gateway"
	"github.com/brandlens/brandlens/internal/gateway/openai"
	"github.com/brandlens/brandlens/internal/scan"
	"github.com/brandlens/brandlens/internal/store"
)

func openStore(ctx context.Context) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func newDriver() (gateway.Driver, error) {
	if cfg.Gateway.APIKey == "" {
		return nil, fmt.Errorf("gateway api key is required (set BRANDLENS_GATEWAY_API_KEY)")
	}

	client := openai.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey)
	if cfg.Gateway.Timeout > 0 {
		client.Timeout = cfg.Gateway.Timeout
	}
	return client, nil
}

func newOrchestrator(db *store.Store, driver gateway.Driver) *scan.Orchestrator {
	judge := &scan.Judge{
		Driver:      driver,
		Model:       cfg.Judge.Model,
		Temperature: cfg.Judge.Temperature,
		Logger:      logger,
	}
	costs := &scan.Accountant{
		DefaultInputPerToken:  cfg.Pricing.DefaultInputPerToken,
		DefaultOutputPerToken: cfg.Pricing.DefaultOutputPerToken,
	}
	generator := &scan.Generator{
		Driver: driver,
		Model:  cfg.Judge.Model,
		Retry: scan.RetryPolicy{
			MaxAttempts: cfg.Scan.VariationAttempts,
			Backoff:     cfg.Scan.VariationBackoff,
		},
		Logger: logger,
	}
	processor := &scan.Processor{
		Store:        db,
		Driver:       driver,
		Judge:        judge,
		Costs:        costs,
		MaxBatchSize: cfg.Scan.MaxBatchSize,
		Logger:       logger,
	}

	return &scan.Orchestrator{
		Store:           db,
		Generator:       generator,
		Processor:       processor,
		CompetitorLimit: cfg.Scan.CompetitorLimit,
		DriveRetryDelay: cfg.Scan.DriveRetryDelay,
		Logger:          logger,
	}
}
