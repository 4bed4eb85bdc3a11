package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	sq "github.com/Masterminds/squirrel"
	"gopkg.in/yaml.v3"

	"github.com/brandlens/brandlens/internal/brand"
)

// GetPrices returns the known price entries for the requested models in a
// single lookup. Models without a stored price are absent from the result.
func (s *Store) GetPrices(ctx context.Context, models []string) (map[string]brand.PriceEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	prices := make(map[string]brand.PriceEntry, len(models))
	if len(models) == 0 {
		return prices, nil
	}

	query, args, err := sq.Select("model", "input_per_token", "output_per_token").
		From("model_prices").
		Where(sq.Eq{"model": models}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build price select: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list model prices: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	for rows.Next() {
		var entry brand.PriceEntry
		if err := rows.Scan(&entry.Model, &entry.InputPerToken, &entry.OutputPerToken); err != nil {
			return nil, fmt.Errorf("scan model price: %w", err)
		}
		prices[entry.Model] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list model prices: %w", err)
	}
	return prices, nil
}

// UpsertPrices writes or replaces price entries.
func (s *Store) UpsertPrices(ctx context.Context, entries []brand.PriceEntry) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	for _, entry := range entries {
		if entry.Model == "" {
			return errors.New("price entry model is required")
		}
		if entry.InputPerToken < 0 || entry.OutputPerToken < 0 {
			return fmt.Errorf("price entry for %s has a negative rate", entry.Model)
		}

		query, args, err := sq.Insert("model_prices").
			Columns("model", "input_per_token", "output_per_token").
			Values(entry.Model, entry.InputPerToken, entry.OutputPerToken).
			Suffix("ON CONFLICT(model) DO UPDATE SET input_per_token = excluded.input_per_token, output_per_token = excluded.output_per_token").
			ToSql()
		if err != nil {
			return fmt.Errorf("build price upsert: %w", err)
		}
		if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert price for %s: %w", entry.Model, err)
		}
	}
	return nil
}

// LoadPriceFile reads a YAML price sheet from disk.
func LoadPriceFile(path string) ([]brand.PriceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price file: %w", err)
	}

	var entries []brand.PriceEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse price file %s: %w", path, err)
	}
	return entries, nil
}
