package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), "")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "libsql", cfg.Store.Driver)
	require.Equal(t, "gpt-4o-mini", cfg.Judge.Model)
	require.Equal(t, 5, cfg.Scan.BatchSize)
	require.Equal(t, 10, cfg.Scan.MaxBatchSize)
	require.Equal(t, 3, cfg.Scan.CompetitorLimit)
	require.Equal(t, 3, cfg.Scan.VariationAttempts)
	require.Equal(t, 5*time.Second, cfg.Scan.DriveRetryDelay)
	require.InDelta(t, 0.000001, cfg.Pricing.DefaultInputPerToken, 1e-12)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brandlens.yaml")
	contents := []byte(`
server:
  port: 9999
scan:
  batch_size: 2
  max_batch_size: 4
judge:
  model: test-judge
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := load(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, 2, cfg.Scan.BatchSize)
	require.Equal(t, 4, cfg.Scan.MaxBatchSize)
	require.Equal(t, "test-judge", cfg.Judge.Model)
}

func TestLoadRejectsInvalidBatchSizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brandlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  batch_size: 50\n"), 0o600))

	_, err := load(viper.New(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "batch_size")
}
