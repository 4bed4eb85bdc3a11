//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brandlens/brandlens/internal/brand"
	"github.com/brandlens/brandlens/internal/config"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	st, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { require.NoError(t, st.Close()) })
	return st
}

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	st, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Equal(t, "libsql", st.Driver())
	require.NoError(t, st.Close())
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	run := &brand.Run{
		ID:        "run-1",
		AccountID: "acct-1",
		Status:    brand.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateRun(ctx, run))

	loaded, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, brand.RunStatusRunning, loaded.Status)
	require.Equal(t, "acct-1", loaded.AccountID)

	running, err := st.ListRunningRuns(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, running, 1)

	count, err := st.CountRunsSince(ctx, "acct-1", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, count)

	transitioned, err := st.MarkRunCompleted(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, transitioned)

	// Second completion attempt must report no transition.
	transitioned, err = st.MarkRunCompleted(ctx, "run-1")
	require.NoError(t, err)
	require.False(t, transitioned)

	loaded, err = st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, brand.RunStatusCompleted, loaded.Status)
}

func TestGetRunMissing(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	run, err := st.GetRun(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, run)
}

func TestWorkItemLifecycle(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	items := []*brand.WorkItem{
		{RunID: "run-1", Model: "gpt-4o", Prompt: "p1", Subject: "Acme"},
		{RunID: "run-1", Model: "gpt-4o", Prompt: "p2", Subject: "Acme"},
		{RunID: "run-1", Model: "gpt-4o-mini", Prompt: "p1", Subject: "Rival"},
	}
	require.NoError(t, st.InsertWorkItems(ctx, items))

	pending, err := st.ListPendingItems(ctx, "run-1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	total, err := st.CountItems(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, 3, total)

	rank := 2
	done := *pending[0]
	done.Status = brand.ItemStatusCompleted
	done.Response = "Acme leads the pack."
	done.Mentioned = true
	done.Rank = &rank
	done.Sentiment = 0.8
	require.NoError(t, st.FinalizeWorkItem(ctx, &done))

	failed := *pending[1]
	failed.Status = brand.ItemStatusFailed
	failed.Error = "connection reset"
	require.NoError(t, st.FinalizeWorkItem(ctx, &failed))

	remaining, err := st.CountPendingItems(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, 1, remaining)

	all, err := st.ListItems(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, brand.ItemStatusCompleted, all[0].Status)
	require.True(t, all[0].Mentioned)
	require.NotNil(t, all[0].Rank)
	require.Equal(t, 2, *all[0].Rank)
	require.InDelta(t, 0.8, all[0].Sentiment, 1e-9)
	require.Equal(t, brand.ItemStatusFailed, all[1].Status)
	require.Equal(t, "connection reset", all[1].Error)
}

func TestFinalizeWorkItemIsTerminal(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	require.NoError(t, st.InsertWorkItems(ctx, []*brand.WorkItem{
		{RunID: "run-1", Model: "gpt-4o", Prompt: "p1", Subject: "Acme"},
	}))
	pending, err := st.ListPendingItems(ctx, "run-1", 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	done := *pending[0]
	done.Status = brand.ItemStatusCompleted
	done.Response = "first write"
	done.Mentioned = true
	require.NoError(t, st.FinalizeWorkItem(ctx, &done))

	// Re-delivery of the same item does not overwrite the terminal row.
	again := done
	again.Status = brand.ItemStatusFailed
	again.Error = "late failure"
	require.NoError(t, st.FinalizeWorkItem(ctx, &again))

	all, err := st.ListItems(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, brand.ItemStatusCompleted, all[0].Status)
	require.Equal(t, "first write", all[0].Response)
}

func TestPriceRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	entries := []brand.PriceEntry{
		{Model: "gpt-4o", InputPerToken: 0.0000025, OutputPerToken: 0.00001},
		{Model: "gpt-4o-mini", InputPerToken: 0.00000015, OutputPerToken: 0.0000006},
	}
	require.NoError(t, st.UpsertPrices(ctx, entries))

	prices, err := st.GetPrices(ctx, []string{"gpt-4o", "gpt-4o-mini", "unknown"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	require.InDelta(t, 0.0000025, prices["gpt-4o"].InputPerToken, 1e-12)

	// Upsert replaces existing rates.
	require.NoError(t, st.UpsertPrices(ctx, []brand.PriceEntry{
		{Model: "gpt-4o", InputPerToken: 0.000003, OutputPerToken: 0.000012},
	}))
	prices, err = st.GetPrices(ctx, []string{"gpt-4o"})
	require.NoError(t, err)
	require.InDelta(t, 0.000003, prices["gpt-4o"].InputPerToken, 1e-12)
}

func TestAccountLedger(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	now := time.Now().UTC()
	account := &brand.Account{
		ID: "acct-1",
		Profile: brand.Profile{
			CompanyName: "Acme Analytics",
			Industry:    "business intelligence",
			Keywords:    []string{"dashboards", "reporting"},
			Competitors: []string{"Rival", "Contender"},
		},
		Plan: brand.Plan{
			MonthlyCreditLimit: 10,
			HourlyRunLimit:     5,
			CompetitorAnalysis: true,
		},
		Models:      []string{"gpt-4o"},
		PeriodStart: now,
	}
	require.NoError(t, st.UpsertAccount(ctx, account))

	loaded, err := st.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "Acme Analytics", loaded.Profile.CompanyName)
	require.Equal(t, []string{"Rival", "Contender"}, loaded.Profile.Competitors)
	require.True(t, loaded.Plan.CompetitorAnalysis)
	require.Zero(t, loaded.CreditsUsed)

	require.NoError(t, st.AddCredits(ctx, "acct-1", 0.25))
	require.NoError(t, st.AddCredits(ctx, "acct-1", 0.5))

	loaded, err = st.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.InDelta(t, 0.75, loaded.CreditsUsed, 1e-9)

	// Ledger survives when the period has not elapsed.
	require.NoError(t, st.ResetElapsedPeriod(ctx, "acct-1", now))
	loaded, err = st.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.InDelta(t, 0.75, loaded.CreditsUsed, 1e-9)

	// An elapsed window zeroes the ledger and restarts the period.
	later := now.Add(31 * 24 * time.Hour)
	require.NoError(t, st.ResetElapsedPeriod(ctx, "acct-1", later))
	loaded, err = st.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Zero(t, loaded.CreditsUsed)
	require.WithinDuration(t, later, loaded.PeriodStart, time.Second)
}

func TestGetAccountMissing(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	account, err := st.GetAccount(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, account)
}
