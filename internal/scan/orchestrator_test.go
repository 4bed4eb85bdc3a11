package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brandlens/brandlens/internal/brand"
)

func testAccount() *brand.Account {
	return &brand.Account{
		ID: "acct-1",
		Profile: brand.Profile{
			CompanyName: "Acme",
			Industry:    "CRM software",
			Keywords:    []string{"lead tracking"},
			Competitors: []string{"RivalCo", "BetaSoft", "GammaHub", "DeltaWorks"},
		},
		Plan: brand.Plan{
			MonthlyCreditLimit: 10,
			HourlyRunLimit:     5,
			CompetitorAnalysis: true,
		},
		Models:      []string{"model-a", "model-b"},
		PeriodStart: timeNowUTC(),
	}
}

func newTestOrchestrator(store *fakeStore) *Orchestrator {
	driver := judgingDriver("Acme is a solid option.")
	return &Orchestrator{
		Store:           store,
		Generator:       &Generator{Driver: driver, Model: "gen", Retry: RetryPolicy{MaxAttempts: 1}},
		Processor:       newTestProcessor(store, driver),
		CompetitorLimit: 3,
		Sleeper:         &instantSleeper{},
	}
}

func TestStartScanEnqueuesCartesianProduct(t *testing.T) {
	store := newFakeStore()
	store.accounts["acct-1"] = testAccount()
	o := newTestOrchestrator(store)

	result, err := o.StartScan(context.Background(), "acct-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)
	// 2 models x 3 default prompts.
	require.Equal(t, 6, result.TotalQueued)

	count, err := store.CountPendingItems(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Equal(t, 6, count)

	run, err := store.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Equal(t, brand.RunStatusRunning, run.Status)
}

func TestStartScanExpandsTopCompetitors(t *testing.T) {
	store := newFakeStore()
	store.accounts["acct-1"] = testAccount()
	o := newTestOrchestrator(store)

	result, err := o.StartScan(context.Background(), "acct-1", true)
	require.NoError(t, err)
	// 2 models x 3 prompts x (own brand + 3 of 4 competitors).
	require.Equal(t, 24, result.TotalQueued)

	items, err := store.ListItems(context.Background(), result.RunID)
	require.NoError(t, err)
	subjects := map[string]int{}
	for _, item := range items {
		subjects[item.Subject]++
	}
	require.Equal(t, map[string]int{"Acme": 6, "RivalCo": 6, "BetaSoft": 6, "GammaHub": 6}, subjects)
}

func TestStartScanZeroCompetitorLimitDisablesExpansion(t *testing.T) {
	store := newFakeStore()
	store.accounts["acct-1"] = testAccount()
	o := newTestOrchestrator(store)
	o.CompetitorLimit = 0

	result, err := o.StartScan(context.Background(), "acct-1", true)
	require.NoError(t, err)
	// 2 models x 3 prompts, own brand only.
	require.Equal(t, 6, result.TotalQueued)

	items, err := store.ListItems(context.Background(), result.RunID)
	require.NoError(t, err)
	for _, item := range items {
		require.Equal(t, "Acme", item.Subject)
	}
}

func TestStartScanQuotaCreditsBlocked(t *testing.T) {
	store := newFakeStore()
	account := testAccount()
	account.CreditsUsed = 10
	store.accounts["acct-1"] = account
	o := newTestOrchestrator(store)

	_, err := o.StartScan(context.Background(), "acct-1", false)

	var qerr *brand.QuotaError
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, brand.QuotaCredits, qerr.Cause)
	require.InDelta(t, 10.0, qerr.Usage, 1e-9)
	require.InDelta(t, 10.0, qerr.Limit, 1e-9)

	require.Empty(t, store.items, "no work items are inserted on rejection")
}

func TestStartScanQuotaRunRateBlocked(t *testing.T) {
	store := newFakeStore()
	account := testAccount()
	account.Plan.HourlyRunLimit = 2
	store.accounts["acct-1"] = account
	store.addRun("old-1", "acct-1", brand.RunStatusCompleted, timeNowUTC().Add(-10*time.Minute))
	store.addRun("old-2", "acct-1", brand.RunStatusCompleted, timeNowUTC().Add(-50*time.Minute))
	o := newTestOrchestrator(store)

	_, err := o.StartScan(context.Background(), "acct-1", false)

	var qerr *brand.QuotaError
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, brand.QuotaRunRate, qerr.Cause)
}

func TestStartScanRunRateIgnoresOldRuns(t *testing.T) {
	store := newFakeStore()
	account := testAccount()
	account.Plan.HourlyRunLimit = 2
	store.accounts["acct-1"] = account
	store.addRun("old-1", "acct-1", brand.RunStatusCompleted, timeNowUTC().Add(-2*time.Hour))
	o := newTestOrchestrator(store)

	_, err := o.StartScan(context.Background(), "acct-1", false)
	require.NoError(t, err)
}

func TestStartScanCompetitorFeatureGate(t *testing.T) {
	store := newFakeStore()
	account := testAccount()
	account.Plan.CompetitorAnalysis = false
	store.accounts["acct-1"] = account
	o := newTestOrchestrator(store)

	_, err := o.StartScan(context.Background(), "acct-1", true)

	var qerr *brand.QuotaError
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, brand.QuotaFeatureGate, qerr.Cause)

	// The same account may still scan without competitors.
	_, err = o.StartScan(context.Background(), "acct-1", false)
	require.NoError(t, err)
}

func TestStartScanLazyPeriodReset(t *testing.T) {
	store := newFakeStore()
	account := testAccount()
	account.CreditsUsed = 10
	account.PeriodStart = timeNowUTC().Add(-31 * 24 * time.Hour)
	store.accounts["acct-1"] = account
	o := newTestOrchestrator(store)

	_, err := o.StartScan(context.Background(), "acct-1", false)
	require.NoError(t, err, "an elapsed billing period resets usage before the quota read")
}

func TestStartScanUnknownAccount(t *testing.T) {
	o := newTestOrchestrator(newFakeStore())
	_, err := o.StartScan(context.Background(), "ghost", false)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDriveFullPass(t *testing.T) {
	store := newFakeStore()
	store.accounts["acct-1"] = testAccount()
	o := newTestOrchestrator(store)

	started, err := o.StartScan(context.Background(), "acct-1", false)
	require.NoError(t, err)
	require.Equal(t, 6, started.TotalQueued)

	advances := 0
	for {
		result, err := o.Advance(context.Background(), started.RunID, 3)
		require.NoError(t, err)
		advances++
		require.LessOrEqual(t, advances, 10, "advance loop must terminate")
		if result.Completed {
			require.Zero(t, result.Remaining)
			break
		}
	}
	require.GreaterOrEqual(t, advances, 2, "6 items with batch size 3 need at least two calls")

	run, err := store.GetRun(context.Background(), started.RunID)
	require.NoError(t, err)
	require.Equal(t, brand.RunStatusCompleted, run.Status)

	items, err := store.ListItems(context.Background(), started.RunID)
	require.NoError(t, err)
	require.Len(t, items, 6)
	for _, item := range items {
		require.NotEqual(t, brand.ItemStatusPending, item.Status)
	}
}

func TestAdvanceRetriesTransientFailures(t *testing.T) {
	store := newFakeStore()
	store.addRun("run-1", "acct-1", brand.RunStatusRunning, timeNowUTC())
	store.addItem("run-1", "model-a", "q", "Acme")
	store.failList = errors.New("connection refused")

	o := newTestOrchestrator(store)
	o.DriveRetryDelay = 3 * time.Second
	sleeper := o.Sleeper.(*instantSleeper)

	result, err := o.Advance(context.Background(), "run-1", 3)
	require.NoError(t, err, "transient store failures are retried, not surfaced")
	require.True(t, result.Completed)
	require.Equal(t, []time.Duration{3 * time.Second}, sleeper.delays)
}

func TestAdvanceDoesNotRetryValidationErrors(t *testing.T) {
	o := newTestOrchestrator(newFakeStore())
	sleeper := o.Sleeper.(*instantSleeper)

	_, err := o.Advance(context.Background(), "missing", 3)
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.Empty(t, sleeper.delays)
}

func TestAdvanceStopsOnCancelledContext(t *testing.T) {
	store := newFakeStore()
	store.addRun("run-1", "acct-1", brand.RunStatusRunning, timeNowUTC())

	calls := 0
	o := newTestOrchestrator(store)
	o.Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	})
	o.Processor.Store = &erroringStore{fakeStore: store, onList: func() error {
		calls++
		return errors.New("network flake")
	}}

	_, err := o.Advance(context.Background(), "run-1", 3)
	require.Error(t, err)
	require.Equal(t, 1, calls, "cancellation bounds the retry loop")
}

func TestResumeReturnsInterruptedRuns(t *testing.T) {
	store := newFakeStore()
	store.addRun("run-live", "acct-1", brand.RunStatusRunning, timeNowUTC())
	store.addItem("run-live", "model-a", "q", "Acme")
	store.addRun("run-done", "acct-1", brand.RunStatusCompleted, timeNowUTC())

	o := newTestOrchestrator(store)
	resumable, err := o.Resume(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, resumable, 1)
	require.Equal(t, "run-live", resumable[0].ID)
}

func TestResumeHealsOrphanedRun(t *testing.T) {
	store := newFakeStore()
	// Running status with zero pending items: interrupted after the last
	// batch's writes but before the completion transition.
	store.addRun("run-orphan", "acct-1", brand.RunStatusRunning, timeNowUTC())

	o := newTestOrchestrator(store)
	resumable, err := o.Resume(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Empty(t, resumable)

	run, err := store.GetRun(context.Background(), "run-orphan")
	require.NoError(t, err)
	require.Equal(t, brand.RunStatusCompleted, run.Status)
}

func TestLedgerMonotonicAcrossBatches(t *testing.T) {
	store := newFakeStore()
	store.accounts["acct-1"] = testAccount()
	o := newTestOrchestrator(store)

	started, err := o.StartScan(context.Background(), "acct-1", false)
	require.NoError(t, err)

	prev := 0.0
	for {
		result, err := o.Advance(context.Background(), started.RunID, 2)
		require.NoError(t, err)
		require.GreaterOrEqual(t, store.ledger["acct-1"], prev, "ledger never decreases")
		prev = store.ledger["acct-1"]
		if result.Completed {
			break
		}
	}
	require.Greater(t, prev, 0.0)
}

// erroringStore wraps fakeStore to inject a ListPendingItems failure.
type erroringStore struct {
	*fakeStore
	onList func() error
}

func (s *erroringStore) ListPendingItems(ctx context.Context, runID string, limit int) ([]*brand.WorkItem, error) {
	if s.onList != nil {
		if err := s.onList(); err != nil {
			return nil, err
		}
	}
	return s.fakeStore.ListPendingItems(ctx, runID, limit)
}
