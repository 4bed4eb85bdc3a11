package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brandlens/brandlens/internal/brand"
)

// Orchestrator creates runs, enqueues all work items up front, and drives
// batch processing to exhaustion.
//
// All work items are inserted at run start, so progress is simply the count
// of items still pending: a run survives process restarts and resumes by
// re-querying pending items.
type Orchestrator struct {
	Store           Store
	Generator       *Generator
	Processor       *Processor
	CompetitorLimit int
	DriveRetryDelay time.Duration
	Sleeper         Sleeper
	Clock           func() time.Time
	Logger          *zap.Logger
}

// StartResult reports a newly created run.
type StartResult struct {
	RunID       string `json:"run_id"`
	TotalQueued int    `json:"total_queued"`
}

// StartScan enforces quotas, expands the account's profile into prompts,
// enqueues the models × prompts product, and returns without blocking on
// completion. A caller drives Advance in a loop afterwards.
func (o *Orchestrator) StartScan(ctx context.Context, accountID string, includeCompetitors bool) (*StartResult, error) {
	account, err := o.checkQuotas(ctx, accountID, includeCompetitors)
	if err != nil {
		return nil, err
	}

	if len(account.Models) == 0 {
		return nil, fmt.Errorf("%w: account has no models selected", ErrInvalidRequest)
	}

	strategies := o.Generator.GeneratePrompts(account.Profile, account.Profile.CompanyName)
	if includeCompetitors {
		for _, competitor := range topCompetitors(account.Profile.Competitors, o.CompetitorLimit) {
			strategies = append(strategies, o.Generator.GeneratePrompts(account.Profile, competitor)...)
		}
	}

	run := &brand.Run{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Status:    brand.RunStatusRunning,
		CreatedAt: o.now(),
		UpdatedAt: o.now(),
	}
	if err := o.Store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	items := make([]*brand.WorkItem, 0, len(account.Models)*len(strategies))
	for _, model := range account.Models {
		for _, strategy := range strategies {
			items = append(items, &brand.WorkItem{
				RunID:   run.ID,
				Model:   model,
				Prompt:  strategy.Text,
				Subject: strategy.Subject,
				Status:  brand.ItemStatusPending,
			})
		}
	}

	if err := o.Store.InsertWorkItems(ctx, items); err != nil {
		// Nothing was processed yet; the run is dead on arrival.
		if failErr := o.Store.MarkRunFailed(ctx, run.ID); failErr != nil {
			o.logError("mark run failed", run.ID, failErr)
		}
		return nil, fmt.Errorf("enqueue work items: %w", err)
	}

	if o.Logger != nil {
		o.Logger.Info("scan started",
			zap.String("run_id", run.ID),
			zap.String("account_id", account.ID),
			zap.Int("total_queued", len(items)),
			zap.Bool("competitors", includeCompetitors))
	}

	return &StartResult{RunID: run.ID, TotalQueued: len(items)}, nil
}

// checkQuotas enforces plan-derived ceilings before any work is enqueued.
// The billing period is lazily reset at the store before usage is read.
func (o *Orchestrator) checkQuotas(ctx context.Context, accountID string, includeCompetitors bool) (*brand.Account, error) {
	if err := o.Store.ResetElapsedPeriod(ctx, accountID, o.now()); err != nil {
		return nil, fmt.Errorf("reset billing period: %w", err)
	}

	account, err := o.Store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %s not found", ErrInvalidRequest, accountID)
	}

	if account.Plan.MonthlyCreditLimit > 0 && account.CreditsUsed >= account.Plan.MonthlyCreditLimit {
		return nil, &brand.QuotaError{
			Cause: brand.QuotaCredits,
			Usage: account.CreditsUsed,
			Limit: account.Plan.MonthlyCreditLimit,
		}
	}

	if account.Plan.HourlyRunLimit > 0 {
		recent, err := o.Store.CountRunsSince(ctx, accountID, o.now().Add(-time.Hour))
		if err != nil {
			return nil, fmt.Errorf("count recent runs: %w", err)
		}
		if recent >= account.Plan.HourlyRunLimit {
			return nil, &brand.QuotaError{
				Cause: brand.QuotaRunRate,
				Usage: float64(recent),
				Limit: float64(account.Plan.HourlyRunLimit),
			}
		}
	}

	if includeCompetitors && !account.Plan.CompetitorAnalysis {
		return nil, &brand.QuotaError{Cause: brand.QuotaFeatureGate}
	}

	return account, nil
}

// Advance processes one batch, retrying indefinitely with a fixed delay on
// transient processor failures. Validation errors are surfaced immediately;
// cancellation of ctx bounds the retries.
func (o *Orchestrator) Advance(ctx context.Context, runID string, batchSize int) (*BatchResult, error) {
	for {
		result, err := o.Processor.ProcessBatch(ctx, runID, batchSize)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrInvalidRequest) {
			return nil, err
		}

		o.logError("batch processing failed, retrying", runID, err)
		if sleepErr := o.sleep(ctx); sleepErr != nil {
			return nil, err
		}
	}
}

// Drive calls Advance until the run reports completion.
func (o *Orchestrator) Drive(ctx context.Context, runID string, batchSize int) (*BatchResult, error) {
	for {
		result, err := o.Advance(ctx, runID, batchSize)
		if err != nil {
			return nil, err
		}
		if result.Completed {
			return result, nil
		}
	}
}

// Resume returns the account's interrupted runs that still have pending
// items. Runs stuck in the running state with nothing pending are an
// inconsistency left by an interrupted batch and are healed in place.
func (o *Orchestrator) Resume(ctx context.Context, accountID string) ([]*brand.Run, error) {
	runs, err := o.Store.ListRunningRuns(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list running runs: %w", err)
	}

	resumable := make([]*brand.Run, 0, len(runs))
	for _, run := range runs {
		pending, err := o.Store.CountPendingItems(ctx, run.ID)
		if err != nil {
			return nil, fmt.Errorf("count pending items: %w", err)
		}
		if pending > 0 {
			resumable = append(resumable, run)
			continue
		}
		if _, err := o.Store.MarkRunCompleted(ctx, run.ID); err != nil {
			return nil, fmt.Errorf("heal orphaned run: %w", err)
		}
		if o.Logger != nil {
			o.Logger.Info("healed orphaned run", zap.String("run_id", run.ID))
		}
	}

	return resumable, nil
}

func (o *Orchestrator) sleep(ctx context.Context) error {
	sleeper := o.Sleeper
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	delay := o.DriveRetryDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return sleeper.Sleep(ctx, delay)
}

func (o *Orchestrator) now() time.Time {
	if o != nil && o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) logError(msg, runID string, err error) {
	if o.Logger == nil {
		return
	}
	o.Logger.Error(msg, zap.String("run_id", runID), zap.Error(err))
}

// topCompetitors bounds competitor expansion to the first limit entries.
// A limit of zero or less disables expansion entirely; the wired default
// comes from config.
func topCompetitors(competitors []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	if len(competitors) > limit {
		competitors = competitors[:limit]
	}
	return competitors
}
