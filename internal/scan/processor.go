package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brandlens/brandlens/internal/brand"
	"github.com/brandlens/brandlens/internal/gateway"
)

// ErrInvalidRequest marks request-shape validation failures, which are
// rejected before any work begins and must not be retried by the drive loop.
var ErrInvalidRequest = errors.New("invalid request")

// defaultMaxBatchSize caps a batch when MaxBatchSize is unset.
const defaultMaxBatchSize = 10

// BatchResult reports the outcome of one batch-processing call.
type BatchResult struct {
	Completed bool    `json:"completed"`
	Processed int     `json:"processed"`
	Remaining int     `json:"remaining"`
	Cost      float64 `json:"cost"`
}

// Processor executes one bounded batch of pending work items for a run.
//
// Item failures are absorbed: a generation or judge error inside one item's
// pipeline becomes a failed work-item outcome while sibling items continue.
// ProcessBatch itself only errors on validation or store failures.
type Processor struct {
	Store        Store
	Driver       gateway.Driver
	Judge        *Judge
	Costs        *Accountant
	MaxBatchSize int
	Logger       *zap.Logger
}

// itemOutcome is the terminal state computed for one fetched item.
type itemOutcome struct {
	item *brand.WorkItem
	cost float64
}

// ProcessBatch fetches up to batchSize pending items for the run, processes
// them concurrently, persists every outcome, meters cost into the account
// ledger, and marks the run completed once no pending items remain.
func (p *Processor) ProcessBatch(ctx context.Context, runID string, batchSize int) (*BatchResult, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("%w: run id is required", ErrInvalidRequest)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", ErrInvalidRequest)
	}
	ceiling := p.MaxBatchSize
	if ceiling <= 0 {
		ceiling = defaultMaxBatchSize
	}
	if batchSize > ceiling {
		batchSize = ceiling
	}

	run, err := p.Store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("%w: run %s not found", ErrInvalidRequest, runID)
	}

	items, err := p.Store.ListPendingItems(ctx, runID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch pending items: %w", err)
	}

	if len(items) == 0 {
		// Re-check the authoritative count: a prior batch may have been
		// interrupted between its writes and its completion transition.
		remaining, err := p.Store.CountPendingItems(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("count pending items: %w", err)
		}
		if remaining == 0 {
			if _, err := p.Store.MarkRunCompleted(ctx, runID); err != nil {
				return nil, fmt.Errorf("mark run completed: %w", err)
			}
			return &BatchResult{Completed: true}, nil
		}
		return &BatchResult{Remaining: remaining}, nil
	}

	prices, err := p.Store.GetPrices(ctx, p.batchModels(items))
	if err != nil {
		return nil, fmt.Errorf("fetch model prices: %w", err)
	}

	outcomes := make([]itemOutcome, len(items))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = p.processItem(groupCtx, item, prices)
			return nil
		})
	}
	_ = g.Wait() // item errors are captured in outcomes, never returned

	totalCost := 0.0
	for _, outcome := range outcomes {
		totalCost += outcome.cost
		if err := p.Store.FinalizeWorkItem(ctx, outcome.item); err != nil {
			// The item stays pending and will be re-fetched by a later
			// batch; sibling writes proceed.
			p.logError("persist work item outcome failed", outcome.item, err)
		}
	}

	if totalCost > 0 {
		if err := p.Store.AddCredits(ctx, run.AccountID, totalCost); err != nil {
			p.logError("ledger increment failed", nil, err)
		}
	}

	remaining, err := p.Store.CountPendingItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("count pending items: %w", err)
	}

	result := &BatchResult{
		Processed: len(items),
		Remaining: remaining,
		Cost:      totalCost,
	}
	if remaining == 0 {
		if _, err := p.Store.MarkRunCompleted(ctx, runID); err != nil {
			return nil, fmt.Errorf("mark run completed: %w", err)
		}
		result.Completed = true
	}

	return result, nil
}

// processItem runs one item's full pipeline: generate the organic answer,
// meter its cost, judge it, and meter the judge cost. Any error becomes a
// failed outcome carrying the message.
func (p *Processor) processItem(ctx context.Context, item *brand.WorkItem, prices map[string]brand.PriceEntry) itemOutcome {
	entry := priceFor(prices, item.Model)

	// Free-form natural text on purpose: the organic answer is the thing
	// being measured, so no structured-output constraint is applied.
	resp, err := p.Driver.Complete(ctx, &gateway.Request{
		Model: item.Model,
		Messages: []gateway.Message{
			{Role: "user", Content: item.Prompt},
		},
	})
	if err != nil {
		failed := *item
		failed.Status = brand.ItemStatusFailed
		failed.Error = err.Error()
		return itemOutcome{item: &failed}
	}

	cost := p.Costs.CallCost(resp, entry)

	verdict, judgeResp := p.Judge.Judge(ctx, resp.Text, item.Subject, item.Prompt)
	if judgeResp != nil {
		cost += p.Costs.CallCost(judgeResp, priceFor(prices, p.Judge.Model))
	}

	completed := *item
	completed.Status = brand.ItemStatusCompleted
	completed.Response = resp.Text
	completed.Mentioned = verdict.Mentioned
	completed.Rank = verdict.Rank
	completed.Sentiment = verdict.Sentiment
	completed.Error = ""
	return itemOutcome{item: &completed, cost: cost}
}

func (p *Processor) logError(msg string, item *brand.WorkItem, err error) {
	if p.Logger == nil {
		return
	}
	fields := []zap.Field{zap.Error(err)}
	if item != nil {
		fields = append(fields, zap.Int64("item_id", item.ID), zap.String("run_id", item.RunID))
	}
	p.Logger.Error(msg, fields...)
}

// batchModels returns the batch's distinct generation models plus the judge
// model, so the single pricing lookup covers judge calls too.
func (p *Processor) batchModels(items []*brand.WorkItem) []string {
	models := distinctModels(items)
	if p.Judge == nil || p.Judge.Model == "" {
		return models
	}
	for _, model := range models {
		if model == p.Judge.Model {
			return models
		}
	}
	return append(models, p.Judge.Model)
}

func distinctModels(items []*brand.WorkItem) []string {
	seen := make(map[string]struct{}, len(items))
	models := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Model]; ok {
			continue
		}
		seen[item.Model] = struct{}{}
		models = append(models, item.Model)
	}
	return models
}

func priceFor(prices map[string]brand.PriceEntry, model string) *brand.PriceEntry {
	if prices == nil {
		return nil
	}
	if entry, ok := prices[model]; ok {
		return &entry
	}
	return nil
}
