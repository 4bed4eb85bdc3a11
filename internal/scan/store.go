package scan

import (
	"context"
	"time"

	"github.com/brandlens/brandlens/internal/brand"
)

// Store is the durable persistence the scan engine depends on.
//
// AddCredits must be a single atomic increment at the storage layer, never a
// read-modify-write: concurrent batches for the same account would otherwise
// lose updates. MarkRunCompleted must be conditional on the run still being
// in the running state and reports whether it transitioned.
type Store interface {
	CreateRun(ctx context.Context, run *brand.Run) error
	GetRun(ctx context.Context, runID string) (*brand.Run, error)
	MarkRunCompleted(ctx context.Context, runID string) (bool, error)
	MarkRunFailed(ctx context.Context, runID string) error
	ListRunningRuns(ctx context.Context, accountID string) ([]*brand.Run, error)
	CountRunsSince(ctx context.Context, accountID string, since time.Time) (int, error)

	InsertWorkItems(ctx context.Context, items []*brand.WorkItem) error
	ListPendingItems(ctx context.Context, runID string, limit int) ([]*brand.WorkItem, error)
	CountPendingItems(ctx context.Context, runID string) (int, error)
	CountItems(ctx context.Context, runID string) (int, error)
	ListItems(ctx context.Context, runID string) ([]*brand.WorkItem, error)
	FinalizeWorkItem(ctx context.Context, item *brand.WorkItem) error

	GetPrices(ctx context.Context, models []string) (map[string]brand.PriceEntry, error)

	GetAccount(ctx context.Context, accountID string) (*brand.Account, error)
	ResetElapsedPeriod(ctx context.Context, accountID string, now time.Time) error
	AddCredits(ctx context.Context, accountID string, amount float64) error
}
