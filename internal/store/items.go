package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/brandlens/brandlens/internal/brand"
)

// InsertWorkItems bulk-inserts pending work items for a run.
func (s *Store) InsertWorkItems(ctx context.Context, items []*brand.WorkItem) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if len(items) == 0 {
		return nil
	}

	builder := sq.Insert("work_items").
		Columns("run_id", "model", "prompt", "subject", "status", "updated_at")
	now := time.Now().UTC().Unix()
	for _, item := range items {
		builder = builder.Values(item.RunID, item.Model, item.Prompt, item.Subject, string(brand.ItemStatusPending), now)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build work item insert: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert work items: %w", err)
	}
	return nil
}

// ListPendingItems returns up to limit pending items for a run.
func (s *Store) ListPendingItems(ctx context.Context, runID string, limit int) ([]*brand.WorkItem, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	query, args, err := itemColumns().
		Where(sq.Eq{"run_id": runID, "status": string(brand.ItemStatusPending)}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build work item select: %w", err)
	}

	return s.queryItems(ctx, query, args)
}

// ListItems returns all items for a run.
func (s *Store) ListItems(ctx context.Context, runID string) ([]*brand.WorkItem, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	query, args, err := itemColumns().
		Where(sq.Eq{"run_id": runID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build work item select: %w", err)
	}

	return s.queryItems(ctx, query, args)
}

// CountPendingItems counts items still pending for a run.
func (s *Store) CountPendingItems(ctx context.Context, runID string) (int, error) {
	return s.countItems(ctx, sq.Eq{"run_id": runID, "status": string(brand.ItemStatusPending)})
}

// CountItems counts all items for a run.
func (s *Store) CountItems(ctx context.Context, runID string) (int, error) {
	return s.countItems(ctx, sq.Eq{"run_id": runID})
}

func (s *Store) countItems(ctx context.Context, where sq.Eq) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	query, args, err := sq.Select("COUNT(*)").From("work_items").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build work item count: %w", err)
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count work items: %w", err)
	}
	return count, nil
}

// FinalizeWorkItem writes an item's terminal outcome. The update is guarded
// on the pending status: re-delivery of an already-finalized item is a
// no-op, so an item never transitions backward.
func (s *Store) FinalizeWorkItem(ctx context.Context, item *brand.WorkItem) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if item == nil || item.ID == 0 {
		return errors.New("work item id is required")
	}
	if item.Status == brand.ItemStatusPending {
		return errors.New("cannot finalize an item as pending")
	}

	query, args, err := sq.Update("work_items").
		Set("status", string(item.Status)).
		Set("response", item.Response).
		Set("mentioned", boolToInt(item.Mentioned)).
		Set("rank_position", item.Rank).
		Set("sentiment", item.Sentiment).
		Set("error", item.Error).
		Set("updated_at", time.Now().UTC().Unix()).
		Where(sq.Eq{"id": item.ID, "status": string(brand.ItemStatusPending)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build work item update: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finalize work item: %w", err)
	}
	return nil
}

func itemColumns() sq.SelectBuilder {
	return sq.Select("id", "run_id", "model", "prompt", "subject", "status",
		"response", "mentioned", "rank_position", "sentiment", "error", "updated_at").
		From("work_items")
}

func (s *Store) queryItems(ctx context.Context, query string, args []interface{}) ([]*brand.WorkItem, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	var items []*brand.WorkItem
	for rows.Next() {
		var (
			item      brand.WorkItem
			status    string
			response  sql.NullString
			mentioned sql.NullInt64
			rank      sql.NullInt64
			sentiment sql.NullFloat64
			errMsg    sql.NullString
			updatedAt int64
		)
		if err := rows.Scan(&item.ID, &item.RunID, &item.Model, &item.Prompt, &item.Subject,
			&status, &response, &mentioned, &rank, &sentiment, &errMsg, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}

		item.Status = brand.ItemStatus(status)
		item.Response = response.String
		item.Mentioned = mentioned.Int64 != 0
		if rank.Valid {
			value := int(rank.Int64)
			item.Rank = &value
		}
		item.Sentiment = sentiment.Float64
		item.Error = errMsg.String
		item.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	return items, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
