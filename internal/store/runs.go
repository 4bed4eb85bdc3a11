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

// CreateRun inserts a new run row.
func (s *Store) CreateRun(ctx context.Context, run *brand.Run) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if run == nil || run.ID == "" {
		return errors.New("run id is required")
	}

	query, args, err := sq.Insert("runs").
		Columns("id", "account_id", "status", "created_at", "updated_at").
		Values(run.ID, run.AccountID, string(run.Status), run.CreatedAt.UTC().Unix(), run.UpdatedAt.UTC().Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun returns a run by id, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, runID string) (*brand.Run, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	query, args, err := sq.Select("id", "account_id", "status", "created_at", "updated_at").
		From("runs").
		Where(sq.Eq{"id": runID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build run select: %w", err)
	}

	var (
		run       brand.Run
		status    string
		createdAt int64
		updatedAt int64
	)
	row := s.DB.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&run.ID, &run.AccountID, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch run: %w", err)
	}

	run.Status = brand.RunStatus(status)
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	run.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &run, nil
}

// MarkRunCompleted transitions a running run to completed. The update is
// conditional on the current status so two overlapping batch calls cannot
// both claim the transition.
func (s *Store) MarkRunCompleted(ctx context.Context, runID string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}

	query, args, err := sq.Update("runs").
		Set("status", string(brand.RunStatusCompleted)).
		Set("updated_at", time.Now().UTC().Unix()).
		Where(sq.Eq{"id": runID, "status": string(brand.RunStatusRunning)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build run update: %w", err)
	}

	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark run completed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark run completed: %w", err)
	}
	return affected > 0, nil
}

// MarkRunFailed transitions a run to failed. Used only when enqueueing
// itself fails before any processing starts.
func (s *Store) MarkRunFailed(ctx context.Context, runID string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	query, args, err := sq.Update("runs").
		Set("status", string(brand.RunStatusFailed)).
		Set("updated_at", time.Now().UTC().Unix()).
		Where(sq.Eq{"id": runID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	return nil
}

// ListRunningRuns returns the account's runs still in the running state.
func (s *Store) ListRunningRuns(ctx context.Context, accountID string) ([]*brand.Run, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	query, args, err := sq.Select("id", "account_id", "status", "created_at", "updated_at").
		From("runs").
		Where(sq.Eq{"account_id": accountID, "status": string(brand.RunStatusRunning)}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build run select: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list running runs: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	var runs []*brand.Run
	for rows.Next() {
		var (
			run       brand.Run
			status    string
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&run.ID, &run.AccountID, &status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = brand.RunStatus(status)
		run.CreatedAt = time.Unix(createdAt, 0).UTC()
		run.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list running runs: %w", err)
	}
	return runs, nil
}

// CountRunsSince counts the account's runs created at or after since.
func (s *Store) CountRunsSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	query, args, err := sq.Select("COUNT(*)").
		From("runs").
		Where(sq.Eq{"account_id": accountID}).
		Where(sq.GtOrEq{"created_at": since.UTC().Unix()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build run count: %w", err)
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}
