package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/brandlens/brandlens/internal/brand"
)

// billingPeriod is the length of one credit accounting window.
const billingPeriod = 30 * 24 * time.Hour

// GetAccount loads an account by ID, or nil when it does not exist.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*brand.Account, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	query, args, err := sq.Select("id", "company_name", "industry", "keywords", "competitors",
		"models", "monthly_credit_limit", "hourly_run_limit", "competitor_analysis",
		"credits_used", "period_start").
		From("accounts").
		Where(sq.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build account select: %w", err)
	}

	var (
		account            brand.Account
		industry           sql.NullString
		keywords           sql.NullString
		competitors        sql.NullString
		models             sql.NullString
		competitorAnalysis int
		periodStart        int64
	)
	row := s.DB.QueryRowContext(ctx, query, args...)
	err = row.Scan(&account.ID, &account.Profile.CompanyName, &industry, &keywords,
		&competitors, &models, &account.Plan.MonthlyCreditLimit, &account.Plan.HourlyRunLimit,
		&competitorAnalysis, &account.CreditsUsed, &periodStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", accountID, err)
	}

	account.Profile.Industry = industry.String
	if account.Profile.Keywords, err = decodeStringList(keywords); err != nil {
		return nil, fmt.Errorf("account %s keywords: %w", accountID, err)
	}
	if account.Profile.Competitors, err = decodeStringList(competitors); err != nil {
		return nil, fmt.Errorf("account %s competitors: %w", accountID, err)
	}
	if account.Models, err = decodeStringList(models); err != nil {
		return nil, fmt.Errorf("account %s models: %w", accountID, err)
	}
	account.Plan.CompetitorAnalysis = competitorAnalysis != 0
	account.PeriodStart = time.Unix(periodStart, 0).UTC()
	return &account, nil
}

// UpsertAccount writes or replaces an account record.
func (s *Store) UpsertAccount(ctx context.Context, account *brand.Account) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if account == nil || account.ID == "" {
		return errors.New("account id is required")
	}

	keywords, err := encodeStringList(account.Profile.Keywords)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	competitors, err := encodeStringList(account.Profile.Competitors)
	if err != nil {
		return fmt.Errorf("encode competitors: %w", err)
	}
	models, err := encodeStringList(account.Models)
	if err != nil {
		return fmt.Errorf("encode models: %w", err)
	}

	periodStart := account.PeriodStart
	if periodStart.IsZero() {
		periodStart = time.Now().UTC()
	}

	query, args, err := sq.Insert("accounts").
		Columns("id", "company_name", "industry", "keywords", "competitors", "models",
			"monthly_credit_limit", "hourly_run_limit", "competitor_analysis",
			"credits_used", "period_start").
		Values(account.ID, account.Profile.CompanyName, account.Profile.Industry,
			keywords, competitors, models,
			account.Plan.MonthlyCreditLimit, account.Plan.HourlyRunLimit,
			boolToInt(account.Plan.CompetitorAnalysis),
			account.CreditsUsed, periodStart.Unix()).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			company_name = excluded.company_name,
			industry = excluded.industry,
			keywords = excluded.keywords,
			competitors = excluded.competitors,
			models = excluded.models,
			monthly_credit_limit = excluded.monthly_credit_limit,
			hourly_run_limit = excluded.hourly_run_limit,
			competitor_analysis = excluded.competitor_analysis`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build account upsert: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert account %s: %w", account.ID, err)
	}
	return nil
}

// ResetElapsedPeriod zeroes the credit ledger when the account's billing
// window has elapsed. The reset is a single conditional update, so racing
// callers settle on exactly one reset.
func (s *Store) ResetElapsedPeriod(ctx context.Context, accountID string, now time.Time) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	cutoff := now.Add(-billingPeriod).Unix()
	query, args, err := sq.Update("accounts").
		Set("credits_used", 0).
		Set("period_start", now.UTC().Unix()).
		Where(sq.Eq{"id": accountID}).
		Where(sq.LtOrEq{"period_start": cutoff}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build period reset: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("reset period for account %s: %w", accountID, err)
	}
	return nil
}

// AddCredits increments the account's credit ledger. The increment happens
// in the database so concurrent batches never lose updates.
func (s *Store) AddCredits(ctx context.Context, accountID string, amount float64) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if amount < 0 {
		return errors.New("credit amount must not be negative")
	}

	query, args, err := sq.Update("accounts").
		Set("credits_used", sq.Expr("credits_used + ?", amount)).
		Where(sq.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build credit update: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add credits for account %s: %w", accountID, err)
	}
	return nil
}

func encodeStringList(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStringList(value sql.NullString) ([]string, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value.String), &values); err != nil {
		return nil, err
	}
	return values, nil
}
