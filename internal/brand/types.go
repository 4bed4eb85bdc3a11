package brand

import "time"

// RunStatus identifies the lifecycle state of a scan run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ItemStatus identifies the lifecycle state of a single work item.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusFailed    ItemStatus = "failed"
)

// Run is one scan session producing a bounded set of work items.
type Run struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkItem is one (model, prompt, subject) unit of evaluation work.
//
// Result fields are populated when the item leaves pending. An item never
// transitions back to pending; re-processing the same item must produce an
// equivalent terminal write.
type WorkItem struct {
	ID        int64      `json:"id"`
	RunID     string     `json:"run_id"`
	Model     string     `json:"model"`
	Prompt    string     `json:"prompt"`
	Subject   string     `json:"subject"`
	Status    ItemStatus `json:"status"`
	Response  string     `json:"response,omitempty"`
	Mentioned bool       `json:"mentioned"`
	Rank      *int       `json:"rank,omitempty"`
	Sentiment float64    `json:"sentiment"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StrategyType identifies a prompt archetype.
type StrategyType string

const (
	StrategyDiscovery StrategyType = "discovery"
	StrategyMarket    StrategyType = "market"
	StrategyProblem   StrategyType = "problem"
	StrategyVariation StrategyType = "variation"
)

// Strategy is one generated test prompt tagged with the subject it evaluates.
type Strategy struct {
	Type    StrategyType `json:"type"`
	Text    string       `json:"text"`
	Subject string       `json:"subject"`
}

// Verdict is the judge's assessment of one natural-language response.
type Verdict struct {
	Mentioned bool    `json:"mentioned"`
	Rank      *int    `json:"rank,omitempty"`
	Sentiment float64 `json:"sentiment"`
}

// Profile describes the brand an account is scanning for.
type Profile struct {
	CompanyName string   `json:"company_name" yaml:"company_name"`
	Industry    string   `json:"industry" yaml:"industry"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Competitors []string `json:"competitors" yaml:"competitors"`
}

// Plan carries the quota ceilings and feature flags derived from an
// account's subscription.
type Plan struct {
	MonthlyCreditLimit float64 `json:"monthly_credit_limit" yaml:"monthly_credit_limit"`
	HourlyRunLimit     int     `json:"hourly_run_limit" yaml:"hourly_run_limit"`
	CompetitorAnalysis bool    `json:"competitor_analysis" yaml:"competitor_analysis"`
}

// Account is the owner of runs, with its profile, plan, and credit ledger.
type Account struct {
	ID          string    `json:"id" yaml:"id"`
	Profile     Profile   `json:"profile" yaml:"profile"`
	Plan        Plan      `json:"plan" yaml:"plan"`
	Models      []string  `json:"models" yaml:"models"`
	CreditsUsed float64   `json:"credits_used" yaml:"credits_used"`
	PeriodStart time.Time `json:"period_start" yaml:"period_start"`
}

// PriceEntry is the per-token cost for one model.
type PriceEntry struct {
	Model          string  `json:"model" yaml:"model"`
	InputPerToken  float64 `json:"input_per_token" yaml:"input_per_token"`
	OutputPerToken float64 `json:"output_per_token" yaml:"output_per_token"`
}
