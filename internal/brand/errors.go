package brand

import "fmt"

// QuotaCause distinguishes the quota ceiling that rejected a scan.
type QuotaCause string

const (
	QuotaCredits     QuotaCause = "credit_limit"
	QuotaRunRate     QuotaCause = "run_rate_limit"
	QuotaFeatureGate QuotaCause = "feature_not_permitted"
)

// QuotaError rejects a scan before any work item is enqueued.
//
// Usage and Limit describe the ceiling that was hit so callers can surface
// an actionable message (current usage vs. limit).
type QuotaError struct {
	Cause QuotaCause
	Usage float64
	Limit float64
}

func (e *QuotaError) Error() string {
	if e == nil {
		return "quota exceeded"
	}
	switch e.Cause {
	case QuotaCredits:
		return fmt.Sprintf("monthly credit limit reached: %.4f of %.4f used", e.Usage, e.Limit)
	case QuotaRunRate:
		return fmt.Sprintf("hourly run limit reached: %d of %d runs in the last hour", int(e.Usage), int(e.Limit))
	case QuotaFeatureGate:
		return "competitor analysis is not enabled for this plan"
	default:
		return fmt.Sprintf("quota exceeded: %s", e.Cause)
	}
}
