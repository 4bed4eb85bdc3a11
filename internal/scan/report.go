package scan

import (
	"context"
	"fmt"
	"sort"

	"github.com/brandlens/brandlens/internal/brand"
)

// SubjectSummary aggregates the completed items for one scanned subject.
type SubjectSummary struct {
	Subject      string  `json:"subject"`
	Evaluated    int     `json:"evaluated"`
	Mentions     int     `json:"mentions"`
	MentionRate  float64 `json:"mention_rate"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// RunReport is a point-in-time view of a run's progress and visibility
// results, safe to request while batches are still in flight.
type RunReport struct {
	Run       *brand.Run       `json:"run"`
	Total     int              `json:"total"`
	Pending   int              `json:"pending"`
	Completed int              `json:"completed"`
	Failed    int              `json:"failed"`
	Subjects  []SubjectSummary `json:"subjects"`
}

// BuildReport assembles a RunReport for the given run, or nil when the run
// does not exist.
func BuildReport(ctx context.Context, store Store, runID string) (*RunReport, error) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch run: %w", err)
	}
	if run == nil {
		return nil, nil
	}

	items, err := store.ListItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}

	report := &RunReport{Run: run, Total: len(items)}
	type bucket struct {
		evaluated int
		mentions  int
		sentiment float64
	}
	buckets := make(map[string]*bucket)
	for _, item := range items {
		switch item.Status {
		case brand.ItemStatusPending:
			report.Pending++
			continue
		case brand.ItemStatusFailed:
			report.Failed++
			continue
		}

		report.Completed++
		b := buckets[item.Subject]
		if b == nil {
			b = &bucket{}
			buckets[item.Subject] = b
		}
		b.evaluated++
		if item.Mentioned {
			b.mentions++
		}
		b.sentiment += item.Sentiment
	}

	for subject, b := range buckets {
		summary := SubjectSummary{
			Subject:   subject,
			Evaluated: b.evaluated,
			Mentions:  b.mentions,
		}
		if b.evaluated > 0 {
			summary.MentionRate = float64(b.mentions) / float64(b.evaluated)
			summary.AvgSentiment = b.sentiment / float64(b.evaluated)
		}
		report.Subjects = append(report.Subjects, summary)
	}
	sort.Slice(report.Subjects, func(i, j int) bool {
		return report.Subjects[i].Subject < report.Subjects[j].Subject
	})

	return report, nil
}
