package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brandlens/brandlens/internal/brand"
)

func (s *fakeStore) addFinishedItem(runID, subject string, status brand.ItemStatus, mentioned bool, sentiment float64) {
	s.nextID++
	s.items = append(s.items, &brand.WorkItem{
		ID:        s.nextID,
		RunID:     runID,
		Model:     "gpt-4o",
		Prompt:    "prompt",
		Subject:   subject,
		Status:    status,
		Mentioned: mentioned,
		Sentiment: sentiment,
	})
}

func TestBuildReport(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addRun("run-1", "acct-1", brand.RunStatusRunning, timeNowUTC())

	store.addFinishedItem("run-1", "Acme", brand.ItemStatusCompleted, true, 0.6)
	store.addFinishedItem("run-1", "Acme", brand.ItemStatusCompleted, false, 0)
	store.addFinishedItem("run-1", "Rival", brand.ItemStatusCompleted, true, -0.4)
	store.addFinishedItem("run-1", "Rival", brand.ItemStatusFailed, false, 0)
	store.addItem("run-1", "gpt-4o", "p3", "Acme")

	report, err := BuildReport(ctx, store, "run-1")
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Equal(t, 5, report.Total)
	require.Equal(t, 3, report.Completed)
	require.Equal(t, 1, report.Pending)
	require.Equal(t, 1, report.Failed)

	require.Len(t, report.Subjects, 2)
	require.Equal(t, "Acme", report.Subjects[0].Subject)
	require.Equal(t, 2, report.Subjects[0].Evaluated)
	require.Equal(t, 1, report.Subjects[0].Mentions)
	require.InDelta(t, 0.5, report.Subjects[0].MentionRate, 1e-9)
	require.InDelta(t, 0.3, report.Subjects[0].AvgSentiment, 1e-9)

	// The failed Rival item is excluded from the subject aggregates.
	require.Equal(t, "Rival", report.Subjects[1].Subject)
	require.Equal(t, 1, report.Subjects[1].Evaluated)
	require.InDelta(t, 1.0, report.Subjects[1].MentionRate, 1e-9)
	require.InDelta(t, -0.4, report.Subjects[1].AvgSentiment, 1e-9)
}

func TestBuildReportMissingRun(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	report, err := BuildReport(ctx, store, "missing")
	require.NoError(t, err)
	require.Nil(t, report)
}
