package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brandlens/brandlens/internal/brand"
	"github.com/brandlens/brandlens/internal/scan"
)

func sampleReport() *scan.RunReport {
	return &scan.RunReport{
		Run: &brand.Run{
			ID:        "run-1",
			AccountID: "acct-1",
			Status:    brand.RunStatusCompleted,
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		Total:     6,
		Completed: 5,
		Failed:    1,
		Subjects: []scan.SubjectSummary{
			{Subject: "Acme", Evaluated: 3, Mentions: 2, MentionRate: 2.0 / 3.0, AvgSentiment: 0.4},
			{Subject: "Rival", Evaluated: 2, Mentions: 1, MentionRate: 0.5, AvgSentiment: -0.2},
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestTableFormatter(t *testing.T) {
	formatter := &TableFormatter{}

	rendered, err := formatter.FormatReport(sampleReport())
	require.NoError(t, err)
	require.Contains(t, rendered, "Acme")
	require.Contains(t, rendered, "Rival")
	require.Contains(t, rendered, "67%")
	require.Contains(t, rendered, "1 failed")
}

func TestTableFormatterNilReport(t *testing.T) {
	formatter := &TableFormatter{}

	rendered, err := formatter.FormatReport(nil)
	require.NoError(t, err)
	require.Empty(t, rendered)
}

func TestJSONFormatter(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}

	rendered, err := formatter.FormatReport(sampleReport())
	require.NoError(t, err)

	var decoded scan.RunReport
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, "run-1", decoded.Run.ID)
	require.Len(t, decoded.Subjects, 2)
}
