package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/brandlens/brandlens/internal/scan"
)

// TableFormatter renders reports as an ASCII table.
type TableFormatter struct{}

// FormatReport renders one subject per row with mention rate and average
// sentiment over the subject's completed items.
func (f *TableFormatter) FormatReport(report *scan.RunReport) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("Run %s (%s)", report.Run.ID, report.Run.Status))
	t.AppendHeader(table.Row{"Subject", "Evaluated", "Mentions", "Mention Rate", "Avg Sentiment"})

	for _, subject := range report.Subjects {
		t.AppendRow(table.Row{
			subject.Subject,
			subject.Evaluated,
			subject.Mentions,
			fmt.Sprintf("%.0f%%", subject.MentionRate*100),
			fmt.Sprintf("%+.2f", subject.AvgSentiment),
		})
	}

	footer := fmt.Sprintf("%d completed, %d pending", report.Completed, report.Pending)
	if report.Failed > 0 {
		footer += fmt.Sprintf(", %d failed", report.Failed)
	}
	t.AppendFooter(table.Row{"", "", "", "", footer})

	return t.Render(), nil
}
