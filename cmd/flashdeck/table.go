package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"flashdeck/internal/pipeline"
)

// renderRunSummary lays out the per-concept generation report: one row per
// concept in document order, counts right-aligned, skipped concepts called
// out in the status column.
func renderRunSummary(result *pipeline.Result) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Concept", "Requested", "Accepted", "Duplicates", "Truncated", "Status"})

	for _, outcome := range result.Outcomes {
		status := "ok"
		if outcome.Skipped {
			status = "skipped"
		}
		tw.AppendRow(table.Row{
			outcome.Title,
			strconv.Itoa(outcome.Requested),
			strconv.Itoa(outcome.Accepted),
			strconv.Itoa(outcome.Duplicates),
			yesNo(outcome.Truncated),
			status,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderSettingsTable lays out the effective configuration as setting/value
// pairs for config show.
func renderSettingsTable(rows [][]string) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Setting", "Value"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	return tw.Render()
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}
