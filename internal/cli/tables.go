package cli

import (
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var accuracyHeaders = []string{"External", "Actual Internal", "Predicted Internal", "Status"}

// RenderRecords renders mapped product records as a bordered table.
func RenderRecords(records []pipeline.MappedProductRecord) string {
	headers := make([]string, len(pipeline.RecordColumns))
	for i, c := range pipeline.RecordColumns {
		headers[i] = pipeline.ColumnHeader(c)
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}

	return RenderTable(headers, rows)
}

// RenderTable renders rows under headers with the default cell styles.
func RenderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		}).
		String()
}

// RenderAccuracy renders accuracy rows, coloring the status column.
func RenderAccuracy(report pipeline.AccuracyReport) string {
	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		rows[i] = []string{r.External, r.ActualInternal, r.PredictedInternal, MatchLabel(r.Status)}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(accuracyHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderStyle
			case col != len(accuracyHeaders)-1 || row < 0 || row >= len(report.Results):
				return CellStyle
			default:
				return MatchStyle(report.Results[row].Status).PaddingLeft(1)
			}
		}).
		String()
}
