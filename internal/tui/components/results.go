package components

import (
	"github.com/Veraticus/inventory-mapper/internal/export"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/tui/themes"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	minColumnWidth = 8
	defaultHeight  = 10
)

// Status labels in the accuracy table.
const (
	CorrectLabel   = "✓ Correct"
	IncorrectLabel = "✗ Incorrect"
)

// ResultsTable is a scrollable table of mapped records or accuracy rows.
type ResultsTable struct {
	theme   themes.Theme
	headers []string
	table   table.Model
}

// NewRecordsTable lists mapped product records, one column per record
// field. Missing and NaN values show as N/A.
func NewRecordsTable(theme themes.Theme, records []pipeline.MappedProductRecord) ResultsTable {
	headers := make([]string, len(pipeline.RecordColumns))
	for i, c := range pipeline.RecordColumns {
		headers[i] = pipeline.ColumnHeader(c)
	}

	rows := make([]table.Row, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
	}

	return newResultsTable(theme, headers, rows)
}

// NewAccuracyTable lists accuracy rows with a correctness marker.
func NewAccuracyTable(theme themes.Theme, report pipeline.AccuracyReport) ResultsTable {
	rows := make([]table.Row, len(report.Results))
	for i, r := range report.Results {
		status := IncorrectLabel
		if r.Status.IsCorrect() {
			status = CorrectLabel
		}
		rows[i] = table.Row{r.External, r.ActualInternal, r.PredictedInternal, status}
	}

	return newResultsTable(theme, export.AccuracyHeaders, rows)
}

func newResultsTable(theme themes.Theme, headers []string, rows []table.Row) ResultsTable {
	t := table.New(
		table.WithColumns(columns(headers, 0)),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(defaultHeight),
	)

	styles := table.DefaultStyles()
	styles.Header = theme.TableHeader
	styles.Selected = theme.TableSelected
	t.SetStyles(styles)

	return ResultsTable{
		theme:   theme,
		headers: headers,
		table:   t,
	}
}

func columns(headers []string, width int) []table.Column {
	w := minColumnWidth * 2
	if width > 0 && len(headers) > 0 {
		// Two cells of padding per column.
		w = max(minColumnWidth, width/len(headers)-2)
	}

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: w}
	}
	return cols
}

// Resize fits the table into width x height cells.
func (r *ResultsTable) Resize(width, height int) {
	r.table.SetColumns(columns(r.headers, width))
	r.table.SetWidth(width)
	if height > 2 {
		r.table.SetHeight(height)
	}
}

// Len returns the number of rows.
func (r ResultsTable) Len() int {
	return len(r.table.Rows())
}

// Update handles scrolling keys.
func (r ResultsTable) Update(msg tea.Msg) (ResultsTable, tea.Cmd) {
	var cmd tea.Cmd
	r.table, cmd = r.table.Update(msg)
	return r, cmd
}

// View renders the table.
func (r ResultsTable) View() string {
	return r.table.View()
}
