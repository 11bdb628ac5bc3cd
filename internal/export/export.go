// Package export writes stage results to spreadsheet files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for paths that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Sheet names.
const (
	SheetMapped   = "Mapped Products"
	SheetAccuracy = "Accuracy"
	SheetSummary  = "Summary"
)

// AccuracyHeaders is the column order of accuracy exports.
var AccuracyHeaders = []string{"External", "Actual Internal", "Predicted Internal", "Status"}

const (
	headerFill    = "#E2E8F0"
	correctFill   = "#C6F6D5"
	incorrectFill = "#FED7D7"
)

// DefaultName builds a timestamped file name such as
// "mapped_products_20240501-093000.xlsx".
func DefaultName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102-150405"), strings.TrimPrefix(ext, "."))
}

// WriteRecords exports mapped product records. The format follows the file
// extension.
func WriteRecords(path string, records []pipeline.MappedProductRecord) error {
	headers := make([]string, len(pipeline.RecordColumns))
	for i, col := range pipeline.RecordColumns {
		headers[i] = pipeline.ColumnHeader(col)
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
	}

	switch format(path) {
	case "csv":
		return writeCSV(path, headers, rows)
	case "xlsx":
		f := excelize.NewFile()
		defer func() { _ = f.Close() }()

		if err := f.SetSheetName(f.GetSheetName(0), SheetMapped); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
		if err := writeTable(f, SheetMapped, headers, rows); err != nil {
			return err
		}
		_ = f.SetColWidth(SheetMapped, "A", "B", 32)
		_ = f.SetColWidth(SheetMapped, "C", "F", 18)
		return save(f, path)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// WriteAccuracy exports an accuracy report. Spreadsheets also get a summary
// sheet and status coloring.
func WriteAccuracy(path string, report pipeline.AccuracyReport) error {
	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		rows[i] = []string{r.External, r.ActualInternal, r.PredictedInternal, string(r.Status)}
	}

	switch format(path) {
	case "csv":
		return writeCSV(path, AccuracyHeaders, rows)
	case "xlsx":
		return writeAccuracyWorkbook(path, report, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func writeAccuracyWorkbook(path string, report pipeline.AccuracyReport, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetAccuracy); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeTable(f, SheetAccuracy, AccuracyHeaders, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetAccuracy, "A", "C", 32)
	_ = f.SetColWidth(SheetAccuracy, "D", "D", 12)

	correctStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{correctFill}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	incorrectStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{incorrectFill}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	statusCol := len(AccuracyHeaders)
	for i, r := range report.Results {
		cell, _ := excelize.CoordinatesToCellName(statusCol, i+2)
		style := incorrectStyle
		if r.Status.IsCorrect() {
			style = correctStyle
		}
		_ = f.SetCellStyle(SheetAccuracy, cell, cell, style)
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Metric", "Value"},
		{"Accuracy", report.ScoreText()},
		{"Correct", report.Correct()},
		{"Total", len(report.Results)},
	}
	for i, row := range summary {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			_ = f.SetCellValue(SheetSummary, cell, val)
		}
	}
	_ = f.SetColWidth(SheetSummary, "A", "B", 16)

	return save(f, path)
}

// writeTable writes a bold header row followed by rows.
func writeTable(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	_ = f.SetRowStyle(sheet, 1, 1, headerStyle)

	for i, row := range rows {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	return nil
}

func save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, headers []string, rows [][]string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(out)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
