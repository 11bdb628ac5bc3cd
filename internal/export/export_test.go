package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []pipeline.MappedProductRecord {
	return []pipeline.MappedProductRecord{
		{"External": "Acme Bolt", "Internal": "BOLT-01", "Method": "semantic", "Semantic_Score": 0.91},
		{"External": "Acme Nut"},
	}
}

func sampleReport() pipeline.AccuracyReport {
	return pipeline.AccuracyReport{
		Accuracy: 50,
		Results: []pipeline.AccuracyRow{
			{External: "Acme Bolt", ActualInternal: "BOLT-01", PredictedInternal: "BOLT-01", Status: pipeline.StatusCorrect},
			{External: "Acme Nut", ActualInternal: "NUT-01", PredictedInternal: pipeline.NotAvailable, Status: pipeline.StatusIncorrect},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteRecords_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mapped.csv")
	require.NoError(t, WriteRecords(path, sampleRecords()))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"External", "Predicted Internal", "Method", "Semantic_Score", "Fallback_Internal", "Fallback_Semantic_Score"}, rows[0])
	assert.Equal(t, []string{"Acme Bolt", "BOLT-01", "semantic", "0.91", "N/A", "N/A"}, rows[1])
	assert.Equal(t, "N/A", rows[2][1])
}

func TestWriteRecords_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapped.xlsx")
	require.NoError(t, WriteRecords(path, sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(SheetMapped)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Predicted Internal", rows[0][1])
	assert.Equal(t, "BOLT-01", rows[1][1])
	assert.Equal(t, "N/A", rows[2][3])
}

func TestWriteAccuracy_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accuracy.xlsx")
	require.NoError(t, WriteAccuracy(path, sampleReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(SheetAccuracy)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, AccuracyHeaders, rows[0])
	assert.Equal(t, "Correct", rows[1][3])
	assert.Equal(t, "N/A", rows[2][2])

	score, err := f.GetCellValue(SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "50%", score)
	correct, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", correct)
}

func TestWriteAccuracy_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accuracy.CSV")
	require.NoError(t, WriteAccuracy(path, sampleReport()))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Acme Nut", "NUT-01", "N/A", "Incorrect"}, rows[2])
}

func TestUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	require.ErrorIs(t, WriteRecords(filepath.Join(dir, "x.json"), nil), ErrUnsupportedFormat)
	require.ErrorIs(t, WriteAccuracy(filepath.Join(dir, "x"), pipeline.AccuracyReport{}), ErrUnsupportedFormat)
}

func TestDefaultName(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "mapped_products_20240501-093000.xlsx", DefaultName("mapped_products", ".xlsx", now))
	assert.Equal(t, "accuracy_20240501-093000.csv", DefaultName("accuracy", "csv", now))
}
