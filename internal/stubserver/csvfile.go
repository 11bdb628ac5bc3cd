package stubserver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var errEmptyCSV = errors.New("csv file is empty")

// readTable reads a CSV with a header row.
func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errEmptyCSV
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return header, rows, nil
}

// readNames returns the column named one of preferred, or the first column.
func readNames(path string, preferred ...string) ([]string, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}

	col := 0
	for i, h := range header {
		for _, want := range preferred {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				col = i
			}
		}
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			names = append(names, strings.TrimSpace(row[col]))
		}
	}
	return names, nil
}

// writeTable writes header and rows to path atomically.
func writeTable(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
