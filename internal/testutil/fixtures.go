// Package testutil holds fixtures shared by the end-to-end tests: a small
// product catalogue with its answer key, and a throwaway journal.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Catalogue contents. The stub matcher maps the first external product by
// rule and leaves the second unmatched, so an accuracy check scores 50%.
const (
	InternalCSV = "ID,LONG_NAME\n1,Acme Bolt 10g pack\n2,Zebra Crackers Box\n"
	ExternalCSV = "PRODUCT_NAME\nACME BOLT 10g\nUnknown Thing\n"
	AnswersCSV  = "External,Internal\nacme bolt 10g,ACME BOLT 10G PACK\nUnknown Thing,Zebra Crackers Box\n"
)

// ProductFiles are paths to a written catalogue.
type ProductFiles struct {
	Internal string
	External string
	Answers  string
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", p, err)
	}
	return p
}

// WriteProductFiles writes the catalogue into a fresh temp directory.
func WriteProductFiles(t *testing.T) ProductFiles {
	t.Helper()
	dir := t.TempDir()
	return ProductFiles{
		Internal: WriteFile(t, dir, "internal.csv", InternalCSV),
		External: WriteFile(t, dir, "external.csv", ExternalCSV),
		Answers:  WriteFile(t, dir, "answers.csv", AnswersCSV),
	}
}
