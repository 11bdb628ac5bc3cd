package stubserver

import (
	"fmt"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Files written under the data directory.
const (
	fileInternal      = "Data_Internal.csv"
	fileExternal      = "Data_External.csv"
	fileUploadReport  = "Upload_Report.csv"
	fileProcessedInt  = "Processed_Internal.csv"
	fileProcessedExt  = "Processed_External.csv"
	fileMatched       = "Matched_Results.csv"
	fileAnswerPrefix  = "Answers_"
	statusCorrect     = "Correct"
	statusWrong       = "Wrong"
	internalNameField = "LONG_NAME"
	externalNameField = "PRODUCT_NAME"
)

var recordColumns = []string{
	"External", "Internal", "Method", "Semantic_Score", "Fallback_Internal", "Fallback_Semantic_Score",
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func isCSV(fh *multipart.FileHeader) bool {
	return strings.EqualFold(filepath.Ext(fh.Filename), ".csv")
}

func (s *Server) path(name string) string {
	return filepath.Join(s.cfg.DataDir, name)
}

func (s *Server) handleUpload(c *gin.Context) {
	file1, err1 := c.FormFile("file1")
	file2, err2 := c.FormFile("file2")
	if err1 != nil || err2 != nil {
		message(c, http.StatusBadRequest, "No file part")
		return
	}
	if !isCSV(file1) || !isCSV(file2) {
		message(c, http.StatusBadRequest, "Invalid file format. Only CSV files are allowed.")
		return
	}

	internalPath, externalPath := s.path(fileInternal), s.path(fileExternal)
	if err := c.SaveUploadedFile(file1, internalPath); err != nil {
		s.fail(c, "upload", "Error saving "+file1.Filename, err)
		return
	}
	if err := c.SaveUploadedFile(file2, externalPath); err != nil {
		s.fail(c, "upload", "Error saving "+file2.Filename, err)
		return
	}

	internal, err := readNames(internalPath, internalNameField)
	if err != nil {
		s.fail(c, "upload", "Error reading internal file", err)
		return
	}
	external, err := readNames(externalPath, externalNameField)
	if err != nil {
		s.fail(c, "upload", "Error reading external file", err)
		return
	}

	report := s.path(fileUploadReport)
	rows := [][]string{
		{"internal", file1.Filename, strconv.Itoa(len(internal))},
		{"external", file2.Filename, strconv.Itoa(len(external))},
	}
	if err := writeTable(report, []string{"Role", "File", "Rows"}, rows); err != nil {
		s.fail(c, "upload", "Error writing upload report", err)
		return
	}

	s.mu.Lock()
	s.internalPath, s.externalPath = internalPath, externalPath
	s.internal, s.external = nil, nil
	s.preprocessed = false
	s.records = nil
	s.mu.Unlock()

	s.metrics.RecordStage("upload", true)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Files uploaded successfully",
		"results_file": report,
	})
}

func (s *Server) handlePreprocess(c *gin.Context) {
	s.mu.Lock()
	internalPath, externalPath := s.internalPath, s.externalPath
	s.mu.Unlock()

	if internalPath == "" || externalPath == "" {
		s.metrics.RecordStage("preprocess", false)
		message(c, http.StatusNotFound, "Uploaded files not found")
		return
	}
	if !s.simulateWork(c) {
		return
	}

	internal, err := readNames(internalPath, internalNameField)
	if err != nil {
		s.fail(c, "preprocess", "Error during preprocessing", err)
		return
	}
	external, err := readNames(externalPath, externalNameField)
	if err != nil {
		s.fail(c, "preprocess", "Error during preprocessing", err)
		return
	}

	for _, out := range []struct {
		path  string
		names []string
	}{
		{s.path(fileProcessedInt), internal},
		{s.path(fileProcessedExt), external},
	} {
		rows := make([][]string, len(out.names))
		for i, name := range out.names {
			p := Normalize(name)
			rows[i] = []string{name, p.Cleaned, p.Size}
		}
		if err := writeTable(out.path, []string{"original_name", "cleaned_name", "size"}, rows); err != nil {
			s.fail(c, "preprocess", "Error during preprocessing", err)
			return
		}
	}

	s.mu.Lock()
	s.internal, s.external = internal, external
	s.preprocessed = true
	s.mu.Unlock()

	s.metrics.RecordStage("preprocess", true)
	c.JSON(http.StatusOK, gin.H{
		"message":                 "Preprocessing and embedding completed successfully",
		"internal_processed_file": s.path(fileProcessedInt),
		"external_processed_file": s.path(fileProcessedExt),
	})
}

func (s *Server) handleMatch(c *gin.Context) {
	s.mu.Lock()
	ready := s.preprocessed
	internal, external := s.internal, s.external
	s.mu.Unlock()

	if !ready {
		s.metrics.RecordStage("match", false)
		message(c, http.StatusNotFound, "Embeddings files not found. Please preprocess the data first.")
		return
	}
	if !s.simulateWork(c) {
		return
	}

	records := NewMatcher(internal, s.cfg.Threshold).Match(external)

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(recordColumns))
		for j, col := range recordColumns {
			row[j] = cellText(rec[col])
		}
		rows[i] = row
	}
	results := s.path(fileMatched)
	if err := writeTable(results, recordColumns, rows); err != nil {
		s.fail(c, "match", "Error during matching", err)
		return
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	s.metrics.RecordStage("match", true)
	s.metrics.SetMappedRecords(len(records))
	c.JSON(http.StatusOK, gin.H{
		"message":      "Matching pipeline executed successfully",
		"results_file": results,
	})
}

func (s *Server) handleViewMapped(c *gin.Context) {
	s.mu.Lock()
	records := s.records
	s.mu.Unlock()

	if records == nil {
		message(c, http.StatusNotFound, "Matched results file not found.")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleCheckAccuracy(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		message(c, http.StatusBadRequest, "No file uploaded.")
		return
	}
	if !isCSV(fh) {
		message(c, http.StatusBadRequest, "Invalid file format. Only CSV files are allowed.")
		return
	}

	s.mu.Lock()
	records := s.records
	s.mu.Unlock()
	if records == nil {
		message(c, http.StatusNotFound, "Matched results file not found. Please run the matching process first.")
		return
	}

	answers := s.path(fileAnswerPrefix + filepath.Base(fh.Filename))
	if err := c.SaveUploadedFile(fh, answers); err != nil {
		s.fail(c, "check-accuracy", "Error saving answer file", err)
		return
	}

	_, rows, err := readTable(answers)
	if err != nil {
		s.metrics.RecordStage("check-accuracy", false)
		c.JSON(http.StatusOK, gin.H{"error": fmt.Sprintf("File loading error: %v", err)})
		return
	}
	if len(rows) != len(records) {
		s.metrics.RecordStage("check-accuracy", false)
		c.JSON(http.StatusOK, gin.H{"error": "Files have different number of rows."})
		return
	}
	if len(rows) == 0 {
		s.metrics.RecordStage("check-accuracy", false)
		c.JSON(http.StatusOK, gin.H{"error": "One or both files are empty."})
		return
	}

	results := make([]gin.H, 0, len(rows))
	correct := 0
	for i, row := range rows {
		rec := records[i]
		predicted := cellText(rec["Internal"])
		actual := column(row, 1)
		status := statusWrong
		if sameName(column(row, 0), cellText(rec["External"])) && sameName(actual, predicted) {
			status = statusCorrect
			correct++
		}
		results = append(results, gin.H{
			"external":           cellText(rec["External"]),
			"predicted_internal": predicted,
			"actual_internal":    actual,
			"status":             status,
		})
	}

	accuracy := math.Round(float64(correct)/float64(len(rows))*10000) / 100
	s.metrics.RecordStage("check-accuracy", true)
	s.metrics.SetAccuracy(accuracy)
	c.JSON(http.StatusOK, gin.H{
		"accuracy": accuracy,
		"results":  results,
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		message(c, http.StatusNotFound, "File not found")
		return
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		message(c, http.StatusNotFound, "File not found")
		return
	}
	c.FileAttachment(path, name)
}

func (s *Server) fail(c *gin.Context, stage, prefix string, err error) {
	slog.Error("Stage failed", "stage", stage, "error", err)
	s.metrics.RecordStage(stage, false)
	message(c, http.StatusInternalServerError, prefix+": "+err.Error())
}

func column(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
