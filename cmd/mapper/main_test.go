package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/storage"
	"github.com/Veraticus/inventory-mapper/internal/stubserver"
	"github.com/Veraticus/inventory-mapper/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	server   *httptest.Server
	internal string
	external string
	answers  string
	downDir  string
	journal  string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	srv, err := stubserver.New(stubserver.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	f := &cliFixture{
		server:  ts,
		downDir: t.TempDir(),
		journal: filepath.Join(t.TempDir(), "journal.db"),
	}
	t.Setenv("MAPPER_DOWNLOAD_DIR", f.downDir)
	t.Setenv("MAPPER_JOURNAL_PATH", f.journal)
	t.Setenv("MAPPER_LOGGING_LEVEL", "error")

	files := testutil.WriteProductFiles(t)
	f.internal, f.external, f.answers = files.Internal, files.External, files.Answers
	return f
}

func (f *cliFixture) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--server", f.server.URL, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRunCommand_EndToEnd(t *testing.T) {
	f := newCLIFixture(t)
	exportPath := filepath.Join(t.TempDir(), "mapped.xlsx")

	out, err := f.execute(t, "run",
		"--internal", f.internal,
		"--external", f.external,
		"--check", f.answers,
		"--export", exportPath)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Preprocessing and embedding completed successfully")
	assert.Contains(t, out, "50%  (1/2 correct)")
	assert.Contains(t, out, "Exported 2 records")
	assert.FileExists(t, exportPath)
	assert.FileExists(t, filepath.Join(f.downDir, "Upload_Report.csv"))

	out, err = f.execute(t, "history", "--limit", "10")
	require.NoError(t, err, out)
	for _, s := range runPlan(true) {
		assert.Contains(t, out, s.String())
	}

	out, err = f.execute(t, "history", "--downloads")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Upload_Report.csv")
}

func TestRunCommand_StopsAtFirstFailure(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.execute(t, "run", "--internal", f.internal, "--external", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, out, "File not found")
	assert.NotContains(t, out, pipeline.MsgUploadDone)
}

func TestStageCommands(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.execute(t, "preprocess")
	require.Error(t, err)
	assert.Contains(t, out, "Error during preprocessing: request failed with status code 404")
	assert.Contains(t, out, "Uploaded files not found")

	out, err = f.execute(t, "upload", "--internal", f.internal, "--external", f.external, "--no-download")
	require.NoError(t, err, out)
	assert.Contains(t, out, "/download/Upload_Report.csv")
	assert.NoFileExists(t, filepath.Join(f.downDir, "Upload_Report.csv"))

	_, err = f.execute(t, "preprocess")
	require.NoError(t, err)
	_, err = f.execute(t, "match")
	require.NoError(t, err)

	out, err = f.execute(t, "view")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Acme Bolt 10g pack")
	assert.Contains(t, out, pipeline.NotAvailable)

	csvPath := filepath.Join(t.TempDir(), "accuracy.csv")
	out, err = f.execute(t, "check-accuracy", "--file", f.answers, "--export", csvPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Incorrect")
	assert.FileExists(t, csvPath)

	out, err = f.execute(t, "download", "/srv/results/Upload_Report.csv", "--dir", f.downDir)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(f.downDir, "Upload_Report.csv"))
}

func TestPrintOutcome(t *testing.T) {
	elapsed := 1.5
	var buf bytes.Buffer

	require.NoError(t, printOutcome(&buf, pipeline.OperationState{
		Phase:   pipeline.PhaseSuccess,
		Message: "done",
		Elapsed: &elapsed,
	}))
	assert.Contains(t, buf.String(), "Time taken: 1.50 s")

	err := printOutcome(&buf, pipeline.OperationState{Phase: pipeline.PhaseError, Message: "Error during preprocessing: boom"})
	require.ErrorIs(t, err, errStageFailed)
	assert.Contains(t, buf.String(), "boom")

	require.Error(t, printOutcome(&buf, pipeline.OperationState{Phase: pipeline.PhasePending}))
}

func TestRunPlan(t *testing.T) {
	assert.Len(t, runPlan(false), 4)
	plan := runPlan(true)
	assert.Equal(t, pipeline.StageCheckAccuracy, plan[len(plan)-1])
}

func TestRenderHistory(t *testing.T) {
	elapsed := 0.25
	out := renderAttempts([]storage.Attempt{{
		FinishedAt: time.Now(),
		Stage:      "match",
		Phase:      "success",
		Message:    "Matching pipeline executed successfully",
		Elapsed:    &elapsed,
	}})
	assert.Contains(t, out, "0.25 s")
	assert.Contains(t, out, "Matching pipeline executed successfully")

	assert.Contains(t, renderAttempts(nil), "No attempts recorded yet.")

	out = renderDownloads([]storage.Download{{FileName: "Upload_Report.csv", Error: "status 404"}})
	assert.Contains(t, out, "status 404")
}
