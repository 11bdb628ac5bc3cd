package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal", "test.db")

	store, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestRecordAndListAttempts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	elapsed := 2.25

	entries := []pipeline.Entry{
		{AttemptID: "a1", Stage: pipeline.StageUpload, Phase: pipeline.PhaseSuccess, Message: "Files uploaded", Elapsed: &elapsed, StartedAt: base, FinishedAt: base.Add(2 * time.Second)},
		{AttemptID: "a2", Stage: pipeline.StagePreprocess, Phase: pipeline.PhaseError, Message: "Error during preprocessing: boom", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(61 * time.Second)},
		{AttemptID: "a3", Stage: pipeline.StageUpload, Phase: pipeline.PhaseError, Message: pipeline.MsgSelectBothFiles, FinishedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(ctx, e))
	}

	all, err := store.ListAttempts(ctx, AttemptFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a3", all[0].AttemptID, "newest first")
	assert.Nil(t, all[0].StartedAt)
	assert.Nil(t, all[0].Elapsed)

	last := all[2]
	assert.Equal(t, "a1", last.AttemptID)
	assert.Equal(t, "upload", last.Stage)
	assert.Equal(t, "success", last.Phase)
	require.NotNil(t, last.Elapsed)
	assert.InDelta(t, 2.25, *last.Elapsed, 1e-9)
	require.NotNil(t, last.StartedAt)
	assert.True(t, base.Equal(*last.StartedAt))

	uploads, err := store.ListAttempts(ctx, AttemptFilter{Stage: "upload", Limit: 1})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "a3", uploads[0].AttemptID)
}

func TestRecord_SameAttemptUpdates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Record(ctx, pipeline.Entry{AttemptID: "x", Stage: pipeline.StageMatch, Phase: pipeline.PhaseError, Message: "first", FinishedAt: now}))
	require.NoError(t, store.Record(ctx, pipeline.Entry{AttemptID: "x", Stage: pipeline.StageMatch, Phase: pipeline.PhaseSuccess, Message: "second", FinishedAt: now.Add(time.Second)}))

	got, err := store.ListAttempts(ctx, AttemptFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Message)
	assert.Equal(t, "success", got[0].Phase)
}

func TestRecord_Invalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.ErrorIs(t, store.Record(ctx, pipeline.Entry{Stage: pipeline.StageMatch}), ErrEmptyString)
	require.ErrorIs(t, store.Record(ctx, pipeline.Entry{AttemptID: "x", Stage: pipeline.Stage(99)}), ErrInvalidRow)
}

func TestRecordAndListDownloads(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordDownload(ctx, Download{
		FileName:     "report_final.csv",
		SourceURL:    "http://svc/download/report_final.csv",
		LocalPath:    "/tmp/report_final.csv",
		DownloadedAt: at,
	}))
	require.NoError(t, store.RecordDownload(ctx, Download{
		FileName:     "report_final.csv",
		SourceURL:    "http://svc/download/report_final.csv",
		Error:        "request failed with status code 404",
		DownloadedAt: at.Add(time.Minute),
	}))

	got, err := store.ListDownloads(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "request failed with status code 404", got[0].Error)
	assert.Empty(t, got[0].LocalPath)
	assert.Equal(t, "/tmp/report_final.csv", got[1].LocalPath)

	limited, err := store.ListDownloads(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.ErrorIs(t, store.RecordDownload(ctx, Download{SourceURL: "x"}), ErrEmptyString)
}

func TestStorage_SatisfiesRecorder(t *testing.T) {
	var _ pipeline.Recorder = (*SQLiteStorage)(nil)
}
