package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Download is one artifact retrieval, successful or not.
type Download struct {
	DownloadedAt time.Time
	FileName     string
	SourceURL    string
	LocalPath    string
	Error        string
	ID           int64
}

// RecordDownload appends an artifact retrieval.
func (s *SQLiteStorage) RecordDownload(ctx context.Context, d Download) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(d.FileName, "fileName"); err != nil {
		return err
	}
	if err := validateString(d.SourceURL, "sourceURL"); err != nil {
		return err
	}

	at := d.DownloadedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (file_name, source_url, local_path, error, downloaded_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.FileName, d.SourceURL, nullString(d.LocalPath), nullString(d.Error), at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// ListDownloads returns retrievals newest first. limit <= 0 means no limit.
func (s *SQLiteStorage) ListDownloads(ctx context.Context, limit int) ([]Download, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, file_name, source_url, COALESCE(local_path, ''), COALESCE(error, ''), downloaded_at
		FROM downloads
		ORDER BY downloaded_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var downloads []Download
	for rows.Next() {
		var d Download
		if err := rows.Scan(&d.ID, &d.FileName, &d.SourceURL, &d.LocalPath, &d.Error, &d.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		downloads = append(downloads, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate downloads: %w", err)
	}

	return downloads, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
