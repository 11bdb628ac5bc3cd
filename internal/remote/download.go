package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// Download streams the file at rawURL into dir and returns the written path.
// The local name is the last segment of the URL path.
func (c *Client) Download(ctx context.Context, rawURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &OperationError{Method: http.MethodGet, Endpoint: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &OperationError{Method: http.MethodGet, Endpoint: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &OperationError{
			Method:     http.MethodGet,
			Endpoint:   rawURL,
			StatusCode: resp.StatusCode,
			Body:       serverMessage(body),
			Err:        fmt.Errorf("download failed: status %d", resp.StatusCode),
		}
	}

	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("download url %q has no file name", rawURL)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	target := filepath.Join(dir, filepath.Base(name))
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	slog.Info("Downloaded artifact", "url", rawURL, "path", target, "bytes", written)
	return target, nil
}
