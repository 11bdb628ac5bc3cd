package remote

import (
	"context"
	"crypto/x509"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr error
	}{
		{name: "valid", baseURL: "http://127.0.0.1:5000/"},
		{name: "missing", baseURL: "", wantErr: common.ErrMissingConfig},
		{name: "wrong scheme", baseURL: "ftp://example.com", wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.baseURL)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://127.0.0.1:5000", c.BaseURL())
			assert.Equal(t, "http://127.0.0.1:5000/upload", c.URL("/upload"))
		})
	}
}

func TestSend_NoPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/preprocess", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Preprocessing and embedding completed successfully"}`))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	resp, err := c.Send(context.Background(), Request{Endpoint: "/preprocess"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Preprocessing and embedding completed successfully"}`, string(resp.Body))
}

func TestSend_Multipart(t *testing.T) {
	internal := writeTempCSV(t, "Data_Internal.csv", "LONG_NAME\nWidget\n")
	external := writeTempCSV(t, "Data_External.csv", "PRODUCT_NAME\nwidget\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		f1, h1, err := r.FormFile("file1")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(f1)
		assert.Equal(t, "Data_Internal.csv", h1.Filename)
		assert.Equal(t, "LONG_NAME\nWidget\n", string(data))

		_, h2, err := r.FormFile("file2")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "Data_External.csv", h2.Filename)

		_, _ = w.Write([]byte(`{"message":"ok","results_file":"uploads/out.csv"}`))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/upload",
		Kind:     PayloadMultipart,
		Files: []FilePart{
			{Field: "file1", Path: internal},
			{Field: "file2", Path: external},
		},
	})
	require.NoError(t, err)
}

func TestSend_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"threshold":0.8}`, string(body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), Request{
		Endpoint: "/match",
		Kind:     PayloadJSON,
		JSON:     map[string]float64{"threshold": 0.8},
	})
	require.NoError(t, err)
}

func TestSend_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Embeddings files not found. Please preprocess the data first."}`))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), Request{Endpoint: "/match"})
	require.Error(t, err)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, http.StatusNotFound, opErr.StatusCode)
	assert.Equal(t, "request failed with status code 404: Embeddings files not found. Please preprocess the data first.", err.Error())
	assert.ErrorIs(t, err, common.ErrUnexpectedResponse)
}

func TestSend_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), Request{Endpoint: "/preprocess"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect")

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Zero(t, opErr.StatusCode)
}

func TestSend_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c, err := New(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Send(ctx, Request{Endpoint: "/match"})
	require.Error(t, err)
	assert.True(t, common.IsCancellation(err))
}

func TestSend_MissingFile(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.Send(context.Background(), Request{
		Endpoint: "/check-accuracy",
		Kind:     PayloadMultipart,
		Files:    []FilePart{{Field: "file", Path: filepath.Join(t.TempDir(), "missing.csv")}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestWithRootCAs(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	untrusted, err := New(srv.URL)
	require.NoError(t, err)
	_, err = untrusted.Send(context.Background(), Request{Method: http.MethodGet, Endpoint: "/view-mapped"})
	require.Error(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	trusted, err := New(srv.URL, WithRootCAs(pool))
	require.NoError(t, err)

	resp, err := trusted.Send(context.Background(), Request{Method: http.MethodGet, Endpoint: "/view-mapped"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"ok"}`, string(resp.Body))
}
