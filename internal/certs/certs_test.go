package certs

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Ensure(t *testing.T) {
	tests := []struct {
		setup       func(t *testing.T, s *Store)
		name        string
		wantReissue bool
	}{
		{
			name:        "issues when missing",
			setup:       func(*testing.T, *Store) {},
			wantReissue: true,
		},
		{
			name: "reuses a valid certificate",
			setup: func(t *testing.T, s *Store) {
				t.Helper()
				_, err := s.Ensure()
				require.NoError(t, err)
			},
		},
		{
			name: "replaces a corrupt certificate",
			setup: func(t *testing.T, s *Store) {
				t.Helper()
				require.NoError(t, os.MkdirAll(s.dir, 0700))
				require.NoError(t, os.WriteFile(s.certFile, []byte("not a cert"), 0600))
				require.NoError(t, os.WriteFile(s.keyFile, []byte("not a key"), 0600))
			},
			wantReissue: true,
		},
		{
			name: "replaces an expired certificate",
			setup: func(t *testing.T, s *Store) {
				t.Helper()
				s.now = func() time.Time { return time.Now().Add(-2 * Validity) }
				_, err := s.Ensure()
				require.NoError(t, err)
				s.now = time.Now
			},
			wantReissue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(filepath.Join(t.TempDir(), "certs"))
			tt.setup(t, s)

			before, _ := os.ReadFile(s.CertFile())
			cert, err := s.Ensure()
			require.NoError(t, err)
			after, err := os.ReadFile(s.CertFile())
			require.NoError(t, err)

			if tt.wantReissue {
				assert.NotEqual(t, before, after)
			} else {
				assert.Equal(t, before, after)
			}

			leaf, err := x509.ParseCertificate(cert.Certificate[0])
			require.NoError(t, err)
			assert.NoError(t, leaf.VerifyHostname("localhost"))
			assert.NoError(t, leaf.VerifyHostname("127.0.0.1"))
			assert.True(t, leaf.NotAfter.After(time.Now().Add(Validity-time.Hour)))
		})
	}
}

func TestStore_FilePermissions(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "certs"))
	_, err := s.Ensure()
	require.NoError(t, err)

	for _, p := range []string{s.certFile, s.keyFile} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), p)
	}
}

func TestLoadPool(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	cert, err := s.Ensure()
	require.NoError(t, err)

	pool, err := LoadPool(s.CertFile())
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	srv.StartTLS()
	defer srv.Close()

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
	}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	bad := filepath.Join(dir, "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("nothing here"), 0600))
	_, err = LoadPool(bad)
	require.Error(t, err)

	_, err = LoadPool(filepath.Join(dir, "missing.pem"))
	require.Error(t, err)
}
