package pipeline

import (
	"testing"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveArtifact(t *testing.T) {
	const base = "http://127.0.0.1:5000"

	tests := []struct {
		name     string
		source   string
		wantName string
		wantURL  string
	}{
		{
			name:     "posix path",
			source:   "a/b/report_final.csv",
			wantName: "report_final.csv",
			wantURL:  base + "/download/report_final.csv",
		},
		{
			name:     "windows path",
			source:   `C:\out\results.csv`,
			wantName: "results.csv",
			wantURL:  base + "/download/results.csv",
		},
		{
			name:     "bare name",
			source:   "results.csv",
			wantName: "results.csv",
			wantURL:  base + "/download/results.csv",
		},
		{
			name:     "query dropped",
			source:   "/tmp/out.csv?v=2",
			wantName: "out.csv",
			wantURL:  base + "/download/out.csv",
		},
		{
			name:     "name escaped",
			source:   "/tmp/my report.csv",
			wantName: "my report.csv",
			wantURL:  base + "/download/my%20report.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveArtifact(tt.source, base+"/")
			require.NoError(t, err)
			assert.Equal(t, tt.source, got.SourcePath)
			assert.Equal(t, tt.wantName, got.FileName)
			assert.Equal(t, tt.wantURL, got.DerivedURL)
		})
	}
}

func TestResolveArtifact_NoName(t *testing.T) {
	for _, source := range []string{"", "   ", "/", "a/..", "?x", "dir/", `C:\out\`, "a/b/"} {
		_, err := ResolveArtifact(source, "http://localhost")
		assert.ErrorIs(t, err, common.ErrNoArtifact, source)
	}
}
