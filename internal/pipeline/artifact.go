package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Veraticus/inventory-mapper/internal/common"
)

// DownloadEndpoint is the service route that serves generated files.
const DownloadEndpoint = "/download/"

// DownloadArtifact is a server-side output file the operator can retrieve.
type DownloadArtifact struct {
	SourcePath string
	DerivedURL string
	FileName   string
}

// ResolveArtifact derives the download link for a server-reported path.
//
// The file name is the final path segment. Both "/" and "\" separate
// segments, and any query string or fragment is dropped. A path ending in a
// separator names a directory and has no file name.
func ResolveArtifact(sourcePath, baseURL string) (DownloadArtifact, error) {
	name := sourcePath
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." {
		return DownloadArtifact{}, fmt.Errorf("%w: path %q has no file name", common.ErrNoArtifact, sourcePath)
	}

	return DownloadArtifact{
		SourcePath: sourcePath,
		FileName:   name,
		DerivedURL: strings.TrimRight(baseURL, "/") + DownloadEndpoint + url.PathEscape(name),
	}, nil
}
