// SPDX-License-Identifier: MIT

package build

import (
	"fmt"
	"path/filepath"

	"github.com/wikilinks/wikipath"
)

// FinalPath returns the canonical on-disk path for a finished artifact:
// {dumpsDir}/wp-{language}-{date}.
func FinalPath(dumpsDir string, m wikipath.Metadata) string {
	return filepath.Join(dumpsDir, m.String())
}

// TmpPath returns the build-scoped scratch path for an in-progress build
// of m, distinguished from any concurrent build attempt by suffix.
func TmpPath(dumpsDir string, m wikipath.Metadata, suffix string) string {
	return filepath.Join(dumpsDir, fmt.Sprintf("%s-tmp-%s", m.String(), suffix))
}
