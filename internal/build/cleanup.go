// SPDX-License-Identifier: MIT

package build

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
)

// staleTmpRE matches a build-scoped tmp file name, e.g.
// "wp-en-20240201-tmp-3f9a0c12". Adapted from cmd/qrank-builder's
// CleanupCache filename regex, scoped to this project's tmp-path shape
// instead of qrank's dated cache files.
var staleTmpRE = regexp.MustCompile(`^wp-[a-zA-Z]+-[0-9]+-tmp-`)

// CleanupStaleArtifacts removes every entry under dumpsDir whose name has
// the build tmp-path shape, such as the scratch file a crashed build
// leaves behind. It does not check whether a finished final_path exists
// for that entry. logger may be nil, in which case nothing is logged.
func CleanupStaleArtifacts(dumpsDir string, logger *log.Logger) error {
	entries, err := os.ReadDir(dumpsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		name := e.Name()
		if !staleTmpRE.MatchString(name) {
			continue
		}
		path := filepath.Join(dumpsDir, name)
		if logger != nil {
			logger.Printf("removing stale build directory %s", path)
		}
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}
