// SPDX-License-Identifier: MIT

package dump

import (
	"errors"
	"fmt"
)

// ErrSchemaDrift means a table parser produced zero rows. internal/build
// wraps this into the package-level build error of the same name when it
// aborts a build; dump itself has no notion of "aborting a build", only
// of reporting what it saw.
var ErrSchemaDrift = errors.New("possible schema change: parser produced zero rows")

// checkNonEmpty implements spec.md §4.2's empty-result guard: a table
// parser that produced zero rows most likely means the MediaWiki schema
// drifted underneath the regex, not that the table is legitimately empty
// (even the smallest wikis have a handful of pages).
func checkNonEmpty(table string, rows int) error {
	if rows > 0 {
		return nil
	}
	return fmt.Errorf("%s: %w", table, ErrSchemaDrift)
}
