// SPDX-License-Identifier: MIT

package build

import "errors"

// Error kinds the orchestrator can return, mirroring spec.md §7's
// build-time taxonomy.
var (
	// ErrSchemaDrift means a table parser produced zero rows.
	ErrSchemaDrift = errors.New("possible schema change: parser produced zero rows")

	// ErrResourceExhausted means a configured ceiling (memory limit,
	// map-size limit) was already breached before a build could start.
	ErrResourceExhausted = errors.New("resource exhausted")
)
