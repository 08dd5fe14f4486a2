// SPDX-License-Identifier: MIT

package wikipath

import "errors"

// Error kinds returned by Database and the build orchestrator. Callers
// distinguish them with errors.Is.
var (
	// ErrInvalidArtifactPath means an artifact's base name does not match
	// the canonical "wp-{language}-{date}" pattern.
	ErrInvalidArtifactPath = errors.New("invalid artifact path")

	// ErrArtifactExists names the case of a build's final_path already
	// being occupied. BuildDatabase does not return it: such a build is a
	// no-op that reports success.
	ErrArtifactExists = errors.New("artifact already exists")

	// ErrSchemaDrift means a dump table parser returned zero rows,
	// suggesting the MediaWiki schema changed underneath us.
	ErrSchemaDrift = errors.New("possible schema change: parser produced zero rows")

	// ErrIntegrityViolation means a structural invariant was violated at
	// commit time, such as the incoming/outgoing edge counts disagreeing.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrResourceExhausted means a configured resource ceiling (memory
	// limit, map-size limit, disk) was already breached.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrStorage wraps an opaque error surfaced by the KV store adapter.
	ErrStorage = errors.New("storage error")

	// ErrNotFound means a serve request named a (language, date) pair
	// that is not open.
	ErrNotFound = errors.New("database not found")

	// ErrCorruptArtifact means a database directory exists but is missing
	// one of its required tables.
	ErrCorruptArtifact = errors.New("corrupt artifact")
)
