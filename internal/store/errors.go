// SPDX-License-Identifier: MIT

package store

import "errors"

var (
	// ErrStorage wraps an opaque error from the underlying bbolt database.
	ErrStorage = errors.New("storage error")

	// ErrMissingTable means a Serve-mode Open found a database file that
	// is missing one of the three required tables.
	ErrMissingTable = errors.New("database is missing a required table")

	// ErrIntegrityViolation means a structural invariant was violated,
	// such as inserting a redirect for a page that already has one.
	ErrIntegrityViolation = errors.New("integrity violation")
)
