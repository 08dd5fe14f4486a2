// SPDX-License-Identifier: MIT

package wikipath

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wikilinks/wikipath/internal/build"
	"github.com/wikilinks/wikipath/internal/search"
	"github.com/wikilinks/wikipath/internal/store"
)

// Mode re-exports the store package's open mode so callers never need to
// import internal/store themselves.
type Mode = store.Mode

const (
	Build Mode = store.Build
	Serve Mode = store.Serve
)

// Database is one opened (language, date) artifact: the serve-time
// handle for path queries, and, in Build mode, the handle the
// orchestrator writes through.
type Database struct {
	store    *store.Store
	metadata Metadata
}

// Open opens the artifact at path. In Serve mode the artifact must
// already be a complete, finalized database; in Build mode it is created
// if absent, per internal/store.Open's semantics.
func Open(path string, mode Mode) (*Database, error) {
	s, err := store.Open(path, mode, 0)
	if err != nil {
		if errors.Is(err, store.ErrMissingTable) {
			return nil, fmt.Errorf("%s: %w", path, ErrCorruptArtifact)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, ErrStorage, err)
	}

	m, err := ParseArtifactName(filepath.Base(path))
	if err != nil {
		s.Close()
		return nil, err
	}
	return &Database{store: s, metadata: m}, nil
}

// Close releases the underlying store handle.
func (d *Database) Close() error {
	return d.store.Close()
}

// Metadata returns the (language, date) this database was opened for.
func (d *Database) Metadata() Metadata {
	return d.metadata
}

// Paths is the result of GetShortestPaths, shaped to match the external
// JSON contract (spec.md §6): every edge that lies on some shortest
// path, plus the path length in hops and the total number of distinct
// shortest paths.
type Paths struct {
	Source           PageId              `json:"source"`
	SourceIsRedirect bool                `json:"sourceIsRedirect"`
	Target           PageId              `json:"target"`
	TargetIsRedirect bool                `json:"targetIsRedirect"`
	Links            map[PageId][]PageId `json:"links"`
	LanguageCode     string              `json:"languageCode"`
	DateCode         string              `json:"dateCode"`
	Length           int                 `json:"length"`
	Count            int                 `json:"count"`
}

// GetShortestPaths resolves src and dst through any redirect, then runs
// the bidirectional BFS search between the resolved ids, reporting
// whether either endpoint was itself a redirect (spec.md §6's
// sourceIsRedirect/targetIsRedirect fields).
func (d *Database) GetShortestPaths(src, dst PageId) (*Paths, error) {
	tx, err := d.store.BeginRead()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer tx.Done()

	resolvedSrc, srcIsRedirect, err := resolveOne(tx, src)
	if err != nil {
		return nil, err
	}
	resolvedDst, dstIsRedirect, err := resolveOne(tx, dst)
	if err != nil {
		return nil, err
	}

	result, err := search.Search(tx, resolvedSrc, resolvedDst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	links := make(map[PageId][]PageId, len(result.Links))
	for from, tos := range result.Links {
		list := make([]PageId, 0, len(tos))
		for to := range tos {
			list = append(list, to)
		}
		links[from] = list
	}

	return &Paths{
		Source:           resolvedSrc,
		SourceIsRedirect: srcIsRedirect,
		Target:           resolvedDst,
		TargetIsRedirect: dstIsRedirect,
		Links:            links,
		LanguageCode:     d.metadata.LanguageCode,
		DateCode:         d.metadata.DateCode,
		Length:           result.Length,
		Count:            result.Count,
	}, nil
}

func resolveOne(tx *store.ReadTxn, id PageId) (PageId, bool, error) {
	target, ok, err := tx.GetRedirect(id)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ok {
		return id, false, nil
	}
	return target, true, nil
}

// BuildConfig parameterizes a from-scratch build of a new artifact; see
// internal/build.Config for field semantics.
type BuildConfig struct {
	Metadata    Metadata
	Dumps       build.DumpFiles
	TmpPath     string
	FinalPath   string
	ThreadCount int
	MemoryLimit int64
	MapSizeHint int64
	Metrics     prometheus.Registerer
	Logger      *log.Logger
}

// BuildDatabase runs the build orchestrator to completion, producing (or
// reusing, if already present) the artifact named by cfg.FinalPath. It
// does not open the resulting artifact; call Open afterward to serve it.
// Schema-drift, resource and integrity failures are wrapped in this
// package's ErrSchemaDrift, ErrResourceExhausted and ErrIntegrityViolation.
func BuildDatabase(cfg BuildConfig) error {
	err := build.Run(build.Config{
		Metadata:    cfg.Metadata,
		Dumps:       cfg.Dumps,
		TmpPath:     cfg.TmpPath,
		FinalPath:   cfg.FinalPath,
		ThreadCount: cfg.ThreadCount,
		MemoryLimit: cfg.MemoryLimit,
		MapSizeHint: cfg.MapSizeHint,
		Metrics:     cfg.Metrics,
		Logger:      cfg.Logger,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, build.ErrSchemaDrift):
		return fmt.Errorf("%w: %v", ErrSchemaDrift, err)
	case errors.Is(err, build.ErrResourceExhausted):
		return fmt.Errorf("%w: %v", ErrResourceExhausted, err)
	case errors.Is(err, store.ErrIntegrityViolation):
		return fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}
	return err
}
