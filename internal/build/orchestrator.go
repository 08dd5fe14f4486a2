// SPDX-License-Identifier: MIT

// Package build implements the build orchestrator (spec.md §4.6): the
// state machine that drives the table parsers, redirect resolver, and
// buffered inserter in order to turn four MediaWiki dump files into a
// finished, servable artifact.
package build

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wikilinks/wikipath"
	"github.com/wikilinks/wikipath/internal/dump"
	"github.com/wikilinks/wikipath/internal/store"
)

// state names the orchestrator's position in the pipeline, logged at
// each transition for observability; it has no effect on control flow
// (the pipeline is a straight-line Go function, not a resumable state
// machine — a crash mid-build is handled by discarding tmp_path and
// starting over, not by resuming from the last completed state).
type state string

const (
	stateInit                state = "INIT"
	stateParsePage           state = "PARSE_PAGE"
	stateParseRedirect       state = "PARSE_REDIRECT"
	stateResolveRedirects    state = "RESOLVE_REDIRECTS"
	stateInsertRedirects     state = "INSERT_REDIRECTS"
	stateParseLinkTarget     state = "PARSE_LINKTARGET"
	stateParseAndInsertLinks state = "PARSE_AND_INSERT_LINKS"
	stateCommit              state = "COMMIT"
	stateCompact             state = "COMPACT"
	stateRenameToFinal       state = "RENAME_TO_FINAL"
	stateDone                state = "DONE"
)

// DumpFiles names the four gzip-compressed MediaWiki SQL dumps a build
// consumes.
type DumpFiles struct {
	Page       string
	Redirect   string
	LinkTarget string
	PageLinks  string
}

// Config parameterizes a single build.
type Config struct {
	Metadata    wikipath.Metadata
	Dumps       DumpFiles
	TmpPath     string // build-scoped scratch bbolt file
	FinalPath   string // canonical committed artifact path
	ThreadCount int
	MemoryLimit int64 // buffered inserter's soft RSS ceiling, bytes
	MapSizeHint int64 // soft on-disk size ceiling passed to store.Open
	Metrics     prometheus.Registerer
	Logger      *log.Logger
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Run drives a single build to completion. It is idempotent with respect
// to an existing FinalPath: if the artifact is already there, Run
// returns nil immediately without touching the dump files. If TmpPath
// exists from a crashed prior attempt, it is removed before the pipeline
// starts. On any error the pipeline stops and leaves TmpPath on disk, so
// a subsequent Run (or CleanupStaleArtifacts) can detect and discard it.
func Run(cfg Config) error {
	logger := cfg.logger()
	st := stateInit

	if _, err := os.Stat(cfg.FinalPath); err == nil {
		logger.Printf("%s already exists, build is a no-op", cfg.FinalPath)
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.RemoveAll(cfg.TmpPath); err != nil {
		return fmt.Errorf("removing stale tmp_path %s: %v", cfg.TmpPath, err)
	}
	compactPath := cfg.TmpPath + ".compact-" + uuid.NewString()
	defer os.Remove(compactPath)

	threads := cfg.ThreadCount
	if threads < 1 {
		threads = 1
	}

	s, err := store.Open(cfg.TmpPath, store.Build, cfg.MapSizeHint)
	if err != nil {
		return fmt.Errorf("opening build store: %v", err)
	}
	defer s.Close()

	if exceeds, err := s.ExceedsLimit(); err != nil {
		return err
	} else if exceeds {
		return fmt.Errorf("%w: map-size ceiling already exceeded at %s", ErrResourceExhausted, cfg.TmpPath)
	}

	st = stateParsePage
	logger.Printf("%s: parsing %s", st, cfg.Dumps.Page)
	pageFile, err := os.Open(cfg.Dumps.Page)
	if err != nil {
		return err
	}
	pages, err := dump.ParsePages(pageFile, threads)
	pageFile.Close()
	if err != nil {
		return wrapSchemaDrift(st, err)
	}

	st = stateParseRedirect
	logger.Printf("%s: parsing %s", st, cfg.Dumps.Redirect)
	redirectFile, err := os.Open(cfg.Dumps.Redirect)
	if err != nil {
		return err
	}
	rawRedirects, err := dump.ParseRedirects(redirectFile, threads, pages)
	redirectFile.Close()
	if err != nil {
		return wrapSchemaDrift(st, err)
	}

	st = stateResolveRedirects
	redirects := dump.ResolveRedirects(rawRedirects)
	logger.Printf("%s: %d pages, %d resolved redirects", st, len(pages), len(redirects))

	st = stateInsertRedirects
	wtx, err := s.BeginWrite()
	if err != nil {
		return err
	}
	for src, dst := range redirects {
		if err := wtx.PutRedirect(src, dst); err != nil {
			wtx.Rollback()
			return err
		}
	}

	st = stateParseLinkTarget
	logger.Printf("%s: parsing %s", st, cfg.Dumps.LinkTarget)
	linktargetFile, err := os.Open(cfg.Dumps.LinkTarget)
	if err != nil {
		wtx.Rollback()
		return err
	}
	linktargets, err := dump.ParseLinkTargets(linktargetFile, threads, pages)
	linktargetFile.Close()
	if err != nil {
		wtx.Rollback()
		return wrapSchemaDrift(st, err)
	}

	st = stateParseAndInsertLinks
	logger.Printf("%s: parsing %s", st, cfg.Dumps.PageLinks)
	pagelinksFile, err := os.Open(cfg.Dumps.PageLinks)
	if err != nil {
		wtx.Rollback()
		return err
	}
	ins := store.BeginInserter(wtx, cfg.MemoryLimit, cfg.Metrics)
	err = dump.ParsePageLinks(pagelinksFile, threads, linktargets, redirects, ins.Insert)
	pagelinksFile.Close()
	if err != nil {
		return wrapSchemaDrift(st, err)
	}

	st = stateCommit
	edgeCount, err := ins.FlushAndCommit()
	if err != nil {
		return err
	}
	logger.Printf("%s: committed %d edges", st, edgeCount)

	st = stateCompact
	if err := s.CompactTo(compactPath); err != nil {
		return err
	}

	st = stateRenameToFinal
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Rename(compactPath, cfg.FinalPath); err != nil {
		return fmt.Errorf("renaming %s to %s: %v", compactPath, cfg.FinalPath, err)
	}
	if err := os.Remove(cfg.TmpPath); err != nil {
		logger.Printf("warning: failed to remove build scratch file %s: %v", cfg.TmpPath, err)
	}

	st = stateDone
	logger.Printf("%s: %s is ready to serve", st, cfg.FinalPath)
	return nil
}

// wrapSchemaDrift translates a zero-rows error surfaced by package dump
// into the build package's own ErrSchemaDrift, so callers only need to
// check errors.Is against one sentinel regardless of which stage failed.
func wrapSchemaDrift(st state, err error) error {
	if errors.Is(err, dump.ErrSchemaDrift) {
		return fmt.Errorf("%s: %s: %w", st, err, ErrSchemaDrift)
	}
	return fmt.Errorf("%s: %v", st, err)
}
