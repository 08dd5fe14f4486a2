// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/wikilinks/wikipath"
)

// DatabaseSet keeps one open *wikipath.Database per language, always the
// newest date seen for that language; reloading swaps in a newer date
// and evicts the database it replaces, matching spec.md §3's serve-layer
// eviction policy.
type DatabaseSet struct {
	dir string
	log *log.Logger

	mu sync.RWMutex
	db map[string]*wikipath.Database // keyed by language code
}

func NewDatabaseSet(dir string, logger *log.Logger) *DatabaseSet {
	return &DatabaseSet{dir: dir, log: logger, db: make(map[string]*wikipath.Database)}
}

// Get returns the open database for lang, or ErrNotFound if none is
// currently loaded.
func (s *DatabaseSet) Get(lang string) (*wikipath.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, ok := s.db[lang]
	if !ok {
		return nil, fmt.Errorf("%s: %w", lang, wikipath.ErrNotFound)
	}
	return db, nil
}

// Reload scans dir for artifact directories, opens the newest one per
// language, and swaps it into the set; any database it replaces is
// closed after the swap so in-flight requests against it still complete.
func (s *DatabaseSet) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	newest := make(map[string]wikipath.Metadata)
	for _, e := range entries {
		m, err := wikipath.ParseArtifactName(e.Name())
		if err != nil {
			continue // not an artifact directory, e.g. a stray tmp file
		}
		if cur, ok := newest[m.LanguageCode]; !ok || cur.Less(m) {
			newest[m.LanguageCode] = m
		}
	}

	for lang, m := range newest {
		if cur, ok := s.currentMetadata(lang); ok && !cur.Less(m) {
			continue // already serving this date or newer
		}
		path := filepath.Join(s.dir, m.String())
		db, err := wikipath.Open(path, wikipath.Serve)
		if err != nil {
			if s.log != nil {
				s.log.Printf("failed to open %s: %v", path, err)
			}
			continue
		}
		s.swap(lang, db)
	}
	return nil
}

func (s *DatabaseSet) currentMetadata(lang string) (wikipath.Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, ok := s.db[lang]
	if !ok {
		return wikipath.Metadata{}, false
	}
	return db.Metadata(), true
}

func (s *DatabaseSet) swap(lang string, db *wikipath.Database) {
	s.mu.Lock()
	old := s.db[lang]
	s.db[lang] = db
	s.mu.Unlock()

	if s.log != nil {
		s.log.Printf("now serving %s for language %q", db.Metadata().String(), lang)
	}
	if old != nil {
		if err := old.Close(); err != nil && s.log != nil {
			s.log.Printf("closing evicted database: %v", err)
		}
	}
}
