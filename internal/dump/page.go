// SPDX-License-Identifier: MIT

package dump

import (
	"io"
	"regexp"
	"strconv"
	"sync"

	"github.com/wikilinks/wikipath/internal/dumpscan"
)

// pageBound is the upper bound M on a single `page` tuple's byte length,
// derived from the MediaWiki page table schema (id, namespace, title up
// to 255 bytes, plus the fixed-width flag/counter/timestamp columns that
// follow it): 1+10+4+255+8+32+2+14+3+14+2+10+1+10+2+32+3+35+2 = 440.
const pageBound = 440

// pageRE captures (page_id, page_namespace, page_title) from the leading
// columns of a page tuple, then skips the remaining columns up to the
// closing parenthesis without attempting to parse them.
var pageRE = regexp.MustCompile(`\((\d+),(\d+),'((?:\\.|[^'\\])*)'(?:,[^()]*)?\)`)

// ParsePages scans a decompressed `page` SQL dump and returns the
// namespace-0 title→id mapping. On a duplicate title resolving to a
// different id, the first-seen id wins (debug-level duplicates, not an
// error: MediaWiki's own history has pre-uniqueness-constraint dumps).
func ParsePages(r io.Reader, threads int) (map[string]uint32, error) {
	pages := make(map[string]uint32)
	var mu sync.Mutex
	var rows int

	err := dumpscan.Scan(r, pageRE, dumpscan.Config{
		Bound:     pageBound,
		ChunkSize: 1 << 20,
		Threads:   threads,
	}, func(groups [][]byte) error {
		if string(groups[2]) != "0" {
			return nil
		}
		id, err := strconv.ParseUint(string(groups[1]), 10, 32)
		if err != nil {
			return err
		}
		title := normalizeTitle(unescapeSQL(groups[3]))

		mu.Lock()
		if _, exists := pages[title]; !exists {
			pages[title] = uint32(id)
		}
		rows++
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := checkNonEmpty("page", rows); err != nil {
		return nil, err
	}
	return pages, nil
}
