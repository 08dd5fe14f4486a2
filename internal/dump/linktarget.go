// SPDX-License-Identifier: MIT

package dump

import (
	"io"
	"regexp"
	"strconv"
	"sync"

	"github.com/wikilinks/wikipath/internal/dumpscan"
)

// linktargetBound is the upper bound on a `linktarget` tuple: lt_id
// (u64), a namespace, and a title up to 255 bytes.
const linktargetBound = 1 + 20 + 4 + 255 + 2

// linktargetRE captures (lt_id, lt_namespace, lt_title).
var linktargetRE = regexp.MustCompile(`\((\d+),(\d+),'((?:\\.|[^'\\])*)'\)`)

// ParseLinkTargets scans a decompressed `linktarget` SQL dump and returns
// the namespace-0 lt_id→page-id mapping, resolving each title through
// pages. A linktarget row whose title is not a known page is dropped; it
// simply will never be the destination of a resolved pagelinks edge.
func ParseLinkTargets(r io.Reader, threads int, pages map[string]uint32) (map[uint64]uint32, error) {
	targets := make(map[uint64]uint32)
	var mu sync.Mutex
	var rows int

	err := dumpscan.Scan(r, linktargetRE, dumpscan.Config{
		Bound:     linktargetBound,
		ChunkSize: 1 << 20,
		Threads:   threads,
	}, func(groups [][]byte) error {
		if string(groups[2]) != "0" {
			return nil
		}
		lt, err := strconv.ParseUint(string(groups[1]), 10, 64)
		if err != nil {
			return err
		}
		title := normalizeTitle(unescapeSQL(groups[3]))
		pageID, ok := pages[title]
		if !ok {
			return nil
		}

		mu.Lock()
		targets[lt] = pageID
		rows++
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := checkNonEmpty("linktarget", rows); err != nil {
		return nil, err
	}
	return targets, nil
}
