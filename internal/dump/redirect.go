// SPDX-License-Identifier: MIT

package dump

import (
	"io"
	"regexp"
	"strconv"
	"sync"

	"github.com/wikilinks/wikipath/internal/dumpscan"
)

// redirectBound is the upper bound on a `redirect` tuple: rd_from, a
// namespace, a title up to 255 bytes, an interwiki prefix, and a
// fragment, all quoted.
const redirectBound = 1 + 10 + 4 + 255 + 4 + 32 + 2 + 255 + 2

// redirectRE captures (rd_from, rd_namespace, rd_title); trailing
// rd_interwiki/rd_fragment columns are consumed but not captured.
var redirectRE = regexp.MustCompile(`\((\d+),(\d+),'((?:\\.|[^'\\])*)'(?:,[^()]*)?\)`)

// ParseRedirects scans a decompressed `redirect` SQL dump, resolving each
// namespace-0 target title through pages. Redirects to an unknown title
// and self-redirects (src == resolved target) are both dropped, per
// spec.md §4.2.
func ParseRedirects(r io.Reader, threads int, pages map[string]uint32) (map[uint32]uint32, error) {
	redirects := make(map[uint32]uint32)
	var mu sync.Mutex
	var rows int

	err := dumpscan.Scan(r, redirectRE, dumpscan.Config{
		Bound:     redirectBound,
		ChunkSize: 1 << 20,
		Threads:   threads,
	}, func(groups [][]byte) error {
		if string(groups[2]) != "0" {
			return nil
		}
		src, err := strconv.ParseUint(string(groups[1]), 10, 32)
		if err != nil {
			return err
		}
		title := normalizeTitle(unescapeSQL(groups[3]))
		target, ok := pages[title]
		if !ok {
			return nil // drop: redirect target is not a known page
		}
		if uint32(src) == target {
			return nil // drop: self-redirect
		}

		mu.Lock()
		redirects[uint32(src)] = target
		rows++
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := checkNonEmpty("redirect", rows); err != nil {
		return nil, err
	}
	return redirects, nil
}
