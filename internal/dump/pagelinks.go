// SPDX-License-Identifier: MIT

package dump

import (
	"io"
	"regexp"
	"strconv"
	"sync/atomic"

	"github.com/wikilinks/wikipath/internal/dumpscan"
)

// pagelinksBound is the upper bound on a `pagelinks` tuple under the
// modern (post linktarget-normalization) schema: pl_from, pl_from_namespace,
// pl_target_id — three plain integers.
const pagelinksBound = 1 + 10 + 1 + 10 + 1 + 20 + 1

// pagelinksRE captures (pl_from, pl_target_id); pl_from_namespace is
// matched but not captured, so a link is kept whatever namespace its
// source page is in.
var pagelinksRE = regexp.MustCompile(`\((\d+),\d+,(\d+)\)`)

// LinkEmitter receives one resolved, redirect-rewritten (source, target)
// edge per call. Implementations must be safe for concurrent use; the
// parser workers all call it.
type LinkEmitter func(source, target uint32)

// ParsePageLinks scans a decompressed `pagelinks` SQL dump, resolving
// each pl_target_id through linktargets and rewriting both endpoints
// through redirects, then calls emit once per surviving edge. Edges whose
// linktarget is unknown, or that become self-links after redirect
// rewriting, are dropped. The source id is not checked against the page
// table, so links from pages outside namespace 0 are emitted as well.
func ParsePageLinks(r io.Reader, threads int, linktargets map[uint64]uint32, redirects map[uint32]uint32, emit LinkEmitter) error {
	var rows int64

	err := dumpscan.Scan(r, pagelinksRE, dumpscan.Config{
		Bound:     pagelinksBound,
		ChunkSize: 1 << 20,
		Threads:   threads,
	}, func(groups [][]byte) error {
		src, err := strconv.ParseUint(string(groups[1]), 10, 32)
		if err != nil {
			return err
		}
		ltID, err := strconv.ParseUint(string(groups[2]), 10, 64)
		if err != nil {
			return err
		}

		target, ok := linktargets[ltID]
		if !ok {
			return nil
		}
		source := uint32(src)

		if r, ok := redirects[source]; ok {
			source = r
		}
		if r, ok := redirects[target]; ok {
			target = r
		}
		if source == target {
			return nil
		}

		emit(source, target)
		atomic.AddInt64(&rows, 1)
		return nil
	})
	if err != nil {
		return err
	}
	return checkNonEmpty("pagelinks", int(rows))
}
