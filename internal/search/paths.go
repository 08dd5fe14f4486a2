// SPDX-License-Identifier: MIT

package search

import "github.com/wikilinks/wikipath/internal/store"

// Result is the outcome of a shortest-path search: the DAG of edges
// spanning every shortest path, its length, and the number of distinct
// paths it represents.
type Result struct {
	Links  map[uint32]map[uint32]struct{}
	Length int
	Count  int
}

// extractPaths is the memoized recursive walk ported from the reference
// search.rs's extract_paths: directed[v] gives v's next hop(s) toward the
// stop vertex (source or target, whichever side directed holds
// predecessors for). forward controls which endpoint of the discovered
// edge is treated as the map key when recording into links, so that both
// the forward-half and backward-half walks add edges in the same
// source→target orientation regardless of which direction they recurse.
func extractPaths(v uint32, counts map[uint32]int, forward bool, directed parents, links map[uint32]map[uint32]struct{}) int {
	nexts, ok := directed[v]
	if !ok || len(nexts) == 0 {
		return 1
	}

	total := 0
	for next := range nexts {
		if forward {
			addLink(links, v, next)
		} else {
			addLink(links, next, v)
		}

		count, memoized := counts[next]
		if !memoized {
			count = extractPaths(next, counts, forward, directed, links)
		}
		total += count
	}
	counts[v] = total
	return total
}

func addLink(links map[uint32]map[uint32]struct{}, from, to uint32) {
	set, ok := links[from]
	if !ok {
		set = make(map[uint32]struct{})
		links[from] = set
	}
	set[to] = struct{}{}
}

// Search runs the bidirectional BFS and then, for every meeting vertex,
// extracts the forward-half and backward-half path counts and multiplies
// them, per spec.md §4.8: no shortest path is double-counted because
// every one decomposes uniquely through its meeting vertex.
func Search(tx *store.ReadTxn, source, target uint32) (*Result, error) {
	f, err := runBFS(tx, source, target)
	if err != nil {
		return nil, err
	}

	forwardCounts := make(map[uint32]int)
	backwardCounts := make(map[uint32]int)
	links := make(map[uint32]map[uint32]struct{})
	total := 0

	for meet := range f.meeting {
		// The reference implementation walks backwardParents from the
		// meeting vertex toward target (terminating at target, whose
		// entry is the empty set) to get the "forward" count, and
		// forwardParents toward source for the "backward" count — the
		// bool only selects edge orientation when recording into links,
		// not which half of the path is being counted.
		toTarget := extractPaths(meet, forwardCounts, true, f.backwardParents, links)
		toSource := extractPaths(meet, backwardCounts, false, f.forwardParents, links)
		total += toTarget * toSource
	}

	length := 0
	if total > 0 {
		length = f.forwardDepth + f.backwardDepth
	}

	return &Result{Links: links, Length: length, Count: total}, nil
}
