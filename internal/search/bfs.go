// SPDX-License-Identifier: MIT

// Package search implements the bidirectional BFS engine and path
// extractor that answer a shortest-path query against a serve-mode
// read transaction. The algorithm shape is ported from the reference
// implementation's get_shortest_paths: two frontier queues, a
// level-synchronous "merge after the round" step, and a pair of
// memoized recursive walks over the resulting predecessor maps.
package search

import "github.com/wikilinks/wikipath/internal/store"

// parents maps a vertex to the set of vertices that led to it on some
// shortest path from the side's root (source for forward, target for
// backward).
type parents map[uint32]map[uint32]struct{}

func (p parents) add(child, parent uint32) {
	set, ok := p[child]
	if !ok {
		set = make(map[uint32]struct{})
		p[child] = set
	}
	set[parent] = struct{}{}
}

// frontier holds the mutable state of one bidirectional BFS run.
type frontier struct {
	forwardParents  parents
	backwardParents parents
	meeting         map[uint32]struct{}
	forwardDepth    int
	backwardDepth   int
}

// runBFS expands forward and backward frontiers in level-synchronous
// alternation, always expanding the smaller queue (ties favor backward,
// matching the `<` comparison in the reference: backward only loses the
// tie when it is strictly larger), until the two sides first meet or one
// frontier is exhausted.
func runBFS(tx *store.ReadTxn, source, target uint32) (*frontier, error) {
	f := &frontier{
		forwardParents:  parents{source: {}},
		backwardParents: parents{target: {}},
		meeting:         make(map[uint32]struct{}),
	}
	if source == target {
		f.meeting[source] = struct{}{}
		return f, nil
	}

	forwardQueue := []uint32{source}
	backwardQueue := []uint32{target}

	for len(f.meeting) == 0 && len(forwardQueue) > 0 && len(backwardQueue) > 0 {
		if len(forwardQueue) < len(backwardQueue) {
			next, err := expand(tx, store.Outgoing, forwardQueue, f.forwardParents, f.backwardParents, f.meeting)
			if err != nil {
				return nil, err
			}
			forwardQueue = next
			f.forwardDepth++
		} else {
			next, err := expand(tx, store.Incoming, backwardQueue, f.backwardParents, f.forwardParents, f.meeting)
			if err != nil {
				return nil, err
			}
			backwardQueue = next
			f.backwardDepth++
		}
	}
	return f, nil
}

// expand processes exactly the vertices in queue (a snapshot of one
// round's frontier — vertices discovered this round are appended to the
// returned slice, never drained within this call), merging newly
// discovered parent edges into own only after the whole round completes,
// which is what makes the search level-synchronous.
func expand(tx *store.ReadTxn, table store.Table, queue []uint32, own, other parents, meeting map[uint32]struct{}) ([]uint32, error) {
	discovered := make(parents)
	var next []uint32

	for _, v := range queue {
		neighbors, err := tx.GetAdjacency(table, v)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if _, already := own[n]; already {
				continue
			}
			if _, queuedThisRound := discovered[n]; !queuedThisRound {
				next = append(next, n)
			}
			discovered.add(n, v)
			if _, metOtherSide := other[n]; metOtherSide {
				meeting[n] = struct{}{}
			}
		}
	}

	for child, ps := range discovered {
		for p := range ps {
			own.add(child, p)
		}
	}
	return next, nil
}
