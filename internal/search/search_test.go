// SPDX-License-Identifier: MIT

package search

import (
	"path/filepath"
	"testing"

	"github.com/wikilinks/wikipath/internal/store"
)

// buildFixture opens a fresh Build-mode store, inserts the given redirects
// and directed edges, compacts it to a Serve-mode copy, and returns a read
// transaction over the compacted copy.
func buildFixture(t *testing.T, redirects map[uint32]uint32, edges [][2]uint32) *store.ReadTxn {
	t.Helper()
	dir := t.TempDir()
	buildPath := filepath.Join(dir, "build.db")

	s, err := store.Open(buildPath, store.Build, 0)
	if err != nil {
		t.Fatalf("Open build: %v", err)
	}
	wtx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	for src, dst := range redirects {
		if err := wtx.PutRedirect(src, dst); err != nil {
			t.Fatalf("PutRedirect: %v", err)
		}
	}
	for _, e := range edges {
		if err := wtx.MergeAdjacency(store.Outgoing, e[0], []uint32{e[1]}); err != nil {
			t.Fatalf("MergeAdjacency outgoing: %v", err)
		}
		if err := wtx.MergeAdjacency(store.Incoming, e[1], []uint32{e[0]}); err != nil {
			t.Fatalf("MergeAdjacency incoming: %v", err)
		}
	}
	if err := wtx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	servePath := filepath.Join(dir, "serve.db")
	if err := s.CompactTo(servePath); err != nil {
		t.Fatalf("CompactTo: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close build: %v", err)
	}

	serve, err := store.Open(servePath, store.Serve, 0)
	if err != nil {
		t.Fatalf("Open serve: %v", err)
	}
	t.Cleanup(func() { serve.Close() })

	tx, err := serve.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	t.Cleanup(func() { tx.Done() })
	return tx
}

func linkSet(ids ...uint32) map[uint32]struct{} {
	s := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func assertLinks(t *testing.T, got map[uint32]map[uint32]struct{}, want map[uint32]map[uint32]struct{}) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("links: got %v, want %v", got, want)
	}
	for k, wantSet := range want {
		gotSet, ok := got[k]
		if !ok || len(gotSet) != len(wantSet) {
			t.Fatalf("links[%d]: got %v, want %v", k, got[k], wantSet)
		}
		for v := range wantSet {
			if _, ok := gotSet[v]; !ok {
				t.Fatalf("links[%d]: missing %d, got %v", k, v, gotSet)
			}
		}
	}
}

func TestSearchDirectLink(t *testing.T) {
	tx := buildFixture(t, nil, [][2]uint32{{1, 2}})
	res, err := Search(tx, 1, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Length != 1 || res.Count != 1 {
		t.Fatalf("got length=%d count=%d, want 1/1", res.Length, res.Count)
	}
	assertLinks(t, res.Links, map[uint32]map[uint32]struct{}{1: linkSet(2)})
}

func TestSearchDiamond(t *testing.T) {
	tx := buildFixture(t, nil, [][2]uint32{{1, 2}, {1, 3}, {2, 4}, {3, 4}})
	res, err := Search(tx, 1, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Length != 2 || res.Count != 2 {
		t.Fatalf("got length=%d count=%d, want 2/2", res.Length, res.Count)
	}
	assertLinks(t, res.Links, map[uint32]map[uint32]struct{}{
		1: linkSet(2, 3),
		2: linkSet(4),
		3: linkSet(4),
	})
}

func TestSearchNoPath(t *testing.T) {
	tx := buildFixture(t, nil, [][2]uint32{{1, 2}})
	res, err := Search(tx, 1, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Length != 0 || res.Count != 0 {
		t.Fatalf("got length=%d count=%d, want 0/0", res.Length, res.Count)
	}
	if len(res.Links) != 0 {
		t.Fatalf("got links %v, want empty", res.Links)
	}
}

func TestSearchTrivialSourceEqualsTarget(t *testing.T) {
	tx := buildFixture(t, nil, [][2]uint32{{1, 2}})
	res, err := Search(tx, 1, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Length != 0 || res.Count != 1 {
		t.Fatalf("got length=%d count=%d, want 0/1 for src==dst", res.Length, res.Count)
	}
}

// Redirect resolution itself is the caller's responsibility (see the root
// Database.GetShortestPaths); Search only operates on already-resolved
// page ids, so this test resolves through the redirect table manually
// before calling Search, mirroring Scenario C.
func TestSearchAfterRedirectResolution(t *testing.T) {
	tx := buildFixture(t, map[uint32]uint32{1: 2}, [][2]uint32{{2, 3}})

	source := uint32(1)
	if target, ok, err := tx.GetRedirect(source); err != nil {
		t.Fatalf("GetRedirect: %v", err)
	} else if ok {
		source = target
	}

	res, err := Search(tx, source, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if source != 2 {
		t.Fatalf("resolved source = %d, want 2", source)
	}
	if res.Length != 1 || res.Count != 1 {
		t.Fatalf("got length=%d count=%d, want 1/1", res.Length, res.Count)
	}
	assertLinks(t, res.Links, map[uint32]map[uint32]struct{}{2: linkSet(3)})
}
