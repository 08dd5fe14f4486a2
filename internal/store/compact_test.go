// SPDX-License-Identifier: MIT

package store

import (
	"path/filepath"
	"testing"
)

func TestCompactToProducesUsableServeDatabase(t *testing.T) {
	dir := t.TempDir()
	buildPath := filepath.Join(dir, "build.db")

	s, err := Open(buildPath, Build, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	wtx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	if err := wtx.PutRedirect(1, 2); err != nil {
		t.Fatalf("PutRedirect: %v", err)
	}
	if err := wtx.MergeAdjacency(Outgoing, 2, []uint32{3, 4}); err != nil {
		t.Fatalf("MergeAdjacency: %v", err)
	}
	if err := wtx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	servePath := filepath.Join(dir, "serve.db")
	if err := s.CompactTo(servePath); err != nil {
		t.Fatalf("CompactTo: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	serve, err := Open(servePath, Serve, 0)
	if err != nil {
		t.Fatalf("Open serve copy: %v", err)
	}
	defer serve.Close()

	rtx, err := serve.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer rtx.Done()

	target, ok, err := rtx.GetRedirect(1)
	if err != nil || !ok || target != 2 {
		t.Fatalf("GetRedirect(1) = (%d, %v, %v), want (2, true, nil)", target, ok, err)
	}
	links, err := rtx.GetAdjacency(Outgoing, 2)
	if err != nil {
		t.Fatalf("GetAdjacency: %v", err)
	}
	if len(links) != 2 || links[0] != 3 || links[1] != 4 {
		t.Fatalf("got %v, want [3 4]", links)
	}
}

func TestCompactToEmptyDatabaseSucceeds(t *testing.T) {
	dir := t.TempDir()
	buildPath := filepath.Join(dir, "build.db")
	s, err := Open(buildPath, Build, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	servePath := filepath.Join(dir, "serve.db")
	if err := s.CompactTo(servePath); err != nil {
		t.Fatalf("CompactTo of an empty database should succeed: %v", err)
	}
}
