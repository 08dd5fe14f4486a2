// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenBuildCreatesTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "build.db")
	s, err := Open(path, Build, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if s.Mode() != Build {
		t.Fatalf("Mode() = %v, want Build", s.Mode())
	}
	if s.Path() != path {
		t.Fatalf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestOpenServeRequiresExistingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := Open(path, Serve, 0); err == nil {
		t.Fatal("expected an error opening a nonexistent file in Serve mode")
	}
}

func TestPutRedirectRejectsDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")
	s, err := Open(path, Build, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	wtx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	if err := wtx.PutRedirect(1, 2); err != nil {
		t.Fatalf("first PutRedirect: %v", err)
	}
	if err := wtx.PutRedirect(1, 3); !errors.Is(err, ErrIntegrityViolation) {
		t.Fatalf("got %v, want ErrIntegrityViolation", err)
	}
	if err := wtx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
}

func TestBeginWriteRejectedInServeMode(t *testing.T) {
	buildPath := filepath.Join(t.TempDir(), "build.db")
	b, err := Open(buildPath, Build, 0)
	if err != nil {
		t.Fatalf("Open build: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err := Open(buildPath, Serve, 0)
	if err != nil {
		t.Fatalf("Open serve: %v", err)
	}
	defer s.Close()

	if _, err := s.BeginWrite(); !errors.Is(err, ErrStorage) {
		t.Fatalf("got %v, want ErrStorage", err)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")
	s, err := Open(path, Build, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	wtx, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite: %v", err)
	}
	if err := wtx.MergeAdjacency(Outgoing, 1, []uint32{3, 2, 2}); err != nil {
		t.Fatalf("MergeAdjacency: %v", err)
	}
	if err := wtx.MergeAdjacency(Outgoing, 1, []uint32{5, 1}); err != nil {
		t.Fatalf("MergeAdjacency (second batch): %v", err)
	}
	if err := wtx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	rtx, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer rtx.Done()

	got, err := rtx.GetAdjacency(Outgoing, 1)
	if err != nil {
		t.Fatalf("GetAdjacency: %v", err)
	}
	want := []uint32{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	if _, exists, err := rtx.GetRedirect(99); err != nil || exists {
		t.Fatalf("GetRedirect(99) = (_, %v, %v), want (_, false, nil)", exists, err)
	}
}

func TestExceedsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")
	s, err := Open(path, Build, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if exceeds, err := s.ExceedsLimit(); err != nil || exceeds {
		t.Fatalf("got (%v, %v), want (false, nil) with no configured limit", exceeds, err)
	}

	limited, err := Open(filepath.Join(t.TempDir(), "limited.db"), Build, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer limited.Close()
	exceeds, err := limited.ExceedsLimit()
	if err != nil {
		t.Fatalf("ExceedsLimit: %v", err)
	}
	if !exceeds {
		t.Fatalf("expected a 1-byte limit to already be exceeded by a fresh bbolt file")
	}
}
