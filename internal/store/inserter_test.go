// SPDX-License-Identifier: MIT

package store

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestInserterBasicFlushAndCommit(t *testing.T) {
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
	ins := BeginInserter(wtx, 0, nil) // memoryLimit 0: never triggers a background flush
	ins.Insert(1, 2)
	ins.Insert(1, 3)
	ins.Insert(2, 3)

	n, err := ins.FlushAndCommit()
	if err != nil {
		t.Fatalf("FlushAndCommit: %v", err)
	}
	if n != 3 {
		t.Fatalf("got %d inserted, want 3", n)
	}

	rtx, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer rtx.Done()

	out, err := rtx.GetAdjacency(Outgoing, 1)
	if err != nil {
		t.Fatalf("GetAdjacency: %v", err)
	}
	if len(out) != 2 || out[0] != 2 || out[1] != 3 {
		t.Fatalf("outgoing[1] = %v, want [2 3]", out)
	}

	inc, err := rtx.GetAdjacency(Incoming, 3)
	if err != nil {
		t.Fatalf("GetAdjacency: %v", err)
	}
	if len(inc) != 2 || inc[0] != 1 || inc[1] != 2 {
		t.Fatalf("incoming[3] = %v, want [1 2]", inc)
	}
}

func TestInserterConcurrentProducers(t *testing.T) {
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
	ins := BeginInserter(wtx, 0, nil)

	const producers = 8
	const perProducer = 500
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				ins.Insert(uint32(p), uint32(i%100))
			}
		}()
	}
	wg.Wait()

	n, err := ins.FlushAndCommit()
	if err != nil {
		t.Fatalf("FlushAndCommit: %v", err)
	}
	if n == 0 {
		t.Fatal("expected a nonzero number of inserted edges")
	}

	rtx, err := s.BeginRead()
	if err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
	defer rtx.Done()

	for p := 0; p < producers; p++ {
		out, err := rtx.GetAdjacency(Outgoing, uint32(p))
		if err != nil {
			t.Fatalf("GetAdjacency(outgoing, %d): %v", p, err)
		}
		if len(out) != 100 {
			t.Fatalf("outgoing[%d] has %d distinct targets, want 100", p, len(out))
		}
	}
}
