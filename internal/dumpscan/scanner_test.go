// SPDX-License-Identifier: MIT

package dumpscan

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var tupleRE = regexp.MustCompile(`\((\d+),(\d+)\)`)

func TestScanFindsAllTuples(t *testing.T) {
	var sb strings.Builder
	var want []string
	for i := 0; i < 50000; i++ {
		sb.WriteString(fmt.Sprintf("(%d,%d),", i, i+1))
		want = append(want, fmt.Sprintf("%d-%d", i, i+1))
	}
	data := gzipBytes(t, sb.String())

	var mu sync.Mutex
	var got []string
	err := Scan(bytes.NewReader(data), tupleRE, Config{
		Bound:     32,
		ChunkSize: 64 << 10, // the smallest chunk Scan allows; the input spans several chunks
		Threads:   4,
	}, func(groups [][]byte) error {
		mu.Lock()
		got = append(got, fmt.Sprintf("%s-%s", groups[1], groups[2]))
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %d matches, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanMatchStraddlingChunkBoundary(t *testing.T) {
	// Pad the input so that the tuple starts 7 bytes before the end of the
	// first 64 KiB chunk (the smallest chunk Scan allows) and so lands
	// across the boundary between the first and second chunk.
	data := gzipBytes(t, strings.Repeat("x", 64<<10-7)+"(123456,654321)"+strings.Repeat("y", 250))

	var got []string
	err := Scan(bytes.NewReader(data), tupleRE, Config{
		Bound:     32,
		ChunkSize: 64 << 10,
		Threads:   1,
	}, func(groups [][]byte) error {
		got = append(got, fmt.Sprintf("%s-%s", groups[1], groups[2]))
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 || got[0] != "123456-654321" {
		t.Fatalf("got %v, want a single match 123456-654321", got)
	}
}

func TestScanHandlerErrorIsDiscarded(t *testing.T) {
	data := gzipBytes(t, "(1,2)(3,4)(5,6)")

	var calls int
	err := Scan(bytes.NewReader(data), tupleRE, Config{
		Bound:     16,
		ChunkSize: 64 << 10,
		Threads:   2,
	}, func(groups [][]byte) error {
		calls++
		return fmt.Errorf("boom")
	})
	if err != nil {
		t.Fatalf("Scan should not surface handler errors, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("handler called %d times, want 3", calls)
	}
}

func TestScanPropagatesIOError(t *testing.T) {
	err := Scan(strings.NewReader("not a gzip stream"), tupleRE, Config{
		Bound:     16,
		ChunkSize: 64 << 10,
		Threads:   1,
	}, func(groups [][]byte) error { return nil })
	if err == nil {
		t.Fatal("expected an error for a non-gzip stream")
	}
}
