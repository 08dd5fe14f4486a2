// SPDX-License-Identifier: MIT

// Package dumpscan implements the chunked gzip reader and sliding-window
// regex scanner used to extract SQL tuples from multi-gigabyte Wikimedia
// dump files without ever materializing a whole file in memory, and
// without missing a match that straddles a chunk boundary.
package dumpscan

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// chunk is a fixed-capacity buffer recycled between the reader task and
// the parser workers. n is the number of valid bytes; overlap is how many
// leading bytes were copied from the tail of the previous chunk. A match
// that ends within those bytes was already reported while scanning the
// previous chunk, so the scanner skips it.
type chunk struct {
	buf     []byte
	n       int
	overlap int
}

// chunkReader decompresses a gzip stream and emits fixed-size chunks with
// a trailing-overlap prefix copied from the previous chunk, so that a
// downstream regex scan never misses a match spanning a chunk boundary.
// It implements the single-reader-task half of the algorithm in
// spec.md §4.1: one instance owns the fresh/stale channel pair and the
// "previous chunk" state; everything else is read through channels.
type chunkReader struct {
	gz      *gzip.Reader
	overlap int // bound M: max bytes a single match can span
	fresh   chan<- *chunk
	stale   <-chan *chunk
	workers int
}

// run decompresses r, forwards overlap-prefixed chunks on fresh until EOF,
// then sends one nil sentinel per worker to signal end-of-stream, and
// finally closes fresh. It returns the first I/O error encountered, if
// any; handler errors are not its concern (those are surfaced by the
// scanner, see scanner.go).
func (cr *chunkReader) run(r io.Reader) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	var prev *chunk
	for {
		buf := <-cr.stale
		start := 0
		if prev != nil {
			n := prev.n
			if n > cr.overlap {
				n = cr.overlap
			}
			copy(buf.buf, prev.buf[prev.n-n:prev.n])
			start = n
		}
		buf.overlap = start

		read, err := io.ReadFull(gz, buf.buf[start:])
		buf.n = start + read
		eof := err == io.EOF || err == io.ErrUnexpectedEOF
		if err != nil && !eof {
			return err
		}

		if buf.n > 0 {
			cr.fresh <- buf
			prev = buf
		}

		if eof {
			for i := 0; i < cr.workers; i++ {
				cr.fresh <- nil
			}
			close(cr.fresh)
			return nil
		}
	}
}
