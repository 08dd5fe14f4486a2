// SPDX-License-Identifier: MIT

package dumpscan

import (
	"io"
	"log"
	"regexp"

	"golang.org/x/sync/errgroup"
)

// MatchHandler is invoked once per match found by a Scan. groups holds the
// regex's submatches (groups[0] is the whole match, groups[i] the i-th
// capture group), sliced directly from a chunk buffer — the handler must
// not retain them past the call. Handler errors are logged and discarded
// per spec.md §4.1: a single malformed tuple must not abort ingestion.
type MatchHandler func(groups [][]byte) error

// Config parameterizes a Scan.
type Config struct {
	// Bound is the upper bound M on the byte length of a single match,
	// as derived from the dump table's schema (see the per-table
	// constants in package dump).
	Bound int

	// ChunkSize is the fixed chunk size C. Scan raises a smaller value to
	// at least 16*Bound and at least 64<<10 (64 KiB).
	ChunkSize int

	// Threads is the user-configured thread count N; P = max(1,
	// Threads-1) parser workers are started.
	Threads int

	// Logger receives "warn"-level diagnostics for discarded handler
	// errors. If nil, log.Default() is used.
	Logger *log.Logger
}

func (c Config) workers() int {
	p := c.Threads - 1
	if p < 1 {
		p = 1
	}
	return p
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Scan decompresses r and, for every non-overlapping match of re over the
// entire decompressed byte stream, invokes handle exactly once — including
// matches that straddle a chunk boundary — provided no single match
// exceeds cfg.Bound bytes. It blocks until the whole stream has been
// scanned (or an I/O error occurs) and every worker has acknowledged
// completion.
func Scan(r io.Reader, re *regexp.Regexp, cfg Config, handle MatchHandler) error {
	workers := cfg.workers()
	bufCount := 2 * workers
	chunkSize := cfg.ChunkSize
	if chunkSize < 16*cfg.Bound {
		chunkSize = 16 * cfg.Bound
	}
	if chunkSize < 64<<10 {
		chunkSize = 64 << 10
	}

	fresh := make(chan *chunk, bufCount)
	stale := make(chan *chunk, bufCount)
	for i := 0; i < bufCount; i++ {
		stale <- &chunk{buf: make([]byte, chunkSize)}
	}

	reader := &chunkReader{
		overlap: cfg.Bound,
		fresh:   fresh,
		stale:   stale,
		workers: workers,
	}

	var eg errgroup.Group

	eg.Go(func() error {
		err := reader.run(r)
		if err != nil {
			// run closes fresh itself only on EOF; close it here too so the
			// workers' range loops end instead of waiting forever.
			close(fresh)
		}
		return err
	})

	logger := cfg.logger()
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			for c := range fresh {
				if c == nil {
					return nil
				}
				scanChunk(c, re, handle, logger)
				stale <- c
			}
			return nil
		})
	}

	return eg.Wait()
}

// scanChunk runs re over the valid range of c, skipping any match that
// lies entirely within the overlap prefix (it was already reported when
// that data sat at the tail of the previous chunk).
func scanChunk(c *chunk, re *regexp.Regexp, handle MatchHandler, logger *log.Logger) {
	data := c.buf[:c.n]
	matches := re.FindAllSubmatchIndex(data, -1)
	for _, idx := range matches {
		matchEnd := idx[1]
		if matchEnd <= c.overlap {
			continue // fully contained in the duplicated tail, already reported
		}

		groups := make([][]byte, len(idx)/2)
		for g := range groups {
			lo, hi := idx[2*g], idx[2*g+1]
			if lo < 0 {
				continue
			}
			groups[g] = data[lo:hi]
		}
		if err := handle(groups); err != nil {
			logger.Printf("warn: dumpscan: discarding match: %v", err)
		}
	}
}
