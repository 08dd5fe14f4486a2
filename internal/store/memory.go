// SPDX-License-Identifier: MIT

package store

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// ProcessRSS returns an estimate of the current process's resident set
// size, in bytes. On Linux it reads /proc/self/statm, which is the
// cheapest OS-provided per-process metric (no allocation-heavy parsing,
// no external dependency); no package in the retrieved pack wraps this,
// so it is the one OS-boundary shim this repository hand-rolls (see
// DESIGN.md). On other platforms it falls back to runtime.MemStats.Sys,
// which is coarser (Go heap only, not the whole process) but requires no
// OS-specific code path.
func ProcessRSS() (uint64, error) {
	if runtime.GOOS == "linux" {
		rss, err := readLinuxRSS()
		if err == nil {
			return rss, nil
		}
		// Fall through to the generic estimate rather than failing the
		// whole build over an unreadable /proc entry (containers without
		// procfs, sandboxed environments, …).
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys, nil
}

func readLinuxRSS() (uint64, error) {
	f, err := os.Open("/proc/self/statm")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, fmt.Errorf("empty /proc/self/statm")
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed /proc/self/statm: %q", scanner.Text())
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, err
	}
	return pages * uint64(os.Getpagesize()), nil
}
