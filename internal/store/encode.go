// SPDX-License-Identifier: MIT

package store

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// encodeKey renders a PageId as a big-endian 4-byte bucket key. Keys use
// big-endian (unlike values) because bbolt orders bucket keys by byte
// comparison, and big-endian is the encoding under which byte order and
// numeric order coincide — this is what lets ForEach/Cursor iteration
// return ascending PageId order for free.
func encodeKey(id uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return b[:]
}

func decodeKey(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// encodeAdjacency is the bit-exact, portable on-disk encoding for an
// adjacency list: a concatenation of 4-byte little-endian page ids, with
// length implied by the value's byte size. The caller must pass an
// already sorted, deduplicated list; this function does not sort.
func encodeAdjacency(ids []uint32) []byte {
	out := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(out[i*4:], id)
	}
	return out
}

func decodeAdjacency(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("adjacency value has length %d, not a multiple of 4", len(b))
	}
	ids := make([]uint32, len(b)/4)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return ids, nil
}

// encodeRedirect/decodeRedirect store a single little-endian PageId.
func encodeRedirect(id uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], id)
	return b[:]
}

func decodeRedirect(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("redirect value has length %d, want 4", len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

// sortedUnique returns ids in strictly ascending, deduplicated order. It
// may reuse and mutate the backing array of ids.
func sortedUnique(ids []uint32) []uint32 {
	slices.Sort(ids)
	return slices.Compact(ids)
}
