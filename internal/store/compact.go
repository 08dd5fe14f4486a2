// SPDX-License-Identifier: MIT

package store

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// CompactTo writes a compacted copy of the database to destPath: a fresh
// bbolt file containing the same three tables, with no free pages and
// keys laid out in ascending order for sequential scans. This is the
// build→serve finalization step; the caller is responsible for renaming
// destPath into place once this returns successfully.
func (s *Store) CompactTo(destPath string) error {
	dst, err := bolt.Open(destPath, 0644, nil)
	if err != nil {
		return fmt.Errorf("%w: creating compacted copy at %s: %v", ErrStorage, destPath, err)
	}
	defer dst.Close()

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			for _, t := range allTables {
				srcBucket := srcTx.Bucket([]byte(t))
				if srcBucket == nil {
					return fmt.Errorf("%w: source missing table %q", ErrMissingTable, t)
				}
				dstBucket, err := dstTx.CreateBucketIfNotExists([]byte(t))
				if err != nil {
					return err
				}
				// FillPercent=1: the source is traversed in ascending key
				// order and never mutated again, so bbolt can pack pages
				// fully instead of leaving room for future random inserts.
				dstBucket.FillPercent = 1.0
				c := srcBucket.Cursor()
				for k, v := c.First(); k != nil; k, v = c.Next() {
					if err := dstBucket.Put(k, v); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	return nil
}
