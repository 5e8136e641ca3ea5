package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/swapchecker/pkg/app/core/swap"
)

// ErrJournalClosed is returned by reads and writes after Close
var ErrJournalClosed = errors.New("swap journal closed")

// Journal stores committed swaps in Pebble.
// With an empty path it runs on an in-memory filesystem and lives only for the session.
type Journal struct {
	mu     sync.RWMutex // Close waits for in-flight reads and writes
	closed bool
	db     *pebble.DB

	// seq breaks timestamp ties in keys. Seeded from the wall clock at open
	// so it keeps increasing across reopen of an on-disk journal.
	seq atomic.Uint64
}

// OpenJournal opens a journal at path, or in memory when path is ""
func OpenJournal(path string) (*Journal, error) {
	cache := pebble.NewCache(32 << 20) // 32MB
	defer cache.Unref()

	opts := &pebble.Options{
		Cache:        cache,
		MemTableSize: 16 << 20,
		BytesPerSync: 512 << 10,
	}
	if path == "" {
		opts.FS = vfs.NewMem()
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble journal at %q: %w", path, err)
	}
	j := &Journal{db: db}
	j.seq.Store(uint64(time.Now().UnixNano()))
	return j, nil
}

// Close closes the database; a second Close is a no-op
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

// RecordSwap persists a swap record
func (j *Journal) RecordSwap(rec swap.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal swap record: %w", err)
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJournalClosed
	}

	key := swapKey(rec.Address, rec.Timestamp, j.seq.Add(1), rec.ID.String())
	if err := j.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save swap record: %w", err)
	}
	return nil
}

// RecentSwaps loads the most recent swaps of an address, newest first
func (j *Journal) RecentSwaps(addr common.Address, limit int) ([]swap.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, ErrJournalClosed
	}

	prefix := swapPrefix(addr)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open swap iterator: %w", err)
	}
	defer iter.Close()

	recs := make([]swap.Record, 0)
	for iter.Last(); iter.Valid() && (limit <= 0 || len(recs) < limit); iter.Prev() {
		var rec swap.Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // Skip invalid entries
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

var _ swap.Recorder = (*Journal)(nil)
