// Package store holds the process-wide mutable state: the snapshot of every
// tracked product and the persisted watch-list. Both are guarded by their own
// mutex and expose only get/put/delete/iterate operations; no caller touches
// the underlying maps. When a caller needs both locks the watch-list lock is
// taken first.
package store

import (
	"sort"
	"sync"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

// SnapshotStore maps canonical product URLs to their latest known record.
type SnapshotStore struct {
	mu      sync.Mutex
	records map[string]watch.ProductRecord
}

// NewSnapshotStore constructs an empty SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{records: make(map[string]watch.ProductRecord)}
}

// Get returns the record for url.
func (s *SnapshotStore) Get(url string) (watch.ProductRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[url]
	return rec, ok
}

// Put replaces the record for url wholesale.
func (s *SnapshotStore) Put(url string, rec watch.ProductRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[url] = rec
}

// Delete removes url and reports whether it was present.
func (s *SnapshotStore) Delete(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[url]
	delete(s.records, url)
	return ok
}

// Len returns the number of tracked products.
func (s *SnapshotStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of all records, sorted by URL for stable output.
func (s *SnapshotStore) Records() []watch.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]watch.ProductRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Range calls fn for every record while holding the store lock for the whole
// iteration, so one poll cycle observes and commits a consistent snapshot.
// Listener mutations queue behind the cycle, which is the intended trade-off.
// fn returns the replacement record and whether to commit it. Keys are
// visited in sorted order.
func (s *SnapshotStore) Range(fn func(url string, rec watch.ProductRecord) (watch.ProductRecord, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := make([]string, 0, len(s.records))
	for url := range s.records {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	for _, url := range urls {
		if updated, commit := fn(url, s.records[url]); commit {
			s.records[url] = updated
		}
	}
}
