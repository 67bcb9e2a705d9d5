package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

// Watchlist is the user-curated set of (canonical URL, nickname) pairs. Every
// mutation rewrites the whole backing file, a flat JSON object mapping URL to
// nickname, so the on-disk state always matches memory.
type Watchlist struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// LoadWatchlist reads the watch-list file at path. A missing file yields an
// empty watch-list; a malformed one is an error.
func LoadWatchlist(path string) (*Watchlist, error) {
	w := &Watchlist{path: path, entries: make(map[string]string)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return w, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	if err := json.Unmarshal(data, &w.entries); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	return w, nil
}

// Put inserts or updates an entry and persists the file.
func (w *Watchlist) Put(url, nickname string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[url] = nickname
	return w.persistLocked()
}

// Delete removes an entry, persisting only when something changed.
func (w *Watchlist) Delete(url string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entries[url]; !ok {
		return false, nil
	}
	delete(w.entries, url)
	return true, w.persistLocked()
}

// Contains reports whether url is on the watch-list.
func (w *Watchlist) Contains(url string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.entries[url]
	return ok
}

// Entries returns all entries sorted by URL.
func (w *Watchlist) Entries() []watch.WatchEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]watch.WatchEntry, 0, len(w.entries))
	for url, nickname := range w.entries {
		out = append(out, watch.WatchEntry{URL: url, Nickname: nickname})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Len returns the number of entries.
func (w *Watchlist) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

func (w *Watchlist) persistLocked() error {
	data, err := json.MarshalIndent(w.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o600); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	return nil
}
