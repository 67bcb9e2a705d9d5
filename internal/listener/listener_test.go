package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	notifymem "github.com/JakeFAU/stockwatch/internal/notify/memory"
	"github.com/JakeFAU/stockwatch/internal/store"
	"github.com/JakeFAU/stockwatch/internal/watch"
)

type fakeFetcher struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (watch.ProductRecord, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return watch.ProductRecord{}, "", fmt.Errorf("api unavailable")
	}
	base, _, _ := strings.Cut(pageURL, "?")
	canonical := base + "?colorCode=COL08"
	rec := watch.ProductRecord{
		URL:        canonical,
		Name:       "Jacket",
		Price:      decimal.RequireFromString("49.90"),
		StatusCode: watch.StockStatusIn,
		Quantity:   10,
	}
	return rec, canonical, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type harness struct {
	listener  *Listener
	fetcher   *fakeFetcher
	watchlist *store.Watchlist
	snapshots *store.SnapshotStore
	sink      *notifymem.Sink
	filePath  string
}

// newHarness starts a control stream server that replays the given lines,
// then holds the connection open until the test ends.
func newHarness(t *testing.T, lines []string) *harness {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/control-topic/raw", r.URL.Path)
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
		flusher.Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	filePath := filepath.Join(t.TempDir(), "products.json")
	watchlist, err := store.LoadWatchlist(filePath)
	require.NoError(t, err)
	snapshots := store.NewSnapshotStore()
	fetcher := &fakeFetcher{}
	sink := notifymem.New()

	resolver := watch.NewResolver("www.uniqlo.com", "https://www.uniqlo.com/ca/api/commerce/v3/en/", "ca", "en")
	l := New(Config{
		Server:         srv.URL,
		Topic:          "control-topic",
		NotifyTopic:    "watch-topic",
		ReconnectDelay: 10 * time.Millisecond,
	}, resolver, fetcher, watchlist, snapshots, sink, nil)

	return &harness{
		listener:  l,
		fetcher:   fetcher,
		watchlist: watchlist,
		snapshots: snapshots,
		sink:      sink,
		filePath:  filePath,
	}
}

func runListener(t *testing.T, h *harness) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.listener.Run(ctx)
}

func TestListenerAddCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []string{
		"https://www.uniqlo.com/ca/en/products/E463985-000 name: puffer",
	})
	runListener(t, h)

	canonical := "https://www.uniqlo.com/ca/en/products/E463985-000?colorCode=COL08"
	require.Eventually(t, func() bool {
		return h.watchlist.Contains(canonical)
	}, time.Second, 10*time.Millisecond)

	rec, ok := h.snapshots.Get(canonical)
	require.True(t, ok)
	require.Equal(t, "puffer", rec.Nickname)

	msgs := h.sink.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "watch-topic", msgs[0].Topic)
	require.Contains(t, msgs[0].Notification.Title, "Added")

	onDisk := map[string]string{}
	data, err := os.ReadFile(h.filePath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	require.Equal(t, map[string]string{canonical: "puffer"}, onDisk)
}

func TestListenerDuplicateAddIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []string{
		"https://www.uniqlo.com/ca/en/products/E463985-000 name: puffer",
		"https://www.uniqlo.com/ca/en/products/E463985-000 name: again",
	})
	runListener(t, h)

	canonical := "https://www.uniqlo.com/ca/en/products/E463985-000?colorCode=COL08"
	require.Eventually(t, func() bool {
		return h.fetcher.callCount() == 2
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, 1, h.watchlist.Len())
	rec, _ := h.snapshots.Get(canonical)
	require.Equal(t, "puffer", rec.Nickname)
	require.Len(t, h.sink.Messages(), 1)
}

func TestListenerRemoveCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []string{
		"remove: https://www.uniqlo.com/ca/en/products/E463985-000",
	})

	canonical := "https://www.uniqlo.com/ca/en/products/E463985-000?colorCode=COL08"
	require.NoError(t, h.watchlist.Put(canonical, "puffer"))
	h.snapshots.Put(canonical, watch.ProductRecord{URL: canonical})

	runListener(t, h)

	require.Eventually(t, func() bool {
		return !h.watchlist.Contains(canonical) && h.snapshots.Len() == 0
	}, time.Second, 10*time.Millisecond)
	require.Empty(t, h.sink.Messages())
}

func TestListenerAddThenRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []string{
		"https://www.uniqlo.com/ca/en/products/E463985-000 name: puffer",
		"remove: https://www.uniqlo.com/ca/en/products/E463985-000",
	})
	require.NoError(t, h.watchlist.Put("https://www.uniqlo.com/ca/en/products/KEEP?colorCode=COL01", "keeper"))

	before, err := os.ReadFile(h.filePath)
	require.NoError(t, err)

	runListener(t, h)

	require.Eventually(t, func() bool {
		return h.fetcher.callCount() == 2 && h.watchlist.Len() == 1
	}, time.Second, 10*time.Millisecond)

	after, err := os.ReadFile(h.filePath)
	require.NoError(t, err)
	require.JSONEq(t, string(before), string(after))
}

func TestListenerIgnoresForeignLines(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []string{
		"hello there",
		"https://example.com/products/1 name: nope",
		"remove: https://example.com/products/1",
	})
	runListener(t, h)

	// Give the listener a moment to drain the stream.
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, h.fetcher.callCount())
	require.Equal(t, 0, h.watchlist.Len())
}

func TestListenerAddFetchFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []string{
		"https://www.uniqlo.com/ca/en/products/E463985-000 name: puffer",
	})
	h.fetcher.fail = true
	runListener(t, h)

	require.Eventually(t, func() bool {
		return h.fetcher.callCount() == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, 0, h.watchlist.Len())
	require.Equal(t, 0, h.snapshots.Len())
	require.Empty(t, h.sink.Messages())
}
