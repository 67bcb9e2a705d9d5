package retailer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

const samplePayload = `{
  "result": {
    "items": [
      {
        "name": "Ultra Light Down Jacket",
        "colors": [{"code": "COL08", "displayCode": "08", "name": "08 DARK GRAY"}],
        "sizes": [{"code": "SMA004", "displayCode": "004", "name": "M"}],
        "images": {
          "main": [
            {"colorCode": "07", "url": "https://img.example.com/07.jpg"},
            {"colorCode": "08", "url": "https://img.example.com/08.jpg"}
          ]
        },
        "l2s": [
          {
            "color": {"code": "COL07", "displayCode": "07", "name": "07 GRAY"},
            "size": {"code": "SMA003", "displayCode": "003", "name": "S"},
            "prices": {"base": {"value": 49.90}, "promo": null},
            "stock": {"statusCode": "IN_STOCK", "statusLocalized": "In stock", "quantity": 25}
          },
          {
            "color": {"code": "COL08", "displayCode": "08", "name": "08 DARK GRAY"},
            "size": {"code": "SMA004", "displayCode": "004", "name": "M"},
            "prices": {"base": {"value": 49.90}, "promo": {"value": 39.90}},
            "stock": {"statusCode": "LOW_STOCK", "statusLocalized": "Low stock", "quantity": 3}
          }
        ]
      }
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resolver := watch.NewResolver("www.uniqlo.com", srv.URL+"/ca/api/commerce/v3/en/", "ca", "en")
	client := New(resolver, Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, nil)
	return client, srv
}

func TestFetchSelectsMatchingVariant(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ca/api/commerce/v3/en/products/E463985-000", r.URL.Path)
		require.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		fmt.Fprint(w, samplePayload)
	})

	rec, canonical, err := client.Fetch(
		context.Background(),
		"https://www.uniqlo.com/ca/en/products/E463985-000?colorDisplayCode=08&sizeDisplayCode=004",
	)
	require.NoError(t, err)
	require.Equal(t, "https://www.uniqlo.com/ca/en/products/E463985-000?colorCode=COL08&sizeCode=SMA004", canonical)
	require.Equal(t, canonical, rec.URL)
	require.Equal(t, "Ultra Light Down Jacket", rec.Name)
	require.Equal(t, "39.9", rec.Price.String())
	require.True(t, rec.IsPromo)
	require.Equal(t, watch.StockStatusLow, rec.StatusCode)
	require.Equal(t, 3, rec.Quantity)
	require.Equal(t, "08 DARK GRAY", rec.ColorName)
	require.Equal(t, "M", rec.SizeName)
	require.Equal(t, "https://img.example.com/08.jpg", rec.ImageURL)
}

func TestFetchUnsetSelectorPicksFirstVariant(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, samplePayload)
	})

	rec, canonical, err := client.Fetch(
		context.Background(),
		"https://www.uniqlo.com/ca/en/products/E463985-000",
	)
	require.NoError(t, err)
	require.Equal(t, "https://www.uniqlo.com/ca/en/products/E463985-000", canonical)
	require.Equal(t, "49.9", rec.Price.String())
	require.False(t, rec.IsPromo)
	require.Equal(t, watch.StockStatusIn, rec.StatusCode)
	// Names and image stay empty without an explicit selection.
	require.Empty(t, rec.ColorName)
	require.Empty(t, rec.SizeName)
	require.Empty(t, rec.ImageURL)
}

func TestFetchNoMatchingVariant(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, samplePayload)
	})

	_, _, err := client.Fetch(
		context.Background(),
		"https://www.uniqlo.com/ca/en/products/E463985-000?colorDisplayCode=99",
	)
	require.ErrorIs(t, err, ErrNoVariant)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, samplePayload)
	})

	_, _, err := client.Fetch(context.Background(), "https://www.uniqlo.com/ca/en/products/E463985-000")
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchSurfacesFailureAfterRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, _, err := client.Fetch(context.Background(), "https://www.uniqlo.com/ca/en/products/E463985-000")
	require.Error(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchMalformedBodyFailsWithoutRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "<html>not json</html>")
	})

	_, _, err := client.Fetch(context.Background(), "https://www.uniqlo.com/ca/en/products/E463985-000")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestFetchUnresolvableURL(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("unexpected api call for unresolvable url")
	})

	_, _, err := client.Fetch(context.Background(), "https://example.com/shop/products/123")
	require.Error(t, err)
}
