package network_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/leighmacdonald/bf4-status/internal/network"
	"github.com/stretchr/testify/require"
)

func TestResolveIP(t *testing.T) {
	addr, err := network.ResolveIP(context.Background(), "::ffff:10.0.0.5")
	require.NoError(t, err)
	require.Equal(t, netip.MustParseAddr("10.0.0.5"), addr)

	localhost, errLocal := network.ResolveIP(context.Background(), "localhost")
	require.NoError(t, errLocal)
	require.True(t, localhost.IsLoopback())
}

func TestIPInfoLocator(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		if r.URL.Path == "/10.0.0.9" {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		_, _ = w.Write([]byte(`{"ip":"10.0.0.5","location":{"country":"Australia","country_code":"AU"}}`))
	}))
	defer server.Close()

	locator := network.NewIPInfoLocator(server.Client(), server.URL, time.Second)

	country, err := locator.Country("10.0.0.5")
	require.NoError(t, err)
	require.Equal(t, "AU", country)

	_, errLimited := locator.Country("10.0.0.9")
	require.ErrorIs(t, errLimited, network.ErrQueryIP)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"/10.0.0.5?format=json", "/10.0.0.9?format=json"}, paths)
}
