// Package network resolves server hosts and looks up their region through a remote ip info api.
package network

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"github.com/leighmacdonald/bf4-status/internal/network/encoding"
)

const DefaultIPInfoURL = "https://api.ipquery.io/"

var (
	ErrResolve = errors.New("failed to resolve host")
	ErrQueryIP = errors.New("failed to query ip info")
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResolveIP returns the address of host, resolving it when it is not already an ip.
func ResolveIP(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap(), nil
	}

	addrs, errLookup := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if errLookup != nil {
		return netip.Addr{}, errors.Join(errLookup, ErrResolve)
	}

	if len(addrs) == 0 {
		return netip.Addr{}, ErrResolve
	}

	return addrs[0].Unmap(), nil
}

type IPInfo struct {
	IP  string `json:"ip"`
	ISP struct {
		ASN string `json:"asn"`
		Org string `json:"org"`
		ISP string `json:"isp"`
	} `json:"isp"`
	Location struct {
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
		City        string `json:"city"`
		State       string `json:"state"`
		Timezone    string `json:"timezone"`
	} `json:"location"`
}

// IPInfoLocator looks up the country of a host with a remote api. It is used when no local
// geoip database is configured.
type IPInfoLocator struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
}

func NewIPInfoLocator(httpClient HTTPDoer, baseURL string, timeout time.Duration) *IPInfoLocator {
	if baseURL == "" {
		baseURL = DefaultIPInfoURL
	}

	return &IPInfoLocator{httpClient: httpClient, baseURL: baseURL, timeout: timeout}
}

// Country returns the ISO country code of host.
func (l *IPInfoLocator) Country(host string) (string, error) {
	ctx := context.Background()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	addr, errAddr := ResolveIP(ctx, host)
	if errAddr != nil {
		return "", errAddr
	}

	info, errInfo := l.Fetch(ctx, addr)
	if errInfo != nil {
		return "", errInfo
	}

	return info.Location.CountryCode, nil
}

// Fetch queries the ip info for addr.
func (l *IPInfoLocator) Fetch(ctx context.Context, addr netip.Addr) (*IPInfo, error) {
	endpoint, errURL := url.JoinPath(l.baseURL, addr.String())
	if errURL != nil {
		return nil, errors.Join(errURL, ErrQueryIP)
	}

	return FetchJSON[IPInfo](ctx, l.httpClient, endpoint+"?format=json")
}

// FetchJSON will query a json http service using a generic type for receiving results.
func FetchJSON[T any](ctx context.Context, client HTTPDoer, url string) (*T, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if errReq != nil {
		return nil, errors.Join(errReq, ErrQueryIP)
	}

	resp, errResp := client.Do(req)
	if errResp != nil {
		return nil, errors.Join(errResp, ErrQueryIP)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", slog.String("error", err.Error()))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Join(errors.New(resp.Status), ErrQueryIP)
	}

	info, errInfo := encoding.UnmarshalJSON[T](resp.Body)
	if errInfo != nil {
		return nil, errors.Join(errInfo, ErrQueryIP)
	}

	return &info, nil
}
