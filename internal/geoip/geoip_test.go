package geoip_test

import (
	"path/filepath"
	"testing"

	"github.com/leighmacdonald/bf4-status/internal/geoip"
	"github.com/leighmacdonald/bf4-status/internal/status"
	"github.com/stretchr/testify/require"
)

// testdata/test-country.mmdb is an ipv4 database holding 10.0.0.0/8 (AU) and 81.2.69.0/24 (GB).
func openTestDB(t *testing.T) *geoip.Locator {
	t.Helper()

	locator, err := geoip.Open(filepath.Join("testdata", "test-country.mmdb"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, locator.Close())
	})

	return locator
}

func TestOpenMissing(t *testing.T) {
	_, err := geoip.Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	require.ErrorIs(t, err, geoip.ErrOpen)
}

func TestLookup(t *testing.T) {
	locator := openTestDB(t)

	record, err := locator.Lookup("81.2.69.160")
	require.NoError(t, err)
	require.Equal(t, "GB", record.Country.ISOCode)
	require.Equal(t, "United Kingdom", record.Country.Names["en"])

	_, errV6 := locator.Lookup("2001:db8::1")
	require.ErrorIs(t, errV6, geoip.ErrLookup)
}

func TestCountry(t *testing.T) {
	var locator status.Locator = openTestDB(t)

	country, err := locator.Country("10.1.2.3")
	require.NoError(t, err)
	require.Equal(t, "AU", country)

	mapped, errMapped := locator.Country("::ffff:81.2.69.1")
	require.NoError(t, errMapped)
	require.Equal(t, "GB", mapped)

	unknown, errUnknown := locator.Country("192.0.2.1")
	require.NoError(t, errUnknown)
	require.Empty(t, unknown)
}
