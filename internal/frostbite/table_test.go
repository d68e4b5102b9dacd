package frostbite_test

import (
	"testing"

	"github.com/leighmacdonald/bf4-status/internal/frostbite"
	"github.com/stretchr/testify/require"
)

func TestDecodeTable(t *testing.T) {
	records, err := frostbite.DecodeTable([]string{"OK", "2", "name", "teamId", "2", "alice", "1", "bob", "2"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, map[string]string{"name": "alice", "teamId": "1"}, records[0].Values)
	require.Equal(t, map[string]string{"name": "bob", "teamId": "2"}, records[1].Values)
	require.Equal(t, []string{"name", "teamId"}, records[0].Fields)
	require.Equal(t, "bob", records[1].Name())
	require.Equal(t, "2", records[1].TeamID())
}

func TestDecodeTablePassThrough(t *testing.T) {
	records, err := frostbite.DecodeTable([]string{
		"OK", "4", "name", "teamId", "kills", "deaths", "1", "alice", "1", "10", "2",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	kills, found := records[0].Get("kills")
	require.True(t, found)
	require.Equal(t, "10", kills)

	_, found = records[0].Get("squadId")
	require.False(t, found)
}

func TestDecodeTableEmpty(t *testing.T) {
	records, err := frostbite.DecodeTable([]string{"OK", "2", "name", "teamId", "0"})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestDecodeTableRowCountIgnored(t *testing.T) {
	// The row count is informational only.
	records, err := frostbite.DecodeTable([]string{"OK", "1", "name", "5", "alice", "bob"})
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestDecodeTableErrors(t *testing.T) {
	cases := []struct {
		name  string
		words []string
		err   error
	}{
		{name: "ragged rows", words: []string{"OK", "2", "name", "teamId", "2", "alice", "1", "bob"}, err: frostbite.ErrFieldCountMismatch},
		{name: "zero fields", words: []string{"OK", "0", "1", "alice"}, err: frostbite.ErrFieldCountMismatch},
		{name: "bad status", words: []string{"InvalidArguments"}, err: frostbite.ErrUnexpectedStatus},
		{name: "no words", words: []string{}, err: frostbite.ErrUnexpectedStatus},
		{name: "bad field count", words: []string{"OK", "two", "name"}, err: frostbite.ErrMalformedTable},
		{name: "negative field count", words: []string{"OK", "-1"}, err: frostbite.ErrMalformedTable},
		{name: "short header", words: []string{"OK", "3", "name", "teamId"}, err: frostbite.ErrMalformedTable},
		{name: "missing field count", words: []string{"OK"}, err: frostbite.ErrMalformedTable},
		{name: "huge field count", words: []string{"OK", "9223372036854775807", "name"}, err: frostbite.ErrMalformedTable},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			var (
				records []frostbite.Record
				err     error
			)
			require.NotPanics(t, func() {
				records, err = frostbite.DecodeTable(testCase.words)
			})
			require.ErrorIs(t, err, testCase.err)
			require.Nil(t, records)
		})
	}
}

func TestDecodeServerInfo(t *testing.T) {
	info, err := frostbite.DecodeServerInfo([]string{
		"OK", "My Server", "12", "64", "ConquestLarge0", "MP_Siege", "2", "2", "0", "0", "extra",
	})
	require.NoError(t, err)
	require.Equal(t, "My Server", info.Name)
	require.Equal(t, 12, info.Players)
	require.Equal(t, 64, info.MaxPlayers)
	require.Equal(t, "ConquestLarge0", info.GameMode)
	require.Equal(t, "MP_Siege", info.Map)
	require.Equal(t, "12/64", info.PlayerCount())

	_, errStatus := frostbite.DecodeServerInfo([]string{"LogInRequired"})
	require.ErrorIs(t, errStatus, frostbite.ErrUnexpectedStatus)

	_, errShort := frostbite.DecodeServerInfo([]string{"OK", "My Server", "12"})
	require.ErrorIs(t, errShort, frostbite.ErrMalformedTable)
}
