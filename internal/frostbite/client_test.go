package frostbite_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/leighmacdonald/bf4-status/internal/frostbite"
	"github.com/stretchr/testify/require"
)

// serve answers each request on conn using the handler until the connection closes.
func serve(t *testing.T, conn net.Conn, handler func(request frostbite.Packet) frostbite.Packet) {
	t.Helper()

	defer conn.Close()

	for {
		raw, err := frostbite.ReadPacket(conn, 0)
		if err != nil {
			return
		}

		request, errDecode := frostbite.Decode(raw)
		if errDecode != nil {
			t.Errorf("failed to decode request: %v", errDecode)

			return
		}

		response := handler(request)
		if _, errWrite := conn.Write(frostbite.Encode(response.Sequence, true, true, response.Words)); errWrite != nil {
			return
		}
	}
}

func gameServer(request frostbite.Packet) frostbite.Packet {
	response := frostbite.Packet{Sequence: request.Sequence}
	switch strings.Join(request.Words, " ") {
	case "serverinfo":
		response.Words = []string{"OK", "Test Server", "1", "64", "ConquestLarge0", "MP_Siege", "0"}
	case "listPlayers all":
		response.Words = []string{"OK", "4", "name", "teamId", "kills", "deaths", "1", "alice", "1", "10", "2"}
	default:
		response.Words = []string{"UnknownCommand"}
	}

	return response
}

func TestClientEndToEnd(t *testing.T) {
	listener, errListen := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, errListen)
	t.Cleanup(func() { _ = listener.Close() })

	requests := make(chan frostbite.Packet, 2)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		serve(t, conn, func(request frostbite.Packet) frostbite.Packet {
			requests <- request

			return gameServer(request)
		})
	}()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	client, errDial := frostbite.Dial(ctx, listener.Addr().String(), frostbite.ClientOpts{Timeout: 5 * time.Second})
	require.NoError(t, errDial)

	info, errInfo := client.ServerInfo(ctx)
	require.NoError(t, errInfo)
	require.Equal(t, "Test Server", info.Name)
	require.Equal(t, "MP_Siege", info.Map)

	players, errPlayers := client.Players(ctx)
	require.NoError(t, errPlayers)
	require.Len(t, players, 1)
	require.Equal(t, "alice", players[0].Name())
	require.Equal(t, "1", players[0].TeamID())

	require.NoError(t, client.Close())

	for _, expected := range []uint32{1, 2} {
		request := <-requests
		require.Equal(t, expected, request.Sequence)
		require.False(t, request.IsResponse)
		require.False(t, request.IsFromServer)
	}
}

func TestClientCommandFailed(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go serve(t, serverConn, gameServer)

	client := frostbite.NewClient(clientConn, frostbite.ClientOpts{Timeout: time.Second})
	defer client.Close()

	response, err := client.Call(t.Context(), "vars.bogus")
	require.ErrorIs(t, err, frostbite.ErrCommandFailed)
	require.Equal(t, "UnknownCommand", response.Status())

	var cmdErr *frostbite.CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, "UnknownCommand", cmdErr.Status)
	require.Equal(t, []string{"vars.bogus"}, cmdErr.Command)
}

func TestClientSequenceMismatch(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go serve(t, serverConn, func(request frostbite.Packet) frostbite.Packet {
		return frostbite.Packet{Sequence: request.Sequence + 5, Words: []string{"OK"}}
	})

	client := frostbite.NewClient(clientConn, frostbite.ClientOpts{Timeout: time.Second})
	defer client.Close()

	_, err := client.Call(t.Context(), "serverinfo")
	require.ErrorIs(t, err, frostbite.ErrSequenceMismatch)
}

func TestClientConnectionClosed(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go func() {
		_, _ = frostbite.ReadPacket(serverConn, 0)
		// Send half a header then hang up.
		_, _ = serverConn.Write([]byte{1, 0, 0, 0xc0, 40})
		_ = serverConn.Close()
	}()

	client := frostbite.NewClient(clientConn, frostbite.ClientOpts{Timeout: time.Second})
	defer client.Close()

	_, err := client.Call(t.Context(), "serverinfo")
	require.ErrorIs(t, err, frostbite.ErrConnectionClosed)
}

func TestClientEmptyCommand(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	client := frostbite.NewClient(clientConn, frostbite.ClientOpts{})
	defer client.Close()

	_, err := client.Call(t.Context())
	require.ErrorIs(t, err, frostbite.ErrEmptyCommand)
}

func TestDialRefused(t *testing.T) {
	listener, errListen := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, errListen)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err := frostbite.Dial(t.Context(), address, frostbite.ClientOpts{Timeout: time.Second})
	require.ErrorIs(t, err, frostbite.ErrConnectionRefused)
}
