package frostbite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"
)

// StatusOK is the status word of a successful response.
const StatusOK = "OK"

var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrConnect           = errors.New("failed to connect to server")
	ErrWrite             = errors.New("failed to write packet")
	ErrCommandFailed     = errors.New("command failed")
	ErrSequenceMismatch  = errors.New("response sequence does not match request")
	ErrEmptyCommand      = errors.New("command has no words")
)

// CommandError is returned when the server answers a command with a status other than OK.
type CommandError struct {
	Command []string
	Status  string
	Words   []string
}

func (e *CommandError) Error() string {
	if len(e.Words) == 0 {
		return fmt.Sprintf("command %q failed: %s", strings.Join(e.Command, " "), e.Status)
	}

	return fmt.Sprintf("command %q failed: %s %q", strings.Join(e.Command, " "), e.Status, e.Words)
}

func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// ClientOpts configures a Client.
type ClientOpts struct {
	// Timeout bounds each call, including the response read. Zero blocks indefinitely.
	Timeout time.Duration
	// MaxPacketSize bounds response sizes. Zero uses DefaultMaxPacketSize.
	MaxPacketSize uint32
}

// Client issues commands over a single connection. Only one command may be in flight at a
// time and a Client must not be used from multiple goroutines.
type Client struct {
	conn     net.Conn
	opts     ClientOpts
	sequence uint32
	address  string
}

// Dial opens a connection to the admin port at address.
func Dial(ctx context.Context, address string, opts ClientOpts) (*Client, error) {
	dialer := net.Dialer{Timeout: opts.Timeout}

	conn, errDial := dialer.DialContext(ctx, "tcp", address)
	if errDial != nil {
		if errors.Is(errDial, syscall.ECONNREFUSED) {
			return nil, errors.Join(errDial, ErrConnectionRefused)
		}

		return nil, errors.Join(errDial, ErrConnect)
	}

	slog.Debug("Connected to server", slog.String("address", address))

	return NewClient(conn, opts), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, opts ClientOpts) *Client {
	if opts.MaxPacketSize == 0 {
		opts.MaxPacketSize = DefaultMaxPacketSize
	}

	address := ""
	if remote := conn.RemoteAddr(); remote != nil {
		address = remote.String()
	}

	return &Client{conn: conn, opts: opts, sequence: 1, address: address}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends one command and waits for its response. A response with a non OK status is
// returned along with a *CommandError.
func (c *Client) Call(ctx context.Context, words ...string) (Packet, error) {
	if err := ctx.Err(); err != nil {
		return Packet{}, err
	}

	if len(words) == 0 {
		return Packet{}, ErrEmptyCommand
	}

	request := Packet{Sequence: c.sequence, Words: words}
	payload, errMarshal := request.MarshalBinary()
	if errMarshal != nil {
		return Packet{}, errMarshal
	}

	if errDeadline := c.conn.SetDeadline(c.deadline(ctx)); errDeadline != nil {
		return Packet{}, errors.Join(errDeadline, ErrWrite)
	}

	if _, errWrite := c.conn.Write(payload); errWrite != nil {
		return Packet{}, errors.Join(errWrite, ErrWrite)
	}

	c.sequence = (c.sequence + 1) & sequenceMask

	raw, errRead := ReadPacket(c.conn, c.opts.MaxPacketSize)
	if errRead != nil {
		return Packet{}, errRead
	}

	response, errDecode := Decode(raw)
	if errDecode != nil {
		return Packet{}, errDecode
	}

	slog.Debug("Received response", slog.String("address", c.address),
		slog.String("command", words[0]), slog.Int("size", len(raw)),
		slog.Int("words", len(response.Words)))

	if response.Sequence != request.Sequence {
		return response, fmt.Errorf("%w: sent %d, got %d", ErrSequenceMismatch, request.Sequence, response.Sequence)
	}

	if response.Status() != StatusOK {
		return response, &CommandError{Command: words, Status: response.Status(), Words: rest(response.Words)}
	}

	return response, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	var deadline time.Time
	if c.opts.Timeout > 0 {
		deadline = time.Now().Add(c.opts.Timeout)
	}

	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}

	return deadline
}

func rest(words []string) []string {
	if len(words) < 2 {
		return nil
	}

	return words[1:]
}
