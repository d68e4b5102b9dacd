package frostbite

import (
	"errors"
	"fmt"
	"io"
)

// DefaultMaxPacketSize bounds the memory a single response may claim.
const DefaultMaxPacketSize = 64 * 1024

var (
	ErrConnectionClosed = errors.New("connection closed before packet was complete")
	ErrPacketTooLarge   = errors.New("packet exceeds maximum size")
	ErrRead             = errors.New("failed to read packet")
)

// ReadPacket accumulates bytes from reader until one complete packet, as declared by its own
// header, is available. Any read chunking is supported. A maxSize of 0 disables the size bound.
func ReadPacket(reader io.Reader, maxSize uint32) ([]byte, error) {
	buf := make([]byte, HeaderSize)
	if err := fill(reader, buf); err != nil {
		return nil, err
	}

	header, errHeader := DecodeHeader(buf)
	if errHeader != nil {
		return nil, errHeader
	}

	if header.TotalSize < HeaderSize {
		return nil, fmt.Errorf("%w: total size %d", ErrMalformedHeader, header.TotalSize)
	}

	if maxSize > 0 && header.TotalSize > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPacketTooLarge, header.TotalSize, maxSize)
	}

	packet := make([]byte, header.TotalSize)
	copy(packet, buf)

	if err := fill(reader, packet[HeaderSize:]); err != nil {
		return nil, err
	}

	return packet, nil
}

// fill reads until buf is full. Unlike io.ReadFull a short stream is always reported as
// ErrConnectionClosed so callers have a single condition to check.
func fill(reader io.Reader, buf []byte) error {
	read := 0
	for read < len(buf) {
		count, err := reader.Read(buf[read:])
		read += count
		if read == len(buf) {
			return nil
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: got %d of %d bytes", ErrConnectionClosed, read, len(buf))
			}

			return errors.Join(err, ErrRead)
		}

		if count == 0 {
			return fmt.Errorf("%w: empty read after %d of %d bytes", ErrConnectionClosed, read, len(buf))
		}
	}

	return nil
}
