// Package frostbite implements a client for the Frostbite remote administration protocol used
// by Battlefield 4 servers.
package frostbite

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed size of a packet header: sequence, total size, word count.
	HeaderSize = 12
	// DefaultPort is the default admin port of a game server.
	DefaultPort = 47200

	flagFromServer uint32 = 1 << 31
	flagResponse   uint32 = 1 << 30
	sequenceMask   uint32 = flagResponse - 1
)

var (
	ErrMalformedHeader = errors.New("malformed packet header")
	ErrTruncatedWord   = errors.New("truncated packet word")
	ErrEmbeddedNull    = errors.New("word contains null byte")
)

// Header holds the decoded fixed size fields of a packet.
type Header struct {
	Sequence     uint32
	IsFromServer bool
	IsResponse   bool
	WordCount    uint32
	TotalSize    uint32
}

// Packet is one protocol message. Size is always derived from the words.
type Packet struct {
	// Sequence holds only the 30 bit counter, flags are tracked separately.
	Sequence     uint32
	IsFromServer bool
	IsResponse   bool
	Words        []string
}

// Size returns the exact encoded length of the packet.
func (p Packet) Size() int {
	return encodedSize(p.Words)
}

// Status returns the first word of the packet, which is the status code of a response.
func (p Packet) Status() string {
	if len(p.Words) == 0 {
		return ""
	}

	return p.Words[0]
}

// MarshalBinary encodes the packet, rejecting words that the wire format can not represent.
func (p Packet) MarshalBinary() ([]byte, error) {
	for _, word := range p.Words {
		if bytes.IndexByte([]byte(word), 0) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmbeddedNull, word)
		}
	}

	return Encode(p.Sequence, p.IsFromServer, p.IsResponse, p.Words), nil
}

func (p Packet) String() string {
	return fmt.Sprintf("#%d response=%t server=%t %q", p.Sequence, p.IsResponse, p.IsFromServer, p.Words)
}

func encodedSize(words []string) int {
	size := HeaderSize
	for _, word := range words {
		size += 4 + len(word) + 1
	}

	return size
}

// Encode packs a packet into its wire representation. Words must not contain a null byte.
func Encode(sequence uint32, isFromServer bool, isResponse bool, words []string) []byte {
	header := sequence & sequenceMask
	if isFromServer {
		header |= flagFromServer
	}
	if isResponse {
		header |= flagResponse
	}

	buf := make([]byte, encodedSize(words))
	binary.LittleEndian.PutUint32(buf[0:4], header)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))    //nolint:gosec
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(words))) //nolint:gosec

	offset := HeaderSize
	for _, word := range words {
		binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(len(word)+1)) //nolint:gosec
		offset += 4
		offset += copy(buf[offset:], word)
		buf[offset] = 0
		offset++
	}

	return buf
}

// DecodeHeader reads the fixed size header from the start of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, need %d", ErrMalformedHeader, len(buf), HeaderSize)
	}

	sequence := binary.LittleEndian.Uint32(buf[0:4])

	return Header{
		Sequence:     sequence & sequenceMask,
		IsFromServer: sequence&flagFromServer != 0,
		IsResponse:   sequence&flagResponse != 0,
		TotalSize:    binary.LittleEndian.Uint32(buf[4:8]),
		WordCount:    binary.LittleEndian.Uint32(buf[8:12]),
	}, nil
}

// DecodeWords walks the words following the header. The header's total size must match the
// number of bytes consumed by exactly wordCount words.
func DecodeWords(buf []byte, wordCount uint32) ([]string, error) {
	header, errHeader := DecodeHeader(buf)
	if errHeader != nil {
		return nil, errHeader
	}

	end := len(buf)
	if header.TotalSize < uint32(end) { //nolint:gosec
		end = int(header.TotalSize)
	}
	if end < HeaderSize {
		return nil, fmt.Errorf("%w: total size %d smaller than header", ErrMalformedHeader, header.TotalSize)
	}

	var (
		words  = make([]string, 0, min(wordCount, 256))
		offset = HeaderSize
	)

	for offset < end {
		if offset+4 > len(buf) {
			return nil, fmt.Errorf("%w: length prefix at offset %d", ErrTruncatedWord, offset)
		}

		length := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
		offset += 4
		if length < 1 {
			return nil, fmt.Errorf("%w: zero length word at offset %d", ErrMalformedHeader, offset-4)
		}

		if offset+length > len(buf) {
			return nil, fmt.Errorf("%w: word %d wants %d bytes, %d available",
				ErrTruncatedWord, len(words), length, len(buf)-offset)
		}

		if buf[offset+length-1] != 0 {
			return nil, fmt.Errorf("%w: word %d missing terminator", ErrMalformedHeader, len(words))
		}

		words = append(words, string(buf[offset:offset+length-1]))
		offset += length
	}

	if offset != int(header.TotalSize) {
		if offset >= len(buf) && uint32(len(words)) < wordCount { //nolint:gosec
			return nil, fmt.Errorf("%w: buffer ends after %d of %d words", ErrTruncatedWord, len(words), wordCount)
		}

		return nil, fmt.Errorf("%w: consumed %d bytes, header declares %d", ErrMalformedHeader, offset, header.TotalSize)
	}

	if uint32(len(words)) != wordCount { //nolint:gosec
		return nil, fmt.Errorf("%w: found %d words, header declares %d", ErrMalformedHeader, len(words), wordCount)
	}

	return words, nil
}

// Decode parses a complete packet from buf.
func Decode(buf []byte) (Packet, error) {
	header, errHeader := DecodeHeader(buf)
	if errHeader != nil {
		return Packet{}, errHeader
	}

	words, errWords := DecodeWords(buf, header.WordCount)
	if errWords != nil {
		return Packet{}, errWords
	}

	return Packet{
		Sequence:     header.Sequence,
		IsFromServer: header.IsFromServer,
		IsResponse:   header.IsResponse,
		Words:        words,
	}, nil
}
