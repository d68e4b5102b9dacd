// Package encoding holds helpers shared by the HTTP based lookup clients.
package encoding

import (
	"encoding/json"
	"errors"
	"io"
)

// MaxBodySize caps how much of a response body is decoded. Lookup responses are a few hundred
// bytes, anything larger is treated as a broken upstream.
const MaxBodySize = 1 << 20

var ErrDecodeJSON = errors.New("failed to decode JSON")

// UnmarshalJSON decodes a single JSON document of type T from reader.
func UnmarshalJSON[T any](reader io.Reader) (T, error) {
	var value T
	if err := json.NewDecoder(io.LimitReader(reader, MaxBodySize)).Decode(&value); err != nil {
		return value, errors.Join(err, ErrDecodeJSON)
	}

	return value, nil
}
