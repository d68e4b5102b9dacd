package frostbite

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const (
	FieldName   = "name"
	FieldTeamID = "teamId"

	serverInfoFields = 6
)

var (
	ErrUnexpectedStatus   = errors.New("unexpected response status")
	ErrFieldCountMismatch = errors.New("value count is not a multiple of field count")
	ErrMalformedTable     = errors.New("malformed table response")
)

// ServerInfo holds the positional fields of a `serverinfo` response.
type ServerInfo struct {
	Status     string
	Name       string
	Players    int
	MaxPlayers int
	GameMode   string
	Map        string
	// PlayersRaw and MaxPlayersRaw keep the values exactly as reported.
	PlayersRaw    string
	MaxPlayersRaw string
}

// PlayerCount formats the current and max player counts as "players/max".
func (s ServerInfo) PlayerCount() string {
	return s.PlayersRaw + "/" + s.MaxPlayersRaw
}

// Record is a single row of a self describing table. Columns are not known until decode time
// so the values are kept by field name with the column order preserved in Fields.
type Record struct {
	Fields []string
	Values map[string]string
}

// Get returns the value of a field and whether the field is present.
func (r Record) Get(field string) (string, bool) {
	value, found := r.Values[field]

	return value, found
}

func (r Record) Name() string {
	return r.Values[FieldName]
}

func (r Record) TeamID() string {
	return r.Values[FieldTeamID]
}

// DecodeServerInfo reads the positional `serverinfo` response. Extra trailing words are ignored.
func DecodeServerInfo(words []string) (ServerInfo, error) {
	if err := checkStatus(words); err != nil {
		return ServerInfo{}, err
	}

	if len(words) < serverInfoFields {
		return ServerInfo{}, fmt.Errorf("%w: server info has %d words, need %d",
			ErrMalformedTable, len(words), serverInfoFields)
	}

	info := ServerInfo{
		Status:        words[0],
		Name:          words[1],
		PlayersRaw:    words[2],
		MaxPlayersRaw: words[3],
		GameMode:      words[4],
		Map:           words[5],
	}

	// Counts are informational, a server reporting garbage should still be displayed.
	info.Players, _ = strconv.Atoi(words[2])
	info.MaxPlayers, _ = strconv.Atoi(words[3])

	return info, nil
}

// DecodeTable reads a self describing table: status, field count n, n field names, a row
// count and then the flattened rows, n values each.
func DecodeTable(words []string) ([]Record, error) {
	if err := checkStatus(words); err != nil {
		return nil, err
	}

	if len(words) < 2 {
		return nil, fmt.Errorf("%w: missing field count", ErrMalformedTable)
	}

	fieldCount, errCount := strconv.Atoi(words[1])
	if errCount != nil || fieldCount < 0 {
		return nil, errors.Join(errCount, fmt.Errorf("%w: invalid field count %q", ErrMalformedTable, words[1]))
	}

	// status, field count, field names, row count
	if fieldCount > len(words)-3 {
		return nil, fmt.Errorf("%w: %d fields declared, only %d words", ErrMalformedTable, fieldCount, len(words))
	}

	headerLen := 2 + fieldCount + 1
	if len(words) < headerLen {
		return nil, fmt.Errorf("%w: header wants %d words, got %d", ErrMalformedTable, headerLen, len(words))
	}

	fields := words[2 : 2+fieldCount]
	values := words[headerLen:]

	if len(values) == 0 {
		return []Record{}, nil
	}

	if fieldCount == 0 || len(values)%fieldCount != 0 {
		return nil, fmt.Errorf("%w: %d values for %d fields", ErrFieldCountMismatch, len(values), fieldCount)
	}

	records := make([]Record, 0, len(values)/fieldCount)
	for offset := 0; offset < len(values); offset += fieldCount {
		record := Record{Fields: fields, Values: make(map[string]string, fieldCount)}
		for idx, field := range fields {
			record.Values[field] = values[offset+idx]
		}

		records = append(records, record)
	}

	return records, nil
}

func checkStatus(words []string) error {
	if len(words) == 0 {
		return fmt.Errorf("%w: empty response", ErrUnexpectedStatus)
	}

	if words[0] != StatusOK {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, words[0])
	}

	return nil
}

// ServerInfo queries the current server state.
func (c *Client) ServerInfo(ctx context.Context) (ServerInfo, error) {
	response, errCall := c.Call(ctx, "serverinfo")
	if errCall != nil {
		return ServerInfo{}, errCall
	}

	return DecodeServerInfo(response.Words)
}

// Players queries the full roster of connected players.
func (c *Client) Players(ctx context.Context) ([]Record, error) {
	response, errCall := c.Call(ctx, "listPlayers", "all")
	if errCall != nil {
		return nil, errCall
	}

	return DecodeTable(response.Words)
}
