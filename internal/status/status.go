// Package status collects a complete server status report: server info and roster over the
// admin protocol, player reputation lookups and the merged, ordered teams.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/leighmacdonald/bf4-status/internal/bf4db"
	"github.com/leighmacdonald/bf4-status/internal/config"
	"github.com/leighmacdonald/bf4-status/internal/frostbite"
	"github.com/leighmacdonald/bf4-status/internal/roster"
)

const battlelogURL = "https://battlelog.battlefield.com/bf4/soldier/%s/stats/%s/pc/"

var ErrCollect = errors.New("failed to collect server status")

// Querier is the subset of the admin client used to build a report.
type Querier interface {
	ServerInfo(ctx context.Context) (frostbite.ServerInfo, error)
	Players(ctx context.Context) ([]frostbite.Record, error)
	Close() error
}

// Dialer opens a Querier connected to address.
type Dialer func(ctx context.Context, address string, opts frostbite.ClientOpts) (Querier, error)

// Lookup fetches reputation data for a batch of player names.
type Lookup interface {
	LookupAll(ctx context.Context, names []string) (map[string]bf4db.Result, error)
}

// Locator resolves the region of a host. Optional.
type Locator interface {
	Country(host string) (string, error)
}

// DialFrostbite is the default Dialer.
func DialFrostbite(ctx context.Context, address string, opts frostbite.ClientOpts) (Querier, error) {
	client, err := frostbite.Dial(ctx, address, opts)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Report is the output of a single collection run.
type Report struct {
	Address     string
	Server      frostbite.ServerInfo
	MapName     string
	ModeName    string
	PlayerCount string
	Region      string
	Teams       []roster.Team
	// EnrichmentAvailable is false when the lookup batch degraded. All scores are then unknown.
	EnrichmentAvailable bool
	UpdatedAt           time.Time
}

// PlayerTotal returns the number of players across all teams.
func (r Report) PlayerTotal() int {
	total := 0
	for _, team := range r.Teams {
		total += len(team.Players)
	}

	return total
}

// BattlelogURL links to a soldier's stats page.
func BattlelogURL(player roster.Player) string {
	personaID := ""
	if player.Result != nil {
		personaID = player.Result.PersonaID
	}

	return fmt.Sprintf(battlelogURL, url.PathEscape(player.Name()), url.PathEscape(personaID))
}

// NewCollector creates a collector. locator may be nil.
func NewCollector(conf config.Config, dial Dialer, lookup Lookup, locator Locator) (*Collector, error) {
	sortKey, errSortKey := roster.SortKeyByName(conf.SortStrategy)
	if errSortKey != nil {
		return nil, errors.Join(errSortKey, ErrCollect)
	}

	return &Collector{conf: conf, dial: dial, lookup: lookup, locator: locator, sortKey: sortKey}, nil
}

// Collector runs collections. Runs are sequential, a Collector must not be shared between
// goroutines.
type Collector struct {
	conf    config.Config
	dial    Dialer
	lookup  Lookup
	locator Locator
	sortKey roster.SortKey
}

// Collect performs one run. Protocol and transport failures abort the run, lookup failures
// only mark enrichment as unavailable.
func (c *Collector) Collect(ctx context.Context) (Report, error) {
	address := c.conf.ServerAddress()

	info, players, errQuery := c.query(ctx, address)
	if errQuery != nil {
		return Report{}, errors.Join(errQuery, ErrCollect)
	}

	slog.Debug("Server info", slog.String("name", info.Name),
		slog.String("players", info.PlayersRaw), slog.String("max_players", info.MaxPlayersRaw),
		slog.String("mode", info.GameMode), slog.String("map", info.Map))

	names := make([]string, 0, len(players))
	for _, player := range players {
		names = append(names, player.Name())
	}

	report := Report{
		Address:             address,
		Server:              info,
		MapName:             c.conf.MapNames.Resolve(info.Map),
		ModeName:            c.conf.ModeNames.Resolve(info.GameMode),
		PlayerCount:         info.PlayerCount(),
		EnrichmentAvailable: true,
	}

	results := map[string]bf4db.Result{}
	if len(names) > 0 {
		lookedUp, errLookup := c.lookup.LookupAll(ctx, names)
		if errLookup != nil {
			slog.Warn("Player lookups unavailable", slog.String("error", errLookup.Error()))
			report.EnrichmentAvailable = false
		}

		results = lookedUp
	}

	report.Teams = roster.Merge(players, results, c.sortKey)
	report.Region = c.region(address)
	report.UpdatedAt = time.Now().UTC()

	return report, nil
}

// query runs the two commands in order over a single connection.
func (c *Collector) query(ctx context.Context, address string) (frostbite.ServerInfo, []frostbite.Record, error) {
	client, errDial := c.dial(ctx, address, c.conf.ClientOpts())
	if errDial != nil {
		return frostbite.ServerInfo{}, nil, errDial
	}

	defer func() {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close server connection", slog.String("error", err.Error()))
		}
	}()

	info, errInfo := client.ServerInfo(ctx)
	if errInfo != nil {
		return frostbite.ServerInfo{}, nil, errInfo
	}

	players, errPlayers := client.Players(ctx)
	if errPlayers != nil {
		return frostbite.ServerInfo{}, nil, errPlayers
	}

	return info, players, nil
}

func (c *Collector) region(address string) string {
	if c.locator == nil {
		return ""
	}

	host, _, errSplit := net.SplitHostPort(address)
	if errSplit != nil {
		host = address
	}

	country, errCountry := c.locator.Country(host)
	if errCountry != nil {
		slog.Debug("Failed to resolve server region", slog.String("error", errCountry.Error()))

		return ""
	}

	return country
}
