// Package bf4db looks up player reputation data from the bf4db.com player API.
package bf4db

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/leighmacdonald/bf4-status/internal/network/encoding"
	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "http://api.bf4db.com/api-player.php"
	DefaultProfileURL = "https://bf4db.com/player/search?name=%s"
	DefaultTimeout    = 15 * time.Second
	DefaultDelay      = 500 * time.Millisecond
)

var (
	ErrLookupFailed = errors.New("player lookup failed")
	ErrDegraded     = errors.New("lookups degraded, enrichment unavailable")
)

// HTTPDoer defines a common interface for HTTP clients.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Result is the reputation data for a single player. A nil CheatScore means the service
// knows the player but has no score.
type Result struct {
	CheatScore *int   `json:"cheat_score"`
	PersonaID  string `json:"persona_id"`
	ProfileURL string `json:"profile_url"`
}

// Score returns the cheat score formatted for display, or unknown when there is none.
func (r Result) Score(unknown string) string {
	if r.CheatScore == nil {
		return unknown
	}

	return strconv.Itoa(*r.CheatScore)
}

type playerResponse struct {
	Data *struct {
		CheatScore *int      `json:"cheatscore"`
		PersonaID  personaID `json:"personaId"`
		URL        string    `json:"bf4db_url"`
	} `json:"data"`
}

// personaID accepts both the quoted and bare numeric forms the api has been seen returning.
type personaID string

func (p *personaID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err == nil {
		*p = personaID(value)

		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}

	*p = personaID(number.String())

	return nil
}

// Opts configures a Client.
type Opts struct {
	BaseURL string
	// ProfileURL is a fmt template receiving the escaped player name. Used when the api
	// response does not include a profile link.
	ProfileURL string
	// Timeout bounds a single lookup request.
	Timeout time.Duration
	// Delay is the minimum spacing between lookups in a batch.
	Delay time.Duration
	Retry RetryPolicy
}

// New creates a new lookup client.
func New(httpClient HTTPDoer, opts Opts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.ProfileURL == "" {
		opts.ProfileURL = DefaultProfileURL
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Client{httpClient: httpClient, opts: opts}
}

// Client performs player lookups, one at a time.
type Client struct {
	httpClient HTTPDoer
	opts       Opts
}

// Lookup fetches the reputation data for a single player name.
func (c *Client) Lookup(ctx context.Context, name string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, errReq := c.newLookupRequest(ctx, name)
	if errReq != nil {
		return Result{}, errors.Join(errReq, ErrLookupFailed)
	}

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return Result{}, errors.Join(errResp, ErrLookupFailed)
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			slog.Error("Failed to close response body", slog.String("error", err.Error()))
		}
	}(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Result{}, fmt.Errorf("%w: unexpected status code %d", ErrLookupFailed, resp.StatusCode)
	}

	player, errDecode := encoding.UnmarshalJSON[playerResponse](resp.Body)
	if errDecode != nil {
		return Result{}, errors.Join(errDecode, ErrLookupFailed)
	}

	if player.Data == nil {
		return Result{}, fmt.Errorf("%w: response has no data", ErrLookupFailed)
	}

	result := Result{
		CheatScore: player.Data.CheatScore,
		PersonaID:  string(player.Data.PersonaID),
		ProfileURL: player.Data.URL,
	}

	if result.ProfileURL == "" {
		result.ProfileURL = fmt.Sprintf(c.opts.ProfileURL, url.QueryEscape(name))
	}

	return result, nil
}

// newLookupRequest builds `<base>?format=json&name=<name>`, keeping any query already present
// on the base url. The name is form styled and escaped for the query by the runtime encoder.
func (c *Client) newLookupRequest(ctx context.Context, name string) (*http.Request, error) {
	queryURL, errURL := url.Parse(c.opts.BaseURL)
	if errURL != nil {
		return nil, errURL
	}

	queryValues := queryURL.Query()
	queryValues.Set("format", "json")
	queryValues.Del("name")

	queryFrag, errFrag := runtime.StyleParamWithLocation("form", true, "name", runtime.ParamLocationQuery, name)
	if errFrag != nil {
		return nil, errFrag
	}

	queryURL.RawQuery = queryValues.Encode() + "&" + queryFrag

	return http.NewRequestWithContext(ctx, http.MethodGet, queryURL.String(), nil)
}

// LookupAll looks up every name, in case-insensitive alphabetical order, spacing requests by
// the configured delay. The first lookup to fail after its retries stops the batch: nothing
// further is requested and all results are discarded, so an empty map is returned along with
// ErrDegraded.
func (c *Client) LookupAll(ctx context.Context, names []string) (map[string]Result, error) {
	ordered := slices.Clone(names)
	slices.SortFunc(ordered, func(a string, b string) int {
		return cmp.Or(strings.Compare(strings.ToLower(a), strings.ToLower(b)), strings.Compare(a, b))
	})
	ordered = slices.Compact(ordered)

	var (
		results = make(map[string]Result, len(ordered))
		limiter = rate.NewLimiter(rate.Every(c.opts.Delay), 1)
	)

	for _, name := range ordered {
		if errWait := limiter.Wait(ctx); errWait != nil {
			return degrade(name, errWait)
		}

		var result Result
		errLookup := c.opts.Retry.Do(ctx, "bf4db lookup", func(ctx context.Context) error {
			var err error
			result, err = c.Lookup(ctx, name)

			return err
		})
		if errLookup != nil {
			return degrade(name, errLookup)
		}

		slog.Debug("Player lookup", slog.String("name", name),
			slog.String("cheat_score", result.Score("None")), slog.String("persona_id", result.PersonaID))

		results[name] = result
	}

	return results, nil
}

func degrade(name string, err error) (map[string]Result, error) {
	slog.Warn("Player lookups degraded, discarding results", slog.String("name", name),
		slog.String("error", err.Error()))

	return map[string]Result{}, errors.Join(err, ErrDegraded)
}
