// Package roster joins the player list with lookup results and orders it for display.
package roster

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/leighmacdonald/bf4-status/internal/bf4db"
	"github.com/leighmacdonald/bf4-status/internal/frostbite"
)

// UnknownScore stands in for a missing or null cheat score when building sort keys and
// display values.
const UnknownScore = "None"

// FlaggedScore is the cheat score at which a player is highlighted.
const FlaggedScore = 10

// Player is a roster record with its lookup result, if one was found.
type Player struct {
	Record frostbite.Record
	Result *bf4db.Result
}

func (p Player) Name() string {
	return p.Record.Name()
}

// Score returns the display score, UnknownScore when absent or null.
func (p Player) Score() string {
	if p.Result == nil {
		return UnknownScore
	}

	return p.Result.Score(UnknownScore)
}

// Flagged reports whether the known cheat score reaches FlaggedScore.
func (p Player) Flagged() bool {
	return p.Result != nil && p.Result.CheatScore != nil && *p.Result.CheatScore >= FlaggedScore
}

// Team is one team bucket in display order.
type Team struct {
	ID      string
	Players []Player
}

// SortKey orders players within a team.
type SortKey func(a Player, b Player) int

// LexicalScoreKey compares "<score><lowercase name>" as plain strings. Scores are therefore
// not numeric, "9" sorts after "10".
func LexicalScoreKey(a Player, b Player) int {
	return strings.Compare(lexicalKey(a), lexicalKey(b))
}

func lexicalKey(p Player) string {
	return p.Score() + strings.ToLower(p.Name())
}

// NumericScoreKey compares scores numerically, unknown scores last, then lowercase names.
func NumericScoreKey(a Player, b Player) int {
	scoreA, knownA := numericScore(a)
	scoreB, knownB := numericScore(b)

	switch {
	case knownA && !knownB:
		return -1
	case !knownA && knownB:
		return 1
	}

	return cmp.Or(cmp.Compare(scoreA, scoreB), strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name())))
}

func numericScore(p Player) (int, bool) {
	if p.Result == nil || p.Result.CheatScore == nil {
		return 0, false
	}

	return *p.Result.CheatScore, true
}

// SortKeyByName resolves a configured strategy name.
func SortKeyByName(name string) (SortKey, error) {
	switch strings.ToLower(name) {
	case "", "lexical":
		return LexicalScoreKey, nil
	case "numeric":
		return NumericScoreKey, nil
	default:
		return nil, fmt.Errorf("unknown sort strategy %q", name)
	}
}

// Merge groups records by team id and orders each team by key. Integer team ids come first in
// numeric order, any other ids follow in string order. Unrecognized team ids get their own bucket.
func Merge(records []frostbite.Record, results map[string]bf4db.Result, key SortKey) []Team {
	if key == nil {
		key = LexicalScoreKey
	}

	buckets := map[string][]Player{}
	for _, record := range records {
		player := Player{Record: record}
		if result, found := results[record.Name()]; found {
			player.Result = &result
		}

		buckets[record.TeamID()] = append(buckets[record.TeamID()], player)
	}

	teamIDs := slices.SortedFunc(maps.Keys(buckets), compareTeamID)

	teams := make([]Team, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		players := buckets[teamID]
		slices.SortStableFunc(players, key)
		teams = append(teams, Team{ID: teamID, Players: players})
	}

	return teams
}

func compareTeamID(a string, b string) int {
	numA, errA := strconv.Atoi(a)
	numB, errB := strconv.Atoi(b)

	switch {
	case errA == nil && errB == nil:
		return cmp.Or(cmp.Compare(numA, numB), strings.Compare(a, b))
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
