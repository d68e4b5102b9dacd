package web_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leighmacdonald/bf4-status/internal/bf4db"
	"github.com/leighmacdonald/bf4-status/internal/frostbite"
	"github.com/leighmacdonald/bf4-status/internal/roster"
	"github.com/leighmacdonald/bf4-status/internal/status"
	"github.com/leighmacdonald/bf4-status/internal/web"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, server *web.Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	request.Header.Set("Origin", "http://other.test")
	server.Handler().ServeHTTP(recorder, request)

	return recorder
}

func testReport() status.Report {
	score := 11

	return status.Report{
		Address:     "10.0.0.5:47200",
		Server:      frostbite.ServerInfo{Name: "Test Server", Map: "MP_Siege", GameMode: "ConquestLarge0"},
		MapName:     "Siege of Shanghai",
		ModeName:    "Conquest Large",
		PlayerCount: "1/64",
		Teams: []roster.Team{{ID: "1", Players: []roster.Player{{
			Record: frostbite.Record{
				Fields: []string{frostbite.FieldName, frostbite.FieldTeamID},
				Values: map[string]string{frostbite.FieldName: "alice", frostbite.FieldTeamID: "1"},
			},
			Result: &bf4db.Result{CheatScore: &score, PersonaID: "7"},
		}}}},
		EnrichmentAvailable: true,
		UpdatedAt:           time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStatusUnavailable(t *testing.T) {
	server := web.NewServer("", false)

	recorder := get(t, server, "/api/status")
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	server.Failed(errors.New("connection refused"))
	recorder = get(t, server, "/api/status")
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	require.Contains(t, recorder.Body.String(), "connection refused")

	require.Equal(t, http.StatusServiceUnavailable, get(t, server, "/").Code)
}

func TestStatus(t *testing.T) {
	server := web.NewServer("", false)
	server.Update(testReport())

	recorder := get(t, server, "/api/status")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))

	var body struct {
		Name    string `json:"name"`
		Map     string `json:"map"`
		MapCode string `json:"map_code"`
		Players string `json:"players"`
		Summary string `json:"summary"`
		Teams   []struct {
			ID      string `json:"id"`
			Players []struct {
				Name         string `json:"name"`
				Score        string `json:"score"`
				CheatScore   *int   `json:"cheat_score"`
				Flagged      bool   `json:"flagged"`
				BattlelogURL string `json:"battlelog_url"`
			} `json:"players"`
		} `json:"teams"`
		LastError string `json:"last_error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "Test Server", body.Name)
	require.Equal(t, "Siege of Shanghai", body.Map)
	require.Equal(t, "MP_Siege", body.MapCode)
	require.Equal(t, "1/64", body.Players)
	require.Equal(t, "1 player on Siege of Shanghai Conquest Large", body.Summary)
	require.Len(t, body.Teams, 1)
	require.Equal(t, "alice", body.Teams[0].Players[0].Name)
	require.Equal(t, "11", body.Teams[0].Players[0].Score)
	require.Equal(t, 11, *body.Teams[0].Players[0].CheatScore)
	require.True(t, body.Teams[0].Players[0].Flagged)
	require.Contains(t, body.Teams[0].Players[0].BattlelogURL, "/soldier/alice/stats/7/pc/")
	require.Empty(t, body.LastError)

	server.Failed(errors.New("timeout"))
	recorder = get(t, server, "/api/status")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"last_error":"timeout"`)

	plain := get(t, server, "/")
	require.Equal(t, http.StatusOK, plain.Code)
	require.Contains(t, plain.Body.String(), "alice\t11")
}

func TestPing(t *testing.T) {
	recorder := get(t, web.NewServer("", false), "/api/ping")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}
