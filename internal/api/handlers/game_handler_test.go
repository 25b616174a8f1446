package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// startSessionManager は結果を保存しない SessionManager を起動します。
func startSessionManager(t *testing.T) *tetris.SessionManager {
	t.Helper()
	sm := tetris.NewSessionManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go sm.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-sm.Done()
	})
	return sm
}

func TestListGames(t *testing.T) {
	sm := startSessionManager(t)
	h := NewGameHandler(sm, nil)

	created, err := sm.CreateSession("alice", tetris.DefaultGameConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ListGames(rec, httptest.NewRequest(http.MethodGet, "/api/games", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Games []tetris.GameSummary `json:"games"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Games, 1)
	assert.Equal(t, created.GameID, body.Games[0].GameID)
	assert.Equal(t, "alice", body.Games[0].UserID)
}

func TestGetGame(t *testing.T) {
	sm := startSessionManager(t)
	h := NewGameHandler(sm, nil)

	created, err := sm.CreateSession("alice", tetris.DefaultGameConfig())
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/games/"+created.GameID, nil), map[string]string{"gameID": created.GameID})
		rec := httptest.NewRecorder()
		h.GetGame(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var state tetris.LightweightPlayerState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
		assert.Equal(t, created.GameID, state.GameID)
		assert.Equal(t, created.Snapshot.Width, state.Snapshot.Width)
		assert.Len(t, state.Snapshot.Cells, len(created.Snapshot.Cells))
	})

	t.Run("not found", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/games/nope", nil), map[string]string{"gameID": "nope"})
		rec := httptest.NewRecorder()
		h.GetGame(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSpectate_UnknownGame(t *testing.T) {
	sm := startSessionManager(t)
	h := NewGameHandler(sm, nil)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/ws/games/nope", nil), map[string]string{"gameID": "nope"})
	rec := httptest.NewRecorder()
	h.Spectate(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/games/x", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	anyOrigin := originChecker(nil)
	assert.True(t, anyOrigin(request("https://evil.example")))

	wildcard := originChecker([]string{"https://a.example", "*"})
	assert.True(t, wildcard(request("https://evil.example")))

	restricted := originChecker([]string{"https://a.example"})
	assert.True(t, restricted(request("https://a.example")))
	assert.False(t, restricted(request("https://evil.example")))
	assert.True(t, restricted(request("")))
}
