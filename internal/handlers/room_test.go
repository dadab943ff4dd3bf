// internal/handlers/room_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yellowcard/yellowcard/internal/auth"
	"github.com/yellowcard/yellowcard/internal/catalogue"
	"github.com/yellowcard/yellowcard/internal/game"
	"github.com/yellowcard/yellowcard/internal/models"
)

func TestMain(m *testing.M) {
	// ephemeral keys, tokens never expire
	if err := auth.Init("never"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestServer() *GameServer {
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))
	store := game.NewStore(catalogue.Synthetic(60, 400, 2), game.DefaultRules())
	return NewGameServer(store, logger, nil)
}

func newGuestToken(t *testing.T, name string) (models.User, string) {
	t.Helper()
	user, token, err := auth.NewGuest(name)
	require.NoError(t, err)
	return user, token
}

// TestGuest checks that /auth/guest issues a usable session.
func TestGuest(t *testing.T) {
	req := httptest.NewRequest("POST", "/auth/guest", bytes.NewBufferString(`{"username":"  ada  "}`))
	w := httptest.NewRecorder()
	GuestHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
		Token    string    `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ada", resp.Username)

	user, err := auth.AuthenticateJWT(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, user.ID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookieName, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)

	req = httptest.NewRequest("GET", "/auth/guest", nil)
	w = httptest.NewRecorder()
	GuestHandler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// TestCreateRoom checks that /room/create opens a game with the caller as starter.
func TestCreateRoom(t *testing.T) {
	gs := newTestServer()
	host, token := newGuestToken(t, "host")

	body := `{"roomId":"table-1","rules":{"handSize":10,"maxDiscard":1}}`
	req := httptest.NewRequest("POST", "/room/create", bytes.NewBufferString(body))
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()
	CreateRoomHandler(gs).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var summary roomSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "table-1", summary.RoomID)
	assert.Equal(t, 10, summary.Rules.HandSize)
	assert.Equal(t, 1, summary.Rules.MaxDiscard)
	assert.Zero(t, summary.Players)
	assert.Equal(t, game.PhaseStart, summary.Phase, "phases decode from their names")

	g, err := gs.Store.Current("table-1")
	require.NoError(t, err)
	assert.Equal(t, host.ID, g.StarterID)
	assert.Equal(t, summary.GameID, g.ID)
	assert.NotNil(t, g.BroadcastFn, "games from the store get hub callbacks")
}

func TestCreateRoomRejects(t *testing.T) {
	gs := newTestServer()
	_, token := newGuestToken(t, "host")

	cases := map[string]struct {
		body   string
		auth   bool
		status int
	}{
		"no session":      {body: `{}`, auth: false, status: http.StatusForbidden},
		"bad json":        {body: `{"roomId":`, auth: true, status: http.StatusBadRequest},
		"bad room id":     {body: `{"roomId":"no spaces"}`, auth: true, status: http.StatusBadRequest},
		"bad rules":       {body: `{"roomId":"a","rules":{"minPlayers":1}}`, auth: true, status: http.StatusBadRequest},
		"wrong rule type": {body: `{"roomId":"a","rules":{"openLobby":"yes"}}`, auth: true, status: http.StatusBadRequest},
		"huge hand":       {body: `{"roomId":"a","rules":{"handSize":4611686018427387904}}`, auth: true, status: http.StatusBadRequest},
		"fractional rule": {body: `{"roomId":"a","rules":{"minPlayers":2.9}}`, auth: true, status: http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/room/create", bytes.NewBufferString(tc.body))
			if tc.auth {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			CreateRoomHandler(gs).ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, gs.Store.Rooms())
}

func TestListRooms(t *testing.T) {
	gs := newTestServer()
	_, token := newGuestToken(t, "viewer")
	gs.Store.NewGame("b", uuid.New())
	gs.Store.NewGame("a", uuid.New())
	newest := gs.Store.NewGame("a", uuid.New())

	req := httptest.NewRequest("GET", "/room/list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ListRoomsHandler(gs).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rooms []roomSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 2)
	assert.Equal(t, "a", rooms[0].RoomID)
	assert.Equal(t, newest.ID, rooms[0].GameID)
	assert.Equal(t, "b", rooms[1].RoomID)

	req = httptest.NewRequest("GET", "/room/list", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	ListRoomsHandler(gs).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorMapping(t *testing.T) {
	assert.Equal(t, "not_your_turn", errorCode(game.ErrNotYourTurn))
	assert.Equal(t, "too_many_cards", errorCode(game.ErrTooManyCards))
	assert.Equal(t, "invalid_move", errorCode(game.ErrInvalidMove))
	assert.Equal(t, "lobby_closed", errorCode(game.ErrLobbyClosed))
	assert.Equal(t, "internal", errorCode(assert.AnError))

	assert.Equal(t, http.StatusNotFound, httpStatus(game.ErrNoGameInRoom))
	assert.Equal(t, http.StatusBadRequest, httpStatus(game.ErrWrongPhase))
	assert.Equal(t, http.StatusConflict, httpStatus(game.ErrGameStarted))

	assert.Equal(t, "abc", extractCookieToken("theme=dark; auth_token=abc; lang=en", authCookieName))
	assert.Empty(t, extractCookieToken("theme=dark", authCookieName))
}
