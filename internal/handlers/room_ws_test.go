package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yellowcard/yellowcard/internal/game"
	"github.com/yellowcard/yellowcard/internal/models"
)

// drain returns every queued message on conn, decoded.
func drain(conn *RoomConnection) []map[string]interface{} {
	var out []map[string]interface{}
	for {
		select {
		case data := <-conn.OutChan:
			var msg map[string]interface{}
			_ = json.Unmarshal(data, &msg)
			out = append(out, msg)
		default:
			return out
		}
	}
}

func lastOfType(msgs []map[string]interface{}, typ string) map[string]interface{} {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i]["type"] == typ {
			return msgs[i]
		}
	}
	return nil
}

// connect registers a hub connection for user and returns it.
func connect(gs *GameServer, roomID string, user models.User) *RoomConnection {
	conn := NewRoomConnection(user.ID, user.Username, func() {})
	gs.Hub.Add(roomID, conn)
	return conn
}

func TestRoomMessagesDriveAGame(t *testing.T) {
	gs := newTestServer()
	host := models.User{ID: uuid.New(), Username: "host"}
	guest := models.User{ID: uuid.New(), Username: "guest"}
	g := gs.Store.NewGame("room", host.ID)
	hc, gc := connect(gs, "room", host), connect(gs, "room", guest)

	err := handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "start"})
	assert.ErrorIs(t, err, game.ErrNotSeated, "actions need a seat")

	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "join"}))
	require.NoError(t, handleRoomMessage(gs, "room", guest, gc, RoomMessage{Type: "join"}))
	assert.NotNil(t, lastOfType(drain(gc), string(game.EventPlayerSeated)))

	err = handleRoomMessage(gs, "room", guest, gc, RoomMessage{Type: "start"})
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "start"}))
	assert.True(t, g.Started())

	msgs := drain(hc)
	assert.NotNil(t, lastOfType(msgs, string(game.EventGameStart)))
	require.NotNil(t, lastOfType(msgs, string(game.EventPrivateDemandChoices)))
	assert.Nil(t, lastOfType(drain(gc), string(game.EventPrivateDemandChoices)), "choices go to the asker only")

	choices, err := g.DemandChoices(host.ID)
	require.NoError(t, err)
	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "play", Card: choices[0].ID}))

	hand, err := g.Hand(guest.ID)
	require.NoError(t, err)
	for _, card := range hand[:choices[0].Space] {
		require.NoError(t, handleRoomMessage(gs, "room", guest, gc, RoomMessage{Type: "play", Card: card.ID}))
	}
	assert.Equal(t, game.PhaseJudge, g.Phase())
	assert.NotNil(t, lastOfType(drain(hc), string(game.EventRoundReveal)))

	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "judge", Label: 1}))
	require.NoError(t, handleRoomMessage(gs, "room", guest, gc, RoomMessage{Type: "discard_skip"}))
	assert.Equal(t, game.PhaseDemand, g.Phase())
	assert.Equal(t, guest.ID, g.Asker())

	require.NoError(t, handleRoomMessage(gs, "room", guest, gc, RoomMessage{Type: "sync"}))
	sync := lastOfType(drain(gc), string(game.EventPrivateSyncState))
	require.NotNil(t, sync)
	assert.NotNil(t, sync["state"])

	err = handleRoomMessage(gs, "room", guest, gc, RoomMessage{Type: "dance"})
	assert.ErrorIs(t, err, game.ErrInvalidMove)
}

func TestRoomMessagesLobbyControls(t *testing.T) {
	gs := newTestServer()
	host := models.User{ID: uuid.New(), Username: "host"}
	other := models.User{ID: uuid.New(), Username: "other"}
	g := gs.Store.NewGame("room", host.ID)
	hc, oc := connect(gs, "room", host), connect(gs, "room", other)

	open := false
	err := handleRoomMessage(gs, "room", other, oc, RoomMessage{Type: "lobby", Open: &open})
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
	err = handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "lobby"})
	assert.ErrorIs(t, err, game.ErrInvalidMove)

	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "lobby", Open: &open}))
	assert.NotNil(t, lastOfType(drain(oc), "lobby_update"))
	err = handleRoomMessage(gs, "room", other, oc, RoomMessage{Type: "join"})
	assert.ErrorIs(t, err, game.ErrLobbyClosed)

	err = handleRoomMessage(gs, "room", other, oc, RoomMessage{Type: "new_game"})
	assert.ErrorIs(t, err, game.ErrInvalidMove, "the open lobby has not started yet")

	require.NoError(t, handleRoomMessage(gs, "room", other, oc, RoomMessage{Type: "chat", Msg: "hello"}))
	chat := lastOfType(drain(hc), "chat")
	require.NotNil(t, chat)
	assert.Equal(t, "hello", chat["msg"])
	assert.Equal(t, other.ID.String(), chat["user_id"])

	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "info"}))
	info := lastOfType(drain(hc), "info")
	require.NotNil(t, info)

	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "ping"}))
	assert.NotNil(t, lastOfType(drain(hc), "pong"))

	open = true
	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "lobby", Open: &open}))
	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "join"}))
	err = handleRoomMessage(gs, "room", other, oc, RoomMessage{Type: "end"})
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
	require.NoError(t, handleRoomMessage(gs, "room", host, hc, RoomMessage{Type: "end"}))
	assert.True(t, g.Ended())
	assert.NotNil(t, lastOfType(drain(oc), "game_results"))

	_, err = gs.Store.Current("room")
	assert.ErrorIs(t, err, game.ErrNoGameInRoom)
}

func TestLeaveEndsShortTable(t *testing.T) {
	gs := newTestServer()
	users := []models.User{{ID: uuid.New(), Username: "a"}, {ID: uuid.New(), Username: "b"}}
	g := gs.Store.NewGame("room", users[0].ID)
	conns := []*RoomConnection{connect(gs, "room", users[0]), connect(gs, "room", users[1])}
	for i, u := range users {
		require.NoError(t, handleRoomMessage(gs, "room", u, conns[i], RoomMessage{Type: "join"}))
	}
	require.NoError(t, handleRoomMessage(gs, "room", users[0], conns[0], RoomMessage{Type: "start"}))

	err := handleRoomMessage(gs, "room", users[1], conns[1], RoomMessage{Type: "leave"})
	assert.ErrorIs(t, err, game.ErrCapacity)
	assert.True(t, g.Ended())
	assert.Equal(t, game.EndAborted, g.EndReason())

	msgs := drain(conns[0])
	assert.NotNil(t, lastOfType(msgs, "game_results"))
	assert.NotNil(t, lastOfType(msgs, "chat"))
}

func TestRoomWebSocket(t *testing.T) {
	gs := newTestServer()
	gs.Store.NewGame("ws-room", uuid.New())
	srv := httptest.NewServer(RoomWSHandler(gs.Logger, gs))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/room/ws/ws-room?name=wendy"
	c, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{"room"}})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")
	assert.Equal(t, "room", c.Subprotocol())
	assert.NotEmpty(t, resp.Cookies(), "a guest session is handed out on connect")

	read := func() map[string]interface{} {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	welcome := read()
	assert.Equal(t, "welcome", welcome["type"])
	assert.Equal(t, "wendy", welcome["username"])

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"join"}`)))
	seated := read()
	assert.Equal(t, string(game.EventPlayerSeated), seated["type"])

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`{"type":"start"}`)))
	msg := read()
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "not_your_turn", msg["code"], "only the room creator starts")

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(`not json`)))
	msg = read()
	assert.Equal(t, "bad_request", msg["code"])

	// unknown rooms are refused before the upgrade
	_, resp, err = websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/room/ws/nowhere", &websocket.DialOptions{Subprotocols: []string{"room"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHubReplacesConnections(t *testing.T) {
	gs := newTestServer()
	user := uuid.New()
	cancelled := false
	first := NewRoomConnection(user, "u", func() { cancelled = true })
	second := NewRoomConnection(user, "u", func() {})

	gs.Hub.Add("room", first)
	gs.Hub.Add("room", second)
	assert.True(t, cancelled, "the older connection is cut")
	assert.Equal(t, 1, gs.Hub.Count("room"))

	gs.Hub.Remove("room", first)
	assert.Equal(t, 1, gs.Hub.Count("room"), "a stale remove leaves the newer connection")

	gs.Hub.SendTo("room", user, []byte(`{"type":"x"}`))
	assert.Len(t, second.OutChan, 1)

	gs.Hub.Remove("room", second)
	assert.Zero(t, gs.Hub.Count("room"))
}

func TestHubDropsSlowConsumers(t *testing.T) {
	gs := newTestServer()
	cancelled := false
	conn := NewRoomConnection(uuid.New(), "slow", func() { cancelled = true })
	gs.Hub.Add("room", conn)

	for i := 0; i < cap(conn.OutChan); i++ {
		gs.Hub.Broadcast("room", []byte(`{}`))
	}
	assert.False(t, cancelled)
	gs.Hub.Broadcast("room", []byte(`{}`))
	assert.True(t, cancelled)
}
