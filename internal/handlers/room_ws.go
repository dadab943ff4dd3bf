// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/auth"
	"github.com/yellowcard/yellowcard/internal/game"
	"github.com/yellowcard/yellowcard/internal/middleware"
	"github.com/yellowcard/yellowcard/internal/models"
)

// roomSubprotocol is the only subprotocol the room socket speaks.
const roomSubprotocol = "room"

// RoomMessage represents the structure for incoming WebSocket messages.
type RoomMessage struct {
	Type string `json:"type"`

	Card   string `json:"card,omitempty"`   // play, discard
	Label  int    `json:"label,omitempty"`  // judge
	Amount int    `json:"amount,omitempty"` // discard_choose
	Msg    string `json:"msg,omitempty"`    // chat
	Open   *bool  `json:"open,omitempty"`   // lobby
}

// RoomWSHandler upgrades /room/ws/{room_id}. Callers without a session are given a guest one, named
// after the "name" query parameter.
func RoomWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if roomID == "" || !validRoomID.MatchString(roomID) {
			http.Error(w, "missing room_id in path (/room/ws/{room_id})", http.StatusBadRequest)
			return
		}
		if _, err := gs.Store.Current(roomID); err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		user, err := ensureGuestUser(w, r)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{roomSubprotocol},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != roomSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := NewRoomConnection(user.ID, user.Username, cancel)
		gs.Hub.Add(roomID, conn)
		defer gs.Hub.Remove(roomID, conn)

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		conn.WriteJSON(map[string]interface{}{
			"type":     "welcome",
			"user_id":  user.ID.String(),
			"username": user.Username,
			"room_id":  roomID,
		})
		// a returning player gets their view straight away
		if g, err := gs.Store.Current(roomID); err == nil && g.Seated(user.ID) {
			g.SyncState(user.ID)
		}

		go writePump(ctx, c, conn, logger)
		err = readPump(ctx, c, gs, roomID, user, conn, logger)

		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		if ctx.Err() != nil && r.Context().Err() == nil {
			// cancelled by the hub: replaced by a newer connection or too slow
			c.Close(SlowConsumerError, "connection superseded or too slow")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// ensureGuestUser authenticates the request, minting a guest session if there is none.
func ensureGuestUser(w http.ResponseWriter, r *http.Request) (models.User, error) {
	if user, err := authenticate(r); err == nil {
		return user, nil
	} else if requestToken(r) != "" && !errors.Is(err, auth.ErrInvalidToken) {
		return models.User{}, err
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" || len(name) > 32 {
		name = "Guest"
	}
	user, token, err := auth.NewGuest(name)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create guest session: %w", err)
	}
	// must be set before the upgrade writes headers
	setAuthCookie(w, token)
	return user, nil
}

// readPump handles incoming messages until the socket closes.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, roomID string, user models.User, conn *RoomConnection, logger *logrus.Logger) error {
	log := logger.WithFields(logrus.Fields{"room": roomID, "user": user.ID})
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.Warnf("Received non-text message type %d. Ignoring.", typ)
			continue
		}

		var msg RoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.WriteError("bad_request", "Invalid JSON format")
			continue
		}
		log.Debugf("Received '%s'", msg.Type)

		if err := handleRoomMessage(gs, roomID, user, conn, msg); err != nil {
			log.WithError(err).Debugf("'%s' rejected", msg.Type)
			conn.WriteError(errorCode(err), err.Error())
		}
	}
}

// handleRoomMessage interprets the "type" field of a room message.
func handleRoomMessage(gs *GameServer, roomID string, user models.User, conn *RoomConnection, msg RoomMessage) error {
	switch msg.Type {
	case "ping":
		conn.WriteJSON(map[string]string{"type": "pong"})
		return nil

	case "join":
		_, err := gs.Store.Join(roomID, user)
		return err

	case "leave":
		err := gs.Store.Leave(roomID, user.ID)
		if errors.Is(err, game.ErrCapacity) {
			gs.Hub.BroadcastChat(roomID, uuid.Nil, fmt.Sprintf("%s left, not enough players to continue.", user.Username))
		}
		return err

	case "chat":
		if msg.Msg == "" {
			return nil
		}
		gs.Hub.BroadcastChat(roomID, user.ID, msg.Msg)
		return nil

	case "new_game":
		// at most one open lobby per room
		if g, err := gs.Store.Current(roomID); err == nil && !g.Started() {
			return fmt.Errorf("%w: the room already has an open lobby", game.ErrInvalidMove)
		}
		_, err := gs.Store.NewGameWithRules(roomID, user.ID, gs.Store.DefaultRules())
		return err

	case "end":
		g, err := gs.Store.Current(roomID)
		if err != nil {
			return err
		}
		if g.StarterID != user.ID {
			return fmt.Errorf("%w: only the room creator can end the game", game.ErrNotYourTurn)
		}
		return gs.Store.EndGame(roomID, user.ID)

	case "lobby":
		g, err := gs.Store.Current(roomID)
		if err != nil {
			return err
		}
		if g.StarterID != user.ID {
			return fmt.Errorf("%w: only the room creator can open or close the lobby", game.ErrNotYourTurn)
		}
		if msg.Open == nil {
			return fmt.Errorf("%w: missing open", game.ErrInvalidMove)
		}
		g.SetOpen(*msg.Open)
		gs.Hub.BroadcastJSON(roomID, map[string]interface{}{"type": "lobby_update", "open": *msg.Open})
		return nil

	case "info":
		g, err := gs.Store.Current(roomID)
		if err != nil {
			return err
		}
		conn.WriteJSON(map[string]interface{}{
			"type":      "info",
			"game":      summarize(g),
			"standings": g.Standings(),
			"threshold": g.Threshold(),
		})
		return nil
	}

	g, err := seatedGame(gs, roomID, user.ID)
	if err != nil {
		return err
	}
	action := models.GameAction{Payload: map[string]interface{}{}}
	switch msg.Type {
	case "start":
		action.ActionType = game.ActionStart
	case "play":
		action.ActionType = game.ActionPlay
		action.Payload["card"] = msg.Card
	case "judge":
		action.ActionType = game.ActionJudge
		action.Payload["label"] = msg.Label
	case "discard_choose":
		action.ActionType = game.ActionDiscardChoose
		action.Payload["amount"] = msg.Amount
	case "discard_skip":
		action.ActionType = game.ActionDiscardSkip
	case "discard":
		action.ActionType = game.ActionDiscard
		action.Payload["card"] = msg.Card
	case "sync":
		action.ActionType = game.ActionSync
	default:
		return fmt.Errorf("%w: unknown message type %q", game.ErrInvalidMove, msg.Type)
	}
	return g.HandleAction(user.ID, action)
}

// seatedGame finds the game in the room the user sits in, preferring the user's current game.
func seatedGame(gs *GameServer, roomID string, userID uuid.UUID) (*game.Game, error) {
	if g, ok := gs.Store.GameOf(userID); ok && g.RoomID == roomID {
		return g, nil
	}
	for _, g := range gs.Store.GamesOf(userID) {
		if g.RoomID == roomID {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: join the game first", game.ErrNotSeated)
}

// writePump drains the connection's outbound queue and keeps the socket alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *RoomConnection, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-conn.OutChan:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for user %v: %v", conn.UserID, err)
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to send ping to user %v: %v. Assuming disconnect.", conn.UserID, err)
				conn.Cancel()
				return
			}
		}
	}
}
