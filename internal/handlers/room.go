// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/yellowcard/yellowcard/internal/auth"
	"github.com/yellowcard/yellowcard/internal/game"
)

var validRoomID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type guestRequest struct {
	Username string `json:"username"`
}

// GuestHandler issues a session for a display name. No account is stored.
func GuestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req guestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad guest request payload", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(req.Username)
		if name == "" {
			name = "Guest"
		}
		if len(name) > 32 {
			http.Error(w, "username too long", http.StatusBadRequest)
			return
		}

		user, token, err := auth.NewGuest(name)
		if err != nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}
		setAuthCookie(w, token)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"token":    token,
		})
	}
}

type createRoomRequest struct {
	RoomID string                 `json:"roomId"`
	Rules  map[string]interface{} `json:"rules"`
}

type roomSummary struct {
	RoomID  string     `json:"roomId"`
	GameID  uuid.UUID  `json:"gameId"`
	Phase   game.Phase `json:"phase"`
	Players int        `json:"players"`
	Rules   game.Rules `json:"rules"`
}

func summarize(g *game.Game) roomSummary {
	return roomSummary{
		RoomID:  g.RoomID,
		GameID:  g.ID,
		Phase:   g.Phase(),
		Players: g.PlayerCount(),
		Rules:   g.Rules,
	}
}

// CreateRoomHandler opens a new game in a room, optionally with house rules. An empty room id gets a
// random one. The caller becomes the game's starter but is not seated until they join.
func CreateRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		user, err := authenticate(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad room request payload", http.StatusBadRequest)
			return
		}
		if req.RoomID == "" {
			req.RoomID = uuid.NewString()
		}
		if !validRoomID.MatchString(req.RoomID) {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}

		rules, err := game.ParseRules(req.Rules, gs.Store.DefaultRules())
		if err != nil {
			http.Error(w, "invalid rules: "+err.Error(), http.StatusBadRequest)
			return
		}
		g, err := gs.Store.NewGameWithRules(req.RoomID, user.ID, rules)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		writeJSON(w, http.StatusOK, summarize(g))
	}
}

// ListRoomsHandler returns the newest game of every room.
func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticate(r); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		rooms := make([]roomSummary, 0)
		for _, id := range gs.Store.Rooms() {
			g, err := gs.Store.Current(id)
			if err != nil {
				continue
			}
			rooms = append(rooms, summarize(g))
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}
