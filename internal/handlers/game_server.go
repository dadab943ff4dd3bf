// internal/handlers/game_server.go
package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/cache"
	"github.com/yellowcard/yellowcard/internal/game"
)

// GameServer ties the room store to the live connections. It attaches broadcast, history and
// end-of-game callbacks to every game the store creates.
type GameServer struct {
	Store  *game.Store
	Hub    *Hub
	Logger *logrus.Logger

	// Record receives every game action. Nil disables the action log.
	Record func(rec cache.GameActionRecord)
}

// NewGameServer wires a server around store.
func NewGameServer(store *game.Store, logger *logrus.Logger, record func(rec cache.GameActionRecord)) *GameServer {
	gs := &GameServer{
		Store:  store,
		Hub:    NewHub(logger),
		Logger: logger,
		Record: record,
	}
	store.OnNewGame = gs.attach
	return gs
}

// attach installs the callbacks on a fresh game. The callbacks run under the game lock, so they only
// touch the hub and never call back into the game or the store synchronously.
func (gs *GameServer) attach(g *game.Game) {
	roomID := g.RoomID
	g.Log = gs.Logger.WithFields(logrus.Fields{"game": g.ID, "room": roomID})
	g.BroadcastFn = func(ev game.GameEvent) {
		gs.Hub.Broadcast(roomID, game.EventBytes(ev))
	}
	g.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.GameEvent) {
		gs.Hub.SendTo(roomID, playerID, game.EventBytes(ev))
	}
	g.RecordFn = gs.Record
	g.OnGameEnd = func(gameID uuid.UUID, reason game.EndReason, winners []uuid.UUID, scores map[uuid.UUID]int) {
		results := map[string]interface{}{
			"type":    "game_results",
			"game_id": gameID.String(),
			"reason":  reason,
			"winners": winners,
			"scores":  map[string]int{},
		}
		for pid, sc := range scores {
			results["scores"].(map[string]int)[pid.String()] = sc
		}
		gs.Hub.BroadcastJSON(roomID, results)
		gs.Hub.BroadcastChat(roomID, uuid.Nil, fmt.Sprintf("Game over (%s).", reason))

		// the store locks the game while removing it, so do it outside this callback
		go func() {
			if err := gs.Store.Remove(gameID); err != nil {
				gs.Logger.Debugf("game %s already removed: %v", gameID, err)
			}
		}()
	}
}
