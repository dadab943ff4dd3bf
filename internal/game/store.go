// internal/game/store.go
package game

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/catalogue"
	"github.com/yellowcard/yellowcard/internal/models"
)

// Store keeps every live game in memory, grouped by room. A room may hold several games; the newest is
// the one users join. Each user has one current game, the last one they joined.
type Store struct {
	mu deadlock.Mutex

	catalogue *catalogue.Catalogue
	rules     Rules

	rooms     map[string][]*Game
	byID      map[uuid.UUID]*Game
	userGames map[uuid.UUID][]*Game
	current   map[uuid.UUID]*Game

	// OnNewGame runs for every game the store creates, before it is published. Use it to attach
	// broadcast and history callbacks.
	OnNewGame func(g *Game)
}

// NewStore returns an empty store. Games it creates draw from cat and start from rules.
func NewStore(cat *catalogue.Catalogue, rules Rules) *Store {
	return &Store{
		catalogue: cat,
		rules:     rules,
		rooms:     make(map[string][]*Game),
		byID:      make(map[uuid.UUID]*Game),
		userGames: make(map[uuid.UUID][]*Game),
		current:   make(map[uuid.UUID]*Game),
	}
}

// DefaultRules returns the rules new games start from.
func (s *Store) DefaultRules() Rules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// NewGame opens a new game in roomID with the store's default rules. The starter is not seated.
func (s *Store) NewGame(roomID string, starter uuid.UUID) *Game {
	g, _ := s.NewGameWithRules(roomID, starter, s.DefaultRules())
	return g
}

// NewGameWithRules opens a new game in roomID with house rules.
func (s *Store) NewGameWithRules(roomID string, starter uuid.UUID, rules Rules) (*Game, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	g := NewGame(roomID, s.catalogue, rules)
	g.StarterID = starter
	if s.OnNewGame != nil {
		s.OnNewGame(g)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = append(s.rooms[roomID], g)
	s.byID[g.ID] = g
	logrus.WithFields(logrus.Fields{"room": roomID, "game": g.ID}).Info("new game")
	return g, nil
}

// Current returns the newest game in a room.
func (s *Store) Current(roomID string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	games := s.rooms[roomID]
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGameInRoom, roomID)
	}
	return games[len(games)-1], nil
}

// Games returns every game in a room, oldest first.
func (s *Store) Games(roomID string) []*Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rooms[roomID])
}

// GetGame looks a game up by id.
func (s *Store) GetGame(id uuid.UUID) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byID[id]
	return g, ok
}

// GameOf returns the game a user is currently playing.
func (s *Store) GameOf(userID uuid.UUID) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.current[userID]
	return g, ok
}

// GamesOf returns every game a user is seated in.
func (s *Store) GamesOf(userID uuid.UUID) []*Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.userGames[userID])
}

// Rooms lists the rooms that have at least one game, sorted.
func (s *Store) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Join seats a user in the newest game of a room and makes it their current game.
func (s *Store) Join(roomID string, user models.User) (*Game, error) {
	g, err := s.Current(roomID)
	if err != nil {
		return nil, err
	}
	if _, err := g.Seat(user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.userGames[user.ID] = append(s.userGames[user.ID], g)
	s.current[user.ID] = g
	return g, nil
}

// Leave unseats a user from whichever game in the room they sit in. If a running game would drop below
// its minimum, it is ended and the Capacity error is still returned so the caller can tell the room.
func (s *Store) Leave(roomID string, userID uuid.UUID) error {
	g, err := s.seatedIn(roomID, userID)
	if err != nil {
		return err
	}

	err = g.Unseat(userID)
	switch {
	case errors.Is(err, ErrCapacity) && g.Started():
		if endErr := s.end(roomID, g); endErr != nil {
			return endErr
		}
		return fmt.Errorf("%w: game ended", err)
	case err != nil:
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget(userID, g)
	return nil
}

// EndGame ends the game userID sits in within a room and drops it from the store.
func (s *Store) EndGame(roomID string, userID uuid.UUID) error {
	g, err := s.seatedIn(roomID, userID)
	if err != nil {
		return err
	}
	return s.end(roomID, g)
}

// Remove drops a game regardless of who is in it.
func (s *Store) Remove(gameID uuid.UUID) error {
	g, ok := s.GetGame(gameID)
	if !ok {
		return fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	return s.end(g.RoomID, g)
}

// seatedIn finds the newest game in a room with userID seated.
func (s *Store) seatedIn(roomID string, userID uuid.UUID) (*Game, error) {
	games := s.Games(roomID)
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGameInRoom, roomID)
	}
	for _, g := range slices.Backward(games) {
		if g.Seated(userID) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no seat in %s", ErrNoGameInRoom, userID, roomID)
}

// end aborts g if it is still running and forgets it.
func (s *Store) end(roomID string, g *Game) error {
	players := g.Players()

	// game callbacks must not run under the store lock
	if err := g.Abort(); err != nil && !errors.Is(err, ErrGameEnded) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = slices.DeleteFunc(s.rooms[roomID], func(x *Game) bool { return x == g })
	if len(s.rooms[roomID]) == 0 {
		delete(s.rooms, roomID)
	}
	delete(s.byID, g.ID)
	for _, id := range players {
		s.forget(id, g)
	}
	logrus.WithFields(logrus.Fields{"room": roomID, "game": g.ID}).Info("game removed")
	return nil
}

// forget drops g from a user's games and picks a new current game.
// Assumes lock is held.
func (s *Store) forget(userID uuid.UUID, g *Game) {
	games := slices.DeleteFunc(s.userGames[userID], func(x *Game) bool { return x == g })
	if len(games) == 0 {
		delete(s.userGames, userID)
		delete(s.current, userID)
		return
	}
	s.userGames[userID] = games
	if s.current[userID] == g {
		s.current[userID] = games[len(games)-1]
	}
}
