package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yellowcard/yellowcard/internal/auth"
	"github.com/yellowcard/yellowcard/internal/game"
	"github.com/yellowcard/yellowcard/internal/models"
)

// authCookieName is the cookie that carries the session JWT.
const authCookieName = "auth_token"

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// requestToken finds the session token in the auth cookie or an Authorization: Bearer header.
func requestToken(r *http.Request) string {
	if token := extractCookieToken(r.Header.Get("Cookie"), authCookieName); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// authenticate resolves the caller of a request.
func authenticate(r *http.Request) (models.User, error) {
	token := requestToken(r)
	if token == "" {
		return models.User{}, fmt.Errorf("missing %s", authCookieName)
	}
	return auth.AuthenticateJWT(token)
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorCode maps core errors onto the short codes sent to clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, game.ErrTooManyCards):
		return "too_many_cards"
	case errors.Is(err, game.ErrCapacity):
		return "not_enough_players"
	case errors.Is(err, game.ErrExhausted):
		return "deck_empty"
	case errors.Is(err, game.ErrNotFound):
		return "not_found"
	case errors.Is(err, game.ErrNoGameInRoom):
		return "no_game"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, game.ErrLobbyClosed):
		return "lobby_closed"
	case errors.Is(err, game.ErrGameStarted):
		return "game_started"
	case errors.Is(err, game.ErrGameEnded):
		return "game_ended"
	case errors.Is(err, game.ErrNotSeated):
		return "not_seated"
	case errors.Is(err, game.ErrInvalidMove):
		return "invalid_move"
	default:
		return "internal"
	}
}

// httpStatus maps core errors onto HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrNoGameInRoom), errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidMove):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}
