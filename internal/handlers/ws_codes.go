// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used within the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
	InvalidRoomIDError    = 3003 // Target room in the WS URL has no game.
	SlowConsumerError     = 3004 // Client stopped draining its outbound queue.
)
