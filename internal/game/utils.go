// internal/game/utils.go
package game

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// convertEventToBytes marshals a GameEvent into JSON bytes.
// Logs a warning and returns empty JSON "{}" on marshalling error.
func convertEventToBytes(ev GameEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.Warnf("Failed to marshal GameEvent type %s: %v", ev.Type, err)
		return []byte("{}")
	}
	return data
}

// EventBytes is the wire form of an event.
func EventBytes(ev GameEvent) []byte {
	return convertEventToBytes(ev)
}

// payloadString reads a string field from an action payload.
func payloadString(payload map[string]interface{}, key string) (string, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidMove, key)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: invalid %s", ErrInvalidMove, key)
	}
	return s, nil
}

// payloadInt reads an integer field from an action payload. JSON numbers decode as float64.
func payloadInt(payload map[string]interface{}, key string) (int, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidMove, key)
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: %s must be a whole number", ErrInvalidMove, key)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: invalid %s", ErrInvalidMove, key)
	}
}
