package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	rec := GameActionRecord{
		GameID:        uuid.New(),
		RoomID:        "room-1",
		ActionIndex:   3,
		ActorUserID:   uuid.New(),
		ActionType:    "round_judged",
		ActionPayload: map[string]interface{}{"label": float64(2)},
		Timestamp:     1700000000000,
	}
	data, err := Encode(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"room_id":"room-1"`)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"action_type":"game_start"}`))
	assert.ErrorContains(t, err, "missing game_id")
}

func TestNewQueueDefaultsName(t *testing.T) {
	q := NewQueue(nil, "")
	assert.Equal(t, DefaultQueueName, q.Name())
	assert.Equal(t, "custom", NewQueue(nil, "custom").Name())
}
