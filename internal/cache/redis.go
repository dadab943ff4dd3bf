// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "yellowcard_actions"

// ErrQueueEmpty is returned by Pop when no record arrived before the timeout.
var ErrQueueEmpty = errors.New("cache: queue empty")

// GameActionRecord holds the minimal info needed by the historian.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	RoomID        string                 `json:"room_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"` // epoch millis
}

// Encode serializes a record for the queue.
func Encode(rec GameActionRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	return data, nil
}

// Decode parses a queued record.
func Decode(data []byte) (GameActionRecord, error) {
	var rec GameActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("invalid action record: %w", err)
	}
	if rec.GameID == uuid.Nil {
		return rec, fmt.Errorf("invalid action record: missing game_id")
	}
	return rec, nil
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Queue is the Redis list that carries game actions from servers to the historian.
type Queue struct {
	rdb  *redis.Client
	name string
	log  *logrus.Entry
}

// NewQueue wraps a client. An empty name selects DefaultQueueName.
func NewQueue(rdb *redis.Client, name string) *Queue {
	if name == "" {
		name = DefaultQueueName
	}
	return &Queue{
		rdb:  rdb,
		name: name,
		log:  logrus.WithField("queue", name),
	}
}

// Name returns the Redis key of the list.
func (q *Queue) Name() string { return q.name }

// Publish serializes the given record to JSON, then pushes it to the Redis queue.
func (q *Queue) Publish(ctx context.Context, rec GameActionRecord) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Record publishes in the background with a short timeout. Its signature matches game.Game.RecordFn,
// so a game never waits on Redis while holding its lock.
func (q *Queue) Record(rec GameActionRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := q.Publish(ctx, rec); err != nil {
			q.log.WithError(err).WithField("game", rec.GameID).Warn("dropping action record")
		}
	}()
}

// Pop blocks up to timeout for the next record. Undecodable entries are logged and skipped.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (GameActionRecord, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return GameActionRecord{}, ErrQueueEmpty
	}
	if err != nil {
		return GameActionRecord{}, fmt.Errorf("BLPop: %w", err)
	}
	if len(res) < 2 {
		return GameActionRecord{}, ErrQueueEmpty
	}
	// res[0] is the queue name and res[1] the payload
	rec, err := Decode([]byte(res[1]))
	if err != nil {
		q.log.WithError(err).Warn("skipping queue entry")
		return GameActionRecord{}, ErrQueueEmpty
	}
	return rec, nil
}

// Close closes the underlying client.
func (q *Queue) Close() error {
	return q.rdb.Close()
}
