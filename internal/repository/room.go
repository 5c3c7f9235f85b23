package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
)

const defaultKeyPrefix = "metatactoe"

// RoomMirror publishes the live room list so other processes can browse rooms.
// It is write-only: the registry never reads it back.
type RoomMirror interface {
	Save(ctx context.Context, room *entity.Room) error
	Delete(ctx context.Context, name string) error
	Clear(ctx context.Context) error
}

type dbRoom struct {
	client *redis.Client
	prefix string
}

func NewRoomMirror(client *redis.Client, prefix string) RoomMirror {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	return &dbRoom{
		client: client,
		prefix: prefix,
	}
}

func (that *dbRoom) roomKey(name string) string {
	return that.prefix + ":room:" + name
}

func (that *dbRoom) indexKey() string {
	return that.prefix + ":rooms"
}

func (that *dbRoom) Save(ctx context.Context, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.Set(ctx, that.roomKey(room.Name), roomJSON, 0)
	pipe.SAdd(ctx, that.indexKey(), room.Name)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *dbRoom) Delete(ctx context.Context, name string) error {
	pipe := that.client.TxPipeline()
	pipe.Del(ctx, that.roomKey(name))
	pipe.SRem(ctx, that.indexKey(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}

// Clear removes every mirrored room. Called on startup so no state survives a restart.
func (that *dbRoom) Clear(ctx context.Context) error {
	names, err := that.client.SMembers(ctx, that.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	keys := make([]string, 0, len(names)+1)
	for _, name := range names {
		keys = append(keys, that.roomKey(name))
	}
	keys = append(keys, that.indexKey())

	if err = that.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear rooms: %w", err)
	}

	return nil
}

type noopRoom struct{}

// NewNoopRoomMirror is used when redis is disabled.
func NewNoopRoomMirror() RoomMirror {
	return noopRoom{}
}

func (noopRoom) Save(context.Context, *entity.Room) error { return nil }

func (noopRoom) Delete(context.Context, string) error { return nil }

func (noopRoom) Clear(context.Context) error { return nil }
