package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/testing/suite"
)

func newRoom(name string) *entity.Room {
	return entity.NewRoom(name, "secret", 3, &entity.Player{ID: "p1", DisplayName: "Alice", ChosenPieceKey: "cross"})
}

// storedRoom reads the raw JSON value of a mirrored room.
func storedRoom(ctx context.Context, t *testing.T, client *redis.Client, key string) map[string]any {
	t.Helper()

	raw, err := client.Get(ctx, key).Bytes()
	require.NoError(t, err)

	var room map[string]any
	require.NoError(t, json.Unmarshal(raw, &room))

	return room
}

func TestRoomMirror_Save(t *testing.T) {
	t.Run("Save_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		mirror := NewRoomMirror(st.Storage, "test")

		// Given: a room
		room := newRoom("r1")

		// When: Save is called
		err := mirror.Save(ctx, room)

		// Then: the room is stored without its password and indexed
		require.NoError(t, err)

		stored := storedRoom(ctx, t, st.Storage, "test:room:r1")
		assert.Equal(t, "r1", stored["name"])
		assert.InDelta(t, 3, stored["maxPlayers"], 0)
		assert.Equal(t, true, stored["hasPassword"])
		assert.NotContains(t, stored, "password")
		require.Len(t, stored["players"], 1)

		names, err := st.Storage.SMembers(ctx, "test:rooms").Result()
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, names)
	})

	t.Run("Save_Overwrites", func(t *testing.T) {
		ctx, st := suite.New(t)

		mirror := NewRoomMirror(st.Storage, "test")

		// Given: a stored room
		room := newRoom("r1")
		require.NoError(t, mirror.Save(ctx, room))

		// When: a player joins and the room is saved again
		room.Players = append(room.Players, &entity.Player{ID: "p2"})
		require.NoError(t, mirror.Save(ctx, room))

		// Then: the index holds one room and the value has both players
		count, err := st.Storage.SCard(ctx, "test:rooms").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		stored := storedRoom(ctx, t, st.Storage, "test:room:r1")
		assert.Len(t, stored["players"], 2)
	})
}

func TestRoomMirror_Delete(t *testing.T) {
	ctx, st := suite.New(t)

	mirror := NewRoomMirror(st.Storage, "test")

	// Given: two stored rooms
	require.NoError(t, mirror.Save(ctx, newRoom("r1")))
	require.NoError(t, mirror.Save(ctx, newRoom("r2")))

	// When: one is deleted
	err := mirror.Delete(ctx, "r1")

	// Then: only the other one is left
	require.NoError(t, err)

	names, err := st.Storage.SMembers(ctx, "test:rooms").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, names)

	exists, err := st.Storage.Exists(ctx, "test:room:r1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRoomMirror_Clear(t *testing.T) {
	ctx, st := suite.New(t)

	mirror := NewRoomMirror(st.Storage, "test")
	other := NewRoomMirror(st.Storage, "other")

	// Given: rooms under two prefixes
	require.NoError(t, mirror.Save(ctx, newRoom("r1")))
	require.NoError(t, mirror.Save(ctx, newRoom("r2")))
	require.NoError(t, other.Save(ctx, newRoom("r3")))

	// When: one prefix is cleared
	err := mirror.Clear(ctx)

	// Then: its keys are gone and the other prefix is untouched
	require.NoError(t, err)

	exists, err := st.Storage.Exists(ctx, "test:rooms", "test:room:r1", "test:room:r2").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	exists, err = st.Storage.Exists(ctx, "other:rooms", "other:room:r3").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), exists)
}

func TestNoopRoomMirror(t *testing.T) {
	ctx := context.Background()
	mirror := NewNoopRoomMirror()

	require.NoError(t, mirror.Save(ctx, newRoom("r1")))
	require.NoError(t, mirror.Delete(ctx, "r1"))
	require.NoError(t, mirror.Clear(ctx))
}
