package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/repository"
	"github.com/rocketscienceinc/metatactoe-backend/internal/usecase"
)

const readTimeout = 2 * time.Second

func startServer(t *testing.T) string {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	registry := usecase.NewRoomRegistry(logger, repository.NewNoopRoomMirror(), usecase.DefaultRegistryOptions())
	processor := usecase.NewMoveProcessor(logger, registry, usecase.DefaultMovePolicy())
	server := New(logger, registry, processor, []string{"*"})

	ctx, cancel := context.WithCancel(context.Background())
	go server.Run(ctx)

	httpServer := httptest.NewServer(server.Router())
	t.Cleanup(func() {
		cancel()
		httpServer.Close()
	})

	return "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
}

func dial(t *testing.T, url, playerID string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?playerId="+playerID, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	data, err := encodeMessage(action, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	return message
}

// expect reads until a message with the action arrives and decodes its payload into out.
func expect(t *testing.T, conn *websocket.Conn, action string, out any) {
	t.Helper()

	for {
		message := read(t, conn)
		if message.Action != action {
			continue
		}

		if out != nil {
			require.NoError(t, json.Unmarshal(message.Payload, out))
		}
		return
	}
}

func newPlayer(id, key string) *entity.Player {
	return &entity.Player{ID: id, DisplayName: id, PieceGlyph: id + ".png", ChosenPieceKey: key}
}

// setupRoom creates r1 for p1 and joins the rest, draining the join broadcasts.
func setupRoom(t *testing.T, url string, capacity int, ids ...string) map[string]*websocket.Conn {
	t.Helper()

	conns := make(map[string]*websocket.Conn, len(ids))
	for i, id := range ids {
		conn := dial(t, url, id)
		conns[id] = conn

		if i == 0 {
			send(t, conn, actionCreateRoom, createRoomRequest{Name: "r1", Player: newPlayer(id, id), MaxPlayers: capacity})
		} else {
			send(t, conn, actionJoinRoom, joinRoomRequest{Name: "r1", Player: newPlayer(id, id)})
		}

		var room entity.Room
		expect(t, conn, entity.EventRoomJoined, &room)
		require.Len(t, room.Players, i+1)
	}

	// every earlier member sees the later joins
	for i, id := range ids {
		for n := 0; n < len(ids)-1-i; n++ {
			expect(t, conns[id], entity.EventRoomJoined, nil)
		}
	}

	return conns
}

func TestServer_CreateRoom(t *testing.T) {
	t.Run("The creator gets the room list and the room", func(t *testing.T) {
		// Given: a running server and a connected player
		url := startServer(t)
		conn := dial(t, url, "p1")

		// When: creating a room
		send(t, conn, actionCreateRoom, createRoomRequest{Name: "r1", Password: "pw", Player: newPlayer("p1", "a")})

		// Then: rooms_list comes first, then room_joined without the password
		var rooms []map[string]any
		expect(t, conn, entity.EventRoomsList, &rooms)
		require.Len(t, rooms, 1)
		assert.Equal(t, true, rooms[0]["hasPassword"])
		assert.NotContains(t, rooms[0], "password")

		var room entity.Room
		expect(t, conn, entity.EventRoomJoined, &room)
		assert.Equal(t, "r1", room.Name)
		assert.Equal(t, entity.DefaultCapacity, room.Capacity)
	})

	t.Run("A duplicate name is reported to the caller", func(t *testing.T) {
		url := startServer(t)
		first := dial(t, url, "p1")
		second := dial(t, url, "p2")

		send(t, first, actionCreateRoom, createRoomRequest{Name: "r1", Player: newPlayer("p1", "a")})
		expect(t, first, entity.EventRoomJoined, nil)

		send(t, second, actionCreateRoom, createRoomRequest{Name: "r1", Player: newPlayer("p2", "b")})

		var reason string
		expect(t, second, entity.EventRoomError, &reason)
		assert.Contains(t, reason, "room already exists")
	})
}

func TestServer_JoinRoom(t *testing.T) {
	t.Run("A taken piece key is reported", func(t *testing.T) {
		url := startServer(t)
		setupRoom(t, url, 3, "p1")
		conn := dial(t, url, "p2")

		send(t, conn, actionJoinRoom, joinRoomRequest{Name: "r1", Player: newPlayer("p2", "p1")})

		var reason string
		expect(t, conn, entity.EventRoomError, &reason)
		assert.Equal(t, "this symbol is already used by another player", reason)
	})

	t.Run("Joining a running match replays the state to the joiner", func(t *testing.T) {
		// Given: p1 started a game alone in a room of four
		url := startServer(t)
		conns := setupRoom(t, url, 4, "p1")
		send(t, conns["p1"], actionStartGame, "r1")
		expect(t, conns["p1"], entity.EventGameStarted, nil)

		// When: p2 joins
		late := dial(t, url, "p2")
		send(t, late, actionJoinRoom, joinRoomRequest{Name: "r1", Player: newPlayer("p2", "b")})

		// Then: p2 gets the room and then a snapshot with the live players
		expect(t, late, entity.EventRoomJoined, nil)

		var snapshot entity.Snapshot
		expect(t, late, entity.EventSyncState, &snapshot)
		assert.Len(t, snapshot.Players, 2)
		assert.Len(t, snapshot.TurnOrder, 1)
		assert.Equal(t, "p1", snapshot.CurrentPlayerID)
	})
}

func TestServer_Game(t *testing.T) {
	t.Run("Start and move broadcast to every member in order", func(t *testing.T) {
		// Given: r1 with three players
		url := startServer(t)
		conns := setupRoom(t, url, 3, "p1", "p2", "p3")

		// When: the creator starts with a bare string payload
		send(t, conns["p1"], actionStartGame, "r1")

		// Then: everyone sees the game start with p1 to move
		for _, id := range []string{"p1", "p2", "p3"} {
			var started entity.GameStarted
			expect(t, conns[id], entity.EventGameStarted, &started)
			assert.Len(t, started.Players, 3)
			assert.Equal(t, "p1", started.CurrentPlayer)
		}

		// When: p1 plays E4
		move := entity.Move{SubBoard: 4, X: 1, Y: 0, Player: "p1"}
		send(t, conns["p1"], actionPlayerMove, playerMoveRequest{Room: "r1", Move: move})

		// Then: every member receives move, sync_state and update_current_player in that order
		for _, id := range []string{"p1", "p2", "p3"} {
			first := read(t, conns[id])
			require.Equal(t, entity.EventMove, first.Action)
			var got entity.Move
			require.NoError(t, json.Unmarshal(first.Payload, &got))
			assert.Equal(t, move, got)

			second := read(t, conns[id])
			require.Equal(t, entity.EventSyncState, second.Action)
			var snapshot entity.Snapshot
			require.NoError(t, json.Unmarshal(second.Payload, &snapshot))
			assert.Equal(t, "p1", snapshot.Board.At(move.Cell()))
			assert.Equal(t, []string{"4-1-0-p1"}, snapshot.ClosedCells)

			third := read(t, conns[id])
			require.Equal(t, entity.EventUpdateCurrentPlayer, third.Action)
			var current string
			require.NoError(t, json.Unmarshal(third.Payload, &current))
			assert.Equal(t, "p2", current)
		}
	})

	t.Run("Only the creator may start", func(t *testing.T) {
		url := startServer(t)
		conns := setupRoom(t, url, 2, "p1", "p2")

		send(t, conns["p2"], actionStartGame, map[string]string{"roomName": "r1"})

		var reason string
		expect(t, conns["p2"], entity.EventRoomError, &reason)
		assert.Equal(t, "only the room creator can start the game", reason)
	})

	t.Run("Out of turn moves are reported to the mover only", func(t *testing.T) {
		url := startServer(t)
		conns := setupRoom(t, url, 2, "p1", "p2")
		send(t, conns["p1"], actionStartGame, "r1")
		expect(t, conns["p2"], entity.EventGameStarted, nil)

		send(t, conns["p2"], actionPlayerMove, playerMoveRequest{Room: "r1", Move: entity.Move{SubBoard: 0, Player: "p2"}})

		var reason string
		expect(t, conns["p2"], entity.EventRoomError, &reason)
		assert.Contains(t, reason, "it's not your turn")
	})

	t.Run("Winner claims are relayed", func(t *testing.T) {
		url := startServer(t)
		conns := setupRoom(t, url, 2, "p1", "p2")

		send(t, conns["p1"], actionPlayerWon, playerWonRequest{Room: "r1", WinnerName: "p1"})

		var won entity.PlayerWon
		expect(t, conns["p2"], entity.EventPlayerWon, &won)
		assert.Equal(t, "p1", won.WinnerName)
	})
}

func TestServer_SyncStateRequest(t *testing.T) {
	url := startServer(t)
	conns := setupRoom(t, url, 2, "p1")
	conn := conns["p1"]

	t.Run("Requests for rooms without a match are ignored", func(t *testing.T) {
		// When: asking for state before the start and for an unknown room
		send(t, conn, actionSyncStateRequest, "r1")
		send(t, conn, actionSyncStateRequest, map[string]string{"roomName": "gone"})
		send(t, conn, actionGetRooms, nil)

		// Then: the next message is the room list
		message := read(t, conn)
		assert.Equal(t, entity.EventRoomsList, message.Action)
	})

	t.Run("The caller gets the snapshot", func(t *testing.T) {
		send(t, conn, actionStartGame, "r1")
		expect(t, conn, entity.EventGameStarted, nil)

		send(t, conn, actionSyncStateRequest, map[string]string{"roomName": "r1"})

		var snapshot entity.Snapshot
		expect(t, conn, entity.EventSyncState, &snapshot)
		assert.Equal(t, "p1", snapshot.CurrentPlayerID)
		assert.Len(t, snapshot.Players, 1)
	})
}

func TestServer_Closing(t *testing.T) {
	t.Run("Ending the game redirects every member and removes the room", func(t *testing.T) {
		// Given: a started game for two
		url := startServer(t)
		conns := setupRoom(t, url, 2, "p1", "p2")
		send(t, conns["p1"], actionStartGame, "r1")

		// When: p2 ends the game
		send(t, conns["p2"], actionEndGame, "r1")

		// Then: both are redirected and the room list is empty
		for _, id := range []string{"p1", "p2"} {
			expect(t, conns[id], entity.EventRedirectToMenu, nil)

			var rooms []*entity.Room
			expect(t, conns[id], entity.EventRoomsList, &rooms)
			assert.Empty(t, rooms)
		}
	})

	t.Run("Leaving keeps the room for the remaining members", func(t *testing.T) {
		url := startServer(t)
		conns := setupRoom(t, url, 3, "p1", "p2")

		send(t, conns["p2"], actionLeaveRoom, leaveRoomRequest{RoomName: "r1", PlayerID: "p2"})

		var room entity.Room
		expect(t, conns["p1"], entity.EventRoomJoined, &room)
		require.Len(t, room.Players, 1)
		assert.Equal(t, "p1", room.Players[0].ID)
	})

	t.Run("Exiting an unknown room is ignored", func(t *testing.T) {
		url := startServer(t)
		conn := dial(t, url, "p1")

		send(t, conn, actionExitGame, map[string]string{"roomName": "gone"})
		send(t, conn, actionGetRooms, nil)

		message := read(t, conn)
		assert.Equal(t, entity.EventRoomsList, message.Action)
	})
}
