// Package client is the participant side of the websocket protocol: it follows one room and
// keeps an observer.Tracker in step with the server's broadcasts.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/observer"
	wsserver "github.com/rocketscienceinc/metatactoe-backend/transport/websocket"
)

const (
	actionJoinRoom         = "join_room"
	actionSyncStateRequest = "sync_state_request"
	actionLeaveRoom        = "leave_room"

	handshakeTimeout = 10 * time.Second
)

var (
	ErrRoomClosed     = errors.New("room closed by the server")
	ErrWatcherStopped = errors.New("watcher stopped")
)

type Watcher struct {
	logger  *slog.Logger
	dialer  *websocket.Dialer
	url     string
	player  *entity.Player
	tracker *observer.Tracker
}

// NewWatcher prepares a watcher that joins tracker's room as player on the /ws endpoint at serverURL.
func NewWatcher(logger *slog.Logger, serverURL string, player *entity.Player, tracker *observer.Tracker) *Watcher {
	return &Watcher{
		logger:  logger.With("component", "watcher", "room", tracker.RoomName()),
		dialer:  &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		url:     serverURL,
		player:  player,
		tracker: tracker,
	}
}

// Watch joins the room, asks for the current state and feeds every inbound event into the
// tracker. Canceling ctx leaves the room and returns nil; ErrRoomClosed is returned when the
// room goes away.
func (that *Watcher) Watch(ctx context.Context, password string) error {
	log := that.logger.With("method", "Watch")

	endpoint, err := that.endpoint()
	if err != nil {
		return err
	}

	conn, _, err := that.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	var (
		writeMu sync.Mutex
		left    bool
	)

	write := func(action string, payload any) error {
		writeMu.Lock()
		defer writeMu.Unlock()

		if left {
			return ErrWatcherStopped
		}
		return send(conn, action, payload)
	}

	// leaving frees the seat and piece key before the connection goes away
	stop := context.AfterFunc(ctx, func() {
		writeMu.Lock()
		left = true

		leave := map[string]string{"roomName": that.tracker.RoomName(), "playerId": that.player.ID}
		if err := send(conn, actionLeaveRoom, leave); err != nil {
			log.Warn("failed to leave room", "error", err)
		}

		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		writeMu.Unlock()

		_ = conn.Close()
	})
	defer stop()

	join := map[string]any{"name": that.tracker.RoomName(), "player": that.player, "password": password}
	if err = write(actionJoinRoom, join); err != nil {
		return that.stopped(ctx, err)
	}

	if err = write(actionSyncStateRequest, map[string]string{"roomName": that.tracker.RoomName()}); err != nil {
		return that.stopped(ctx, err)
	}

	log.Info("watching room", "player", that.player.ID)

	for {
		var message wsserver.Message
		if err = conn.ReadJSON(&message); err != nil {
			return that.stopped(ctx, fmt.Errorf("failed to read message: %w", err))
		}

		if err = that.handle(&message); err != nil {
			if errors.Is(err, ErrRoomClosed) {
				return err
			}
			log.Error("failed to handle message", "action", message.Action, "error", err)
		}
	}
}

func (that *Watcher) handle(message *wsserver.Message) error {
	log := that.logger.With("method", "handle", "action", message.Action)

	switch message.Action {
	case entity.EventMove:
		var move entity.Move
		if err := json.Unmarshal(message.Payload, &move); err != nil {
			return fmt.Errorf("failed to unmarshal move: %w", err)
		}

		for _, threat := range that.tracker.OnMove(move) {
			log.Info("new threat", "player", threat.PlayerID, "position", threat.Position)
		}
	case entity.EventSyncState:
		var snapshot entity.Snapshot
		if err := json.Unmarshal(message.Payload, &snapshot); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}

		that.tracker.OnSnapshot(&snapshot)
		log.Debug("state synced", "moves", len(snapshot.Moves), "threats", len(that.tracker.Threats()))
	case entity.EventUpdateCurrentPlayer:
		var playerID string
		if err := json.Unmarshal(message.Payload, &playerID); err != nil {
			return fmt.Errorf("failed to unmarshal current player: %w", err)
		}

		that.tracker.OnCurrentPlayer(playerID)
	case entity.EventGameStarted:
		var started entity.GameStarted
		if err := json.Unmarshal(message.Payload, &started); err != nil {
			return fmt.Errorf("failed to unmarshal game start: %w", err)
		}

		that.tracker.OnGameStarted(started)
		log.Info("game started", "currentPlayer", started.CurrentPlayer)
	case entity.EventRoomJoined:
		var room entity.Room
		if err := json.Unmarshal(message.Payload, &room); err != nil {
			return fmt.Errorf("failed to unmarshal room: %w", err)
		}

		that.tracker.OnRoomJoined(&room)
	case entity.EventRoomsList:
		var rooms []*entity.Room
		if err := json.Unmarshal(message.Payload, &rooms); err != nil {
			return fmt.Errorf("failed to unmarshal rooms: %w", err)
		}

		that.tracker.OnRoomsList(rooms)
	case entity.EventRoomError:
		var reason string
		_ = json.Unmarshal(message.Payload, &reason)
		log.Warn("server rejected a request", "reason", reason)
	case entity.EventPlayerWon:
		var won entity.PlayerWon
		_ = json.Unmarshal(message.Payload, &won)
		log.Info("player won", "winner", won.WinnerName)
	case entity.EventRedirectToMenu:
		that.tracker.Reset()
		return ErrRoomClosed
	default:
		log.Debug("ignoring unknown action")
	}

	return nil
}

// stopped hides errors caused by the watcher shutting down on purpose.
func (that *Watcher) stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (that *Watcher) endpoint() (string, error) {
	parsed, err := url.Parse(that.url)
	if err != nil {
		return "", fmt.Errorf("failed to parse server url: %w", err)
	}

	if parsed.Path == "" || parsed.Path == "/" {
		parsed.Path = "/ws"
	}

	query := parsed.Query()
	query.Set("playerId", that.player.ID)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func send(conn *websocket.Conn, action string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = conn.WriteJSON(wsserver.Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}

	return nil
}
