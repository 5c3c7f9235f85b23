package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/metatactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/usecase"
)

func (that *Server) handleCreateRoom(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleCreateRoom")

	var req createRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	room, err := that.registry.Create(ctx, req.Name, req.Password, req.MaxPlayers, req.Player)
	if err != nil {
		log.Info("failed to create room", "room", req.Name, "error", err)
		that.sendError(client, err)
		return nil
	}

	client.playerID = req.Player.ID
	that.subscribe(client, room.Name)

	that.broadcastAll(entity.EventRoomsList, that.registry.List())
	that.emit(client, entity.EventRoomJoined, room)

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleJoinRoom")

	var req joinRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	room, err := that.registry.Join(ctx, req.Name, req.Player, req.Password)
	if err != nil {
		log.Info("failed to join room", "room", req.Name, "error", err)
		that.sendError(client, err)
		return nil
	}

	client.playerID = req.Player.ID
	that.subscribe(client, room.Name)
	that.broadcast(room.Name, entity.EventRoomJoined, room)

	// a match in progress is replayed to the joiner only
	if snapshot, err := that.registry.Snapshot(room.Name); err == nil {
		that.emit(client, entity.EventSyncState, snapshot)
	}

	return nil
}

func (that *Server) handleLeaveRoom(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleLeaveRoom")

	var req leaveRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if req.PlayerID == "" {
		req.PlayerID = client.playerID
	}

	result, err := that.registry.Leave(ctx, req.RoomName, req.PlayerID)
	if err != nil {
		return that.ignoreMissing(log, req.RoomName, err)
	}

	if result.Destroyed {
		that.broadcast(req.RoomName, entity.EventRedirectToMenu, nil)
		that.dropGroup(req.RoomName)
		that.broadcastAll(entity.EventRoomsList, that.registry.List())

		return nil
	}

	that.broadcast(req.RoomName, entity.EventRoomJoined, result.Room)
	if result.CurrentPlayerID != "" || result.MatchEnded {
		that.broadcast(req.RoomName, entity.EventUpdateCurrentPlayer, result.CurrentPlayerID)
	}

	if len(result.Room.Players) > 0 {
		for _, leaver := range that.membersOf(req.RoomName, req.PlayerID) {
			that.unsubscribe(leaver)
		}
	}

	return nil
}

func (that *Server) handleGetRooms(_ context.Context, client *Client, _ *Message) error {
	that.emit(client, entity.EventRoomsList, that.registry.List())
	return nil
}

func (that *Server) handleStartGame(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleStartGame")

	roomName, err := decodeRoomName(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to read room name: %w", err)
	}

	room, match, err := that.registry.Start(ctx, roomName, client.playerID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return that.ignoreMissing(log, roomName, err)
	}

	if err != nil {
		log.Info("failed to start game", "room", roomName, "error", err)
		that.sendError(client, err)
		return nil
	}

	that.broadcast(room.Name, entity.EventGameStarted, entity.GameStarted{
		Players:       room.Players,
		CurrentPlayer: match.CurrentPlayerID,
	})

	log.Info("game started", "room", room.Name, "players", len(match.TurnOrder))

	return nil
}

func (that *Server) handleSyncStateRequest(_ context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleSyncStateRequest")

	roomName, err := decodeRoomName(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to read room name: %w", err)
	}

	snapshot, err := that.registry.Snapshot(roomName)
	if err != nil {
		return that.ignoreMissing(log, roomName, err)
	}

	that.emit(client, entity.EventSyncState, snapshot)

	return nil
}

func (that *Server) handlePlayerMove(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handlePlayerMove")

	var req playerMoveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if req.Move.Player == "" {
		req.Move.Player = client.playerID
	}

	outcome, err := that.processor.ProcessMove(ctx, req.Room, req.Move)
	if errors.Is(err, apperror.ErrRoomNotFound) || errors.Is(err, apperror.ErrMatchNotStarted) {
		return that.ignoreMissing(log, req.Room, err)
	}

	if err != nil {
		log.Info("move rejected", "room", req.Room, "player", req.Move.Player, "error", err)
		that.sendError(client, err)
		return nil
	}

	that.broadcastOutcome(req.Room, outcome)

	return nil
}

// handlePlayerWon relays the claim as is; the server does not verify it.
func (that *Server) handlePlayerWon(_ context.Context, _ *Client, msg *Message) error {
	var req playerWonRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	that.broadcast(req.Room, entity.EventPlayerWon, entity.PlayerWon{WinnerName: req.WinnerName})

	return nil
}

func (that *Server) handleExitGame(ctx context.Context, _ *Client, msg *Message) error {
	return that.closeRoom(ctx, "handleExitGame", msg, that.processor.ExitMatch)
}

func (that *Server) handleEndGame(ctx context.Context, _ *Client, msg *Message) error {
	return that.closeRoom(ctx, "handleEndGame", msg, that.processor.EndMatch)
}

func (that *Server) closeRoom(
	ctx context.Context,
	method string,
	msg *Message,
	closeFn func(context.Context, string) (*usecase.MoveOutcome, error),
) error {
	log := that.logger.With("method", method)

	roomName, err := decodeRoomName(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to read room name: %w", err)
	}

	outcome, err := closeFn(ctx, roomName)
	if err != nil {
		return that.ignoreMissing(log, roomName, err)
	}

	that.broadcastOutcome(roomName, outcome)
	that.dropGroup(roomName)
	that.broadcastAll(entity.EventRoomsList, that.registry.List())

	return nil
}

func (that *Server) broadcastOutcome(room string, outcome *usecase.MoveOutcome) {
	for _, event := range outcome.Events {
		that.broadcast(room, event.Name, event.Payload)
	}
}

func (that *Server) sendError(client *Client, err error) {
	that.emit(client, entity.EventRoomError, err.Error())
}

// ignoreMissing swallows errors about rooms or matches that are already gone; such messages
// usually race a room being torn down.
func (that *Server) ignoreMissing(log *slog.Logger, room string, err error) error {
	if errors.Is(err, apperror.ErrRoomNotFound) || errors.Is(err, apperror.ErrMatchNotStarted) {
		log.Debug("ignoring message for a missing room", "room", room, "error", err)
		return nil
	}

	return err
}
