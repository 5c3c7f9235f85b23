package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/metatactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
)

// Inbound actions.
const (
	actionCreateRoom       = "create_room"
	actionJoinRoom         = "join_room"
	actionLeaveRoom        = "leave_room"
	actionGetRooms         = "get_rooms"
	actionStartGame        = "start_game"
	actionSyncStateRequest = "sync_state_request"
	actionPlayerMove       = "player_move"
	actionPlayerWon        = "player_won"
	actionExitGame         = "exit_game"
	actionEndGame          = "end_game"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Password   string         `json:"password,omitempty"`
	Player     *entity.Player `json:"player"`
	MaxPlayers int            `json:"maxPlayers,omitempty"`
}

type joinRoomRequest struct {
	Name     string         `json:"name"`
	Player   *entity.Player `json:"player"`
	Password string         `json:"password,omitempty"`
}

type leaveRoomRequest struct {
	RoomName string `json:"roomName"`
	PlayerID string `json:"playerId"`
}

type playerMoveRequest struct {
	Room string      `json:"room"`
	Move entity.Move `json:"move"`
}

type playerWonRequest struct {
	Room       string `json:"room"`
	WinnerName string `json:"winnerName"`
}

// encodeMessage builds the outbound frame. A nil payload is omitted.
func encodeMessage(action string, payload any) ([]byte, error) {
	message := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		message.Payload = raw
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

// decodeRoomName accepts either a bare JSON string or an object with roomName (or room).
func decodeRoomName(payload json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(payload, &name); err == nil {
		if name == "" {
			return "", apperror.ErrInvalidRoomName
		}
		return name, nil
	}

	var request struct {
		RoomName string `json:"roomName"`
		Room     string `json:"room"`
	}

	if err := json.Unmarshal(payload, &request); err != nil {
		return "", fmt.Errorf("failed to unmarshal room name: %w", err)
	}

	if request.RoomName != "" {
		return request.RoomName, nil
	}

	if request.Room != "" {
		return request.Room, nil
	}

	return "", apperror.ErrInvalidRoomName
}
