package entity

// Outbound event names.
const (
	EventRoomsList           = "rooms_list"
	EventRoomJoined          = "room_joined"
	EventRoomError           = "room_error"
	EventSyncState           = "sync_state"
	EventMove                = "move"
	EventUpdateCurrentPlayer = "update_current_player"
	EventGameStarted         = "game_started"
	EventPlayerWon           = "player_won"
	EventRedirectToMenu      = "redirect_to_menu"
)

// Event is a single broadcast unit; events are delivered in slice order.
type Event struct {
	Name    string
	Payload any
}

type GameStarted struct {
	Players       []*Player `json:"players"`
	CurrentPlayer string    `json:"currentPlayer"`
}

type PlayerWon struct {
	WinnerName string `json:"winnerName"`
}
