package entity

import "encoding/json"

const (
	MinCapacity     = 2
	MaxCapacity     = 5
	DefaultCapacity = 4
)

type Room struct {
	Name     string    `json:"name"`
	Password string    `json:"-"`
	Capacity int       `json:"maxPlayers"`
	Players  []*Player `json:"players"`
}

func NewRoom(name, password string, capacity int, creator *Player) *Room {
	return &Room{
		Name:     name,
		Password: password,
		Capacity: capacity,
		Players:  []*Player{creator},
	}
}

// MarshalJSON hides the password and exposes only whether one is set.
func (that Room) MarshalJSON() ([]byte, error) {
	type room Room

	return json.Marshal(struct {
		room
		HasPassword bool `json:"hasPassword"`
	}{
		room:        room(that),
		HasPassword: that.Password != "",
	})
}

// Creator returns players[0], or nil for an empty room.
func (that *Room) Creator() *Player {
	if len(that.Players) == 0 {
		return nil
	}
	return that.Players[0]
}

// IndexOf returns the index of the player in the live member list, or -1.
func (that *Room) IndexOf(playerID string) int {
	for i, player := range that.Players {
		if player.ID == playerID {
			return i
		}
	}
	return -1
}

func (that *Room) Has(playerID string) bool {
	return that.IndexOf(playerID) >= 0
}

func (that *Room) Player(playerID string) *Player {
	if i := that.IndexOf(playerID); i >= 0 {
		return that.Players[i]
	}
	return nil
}

// HoldsPieceKey reports whether a member other than exceptID already chose the key.
// Empty keys never collide.
func (that *Room) HoldsPieceKey(key, exceptID string) bool {
	if key == "" {
		return false
	}
	for _, player := range that.Players {
		if player.ID != exceptID && player.ChosenPieceKey == key {
			return true
		}
	}
	return false
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= that.Capacity
}

func (that *Room) Remove(playerID string) bool {
	i := that.IndexOf(playerID)
	if i < 0 {
		return false
	}
	that.Players = append(that.Players[:i], that.Players[i+1:]...)
	return true
}

func (that *Room) Clone() *Room {
	if that == nil {
		return nil
	}
	clone := *that
	clone.Players = clonePlayers(that.Players)
	return &clone
}
