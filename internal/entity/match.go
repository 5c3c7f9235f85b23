package entity

import "slices"

type Match struct {
	Board           Board        `json:"board"`
	TurnOrder       []*Player    `json:"turnOrder"`
	CurrentPlayerID string       `json:"currentPlayerId"`
	Moves           []MoveRecord `json:"moves"`
	ClosedCells     []string     `json:"closedCells"`
	OpenThreats     []Threat     `json:"winningPositions"`
}

// NewMatch starts a match with an empty board; players[0] moves first.
func NewMatch(players []*Player) *Match {
	match := &Match{
		TurnOrder:   clonePlayers(players),
		Moves:       []MoveRecord{},
		ClosedCells: []string{},
		OpenThreats: []Threat{},
	}

	if len(players) > 0 {
		match.CurrentPlayerID = players[0].ID
	}

	return match
}

func (that *Match) InTurnOrder(playerID string) bool {
	return slices.ContainsFunc(that.TurnOrder, func(player *Player) bool {
		return player.ID == playerID
	})
}

// NextInRotation walks players cyclically starting at index from and returns the first one
// that is part of the turn order, or nil.
func (that *Match) NextInRotation(players []*Player, from int) *Player {
	for step := 0; step < len(players); step++ {
		candidate := players[(from+step)%len(players)]
		if that.InTurnOrder(candidate.ID) {
			return candidate
		}
	}

	return nil
}

// Close records a placement key. Keys are never removed.
func (that *Match) Close(key string) {
	if that.IsClosed(key) {
		return
	}
	that.ClosedCells = append(that.ClosedCells, key)
}

func (that *Match) IsClosed(key string) bool {
	return slices.Contains(that.ClosedCells, key)
}

func (that *Match) Clone() *Match {
	if that == nil {
		return nil
	}

	return &Match{
		Board:           that.Board,
		TurnOrder:       clonePlayers(that.TurnOrder),
		CurrentPlayerID: that.CurrentPlayerID,
		Moves:           slices.Clone(that.Moves),
		ClosedCells:     slices.Clone(that.ClosedCells),
		OpenThreats:     cloneThreats(that.OpenThreats),
	}
}

// Snapshot is the sync_state payload: the match plus the room's live players.
type Snapshot struct {
	*Match
	Players []*Player `json:"players"`
}

func NewSnapshot(room *Room, match *Match) *Snapshot {
	return &Snapshot{
		Match:   match.Clone(),
		Players: clonePlayers(room.Players),
	}
}
