// Package observer keeps a participant's local copy of a room's match in step with the
// server's broadcasts and tracks open threats the same way the server does.
//
// The local threat set is additive: snapshots from the server are merged into it rather than
// replacing it, and every board-affecting event runs a reconciliation pass that drops threats
// whose target got occupied or whose requisite cells changed hands.
package observer

import (
	"slices"
	"sync"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/threat"
)

type Tracker struct {
	roomName string

	mu      sync.RWMutex
	match   *entity.Match
	players []*entity.Player
	started bool
}

func NewTracker(roomName string) *Tracker {
	return &Tracker{
		roomName: roomName,
		match:    entity.NewMatch(nil),
	}
}

func (that *Tracker) RoomName() string {
	return that.roomName
}

// OnMove applies an observed move to the local board and returns the threats it created.
// Moves on cells outside the board or on the blocked center are ignored.
func (that *Tracker) OnMove(move entity.Move) []entity.Threat {
	cell := move.Cell()
	if !cell.Valid() || cell.Blocked() || move.Player == "" {
		return nil
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.match.Board.Set(cell, move.Player)
	that.match.Moves = append(that.match.Moves, entity.MoveRecord{
		Glyph:    that.player(move.Player).Glyph(),
		Label:    cell.Label(),
		PlayerID: move.Player,
	})
	that.match.Close(move.ClosedKey())
	that.advance(move.Player)

	fresh := threat.Detect(&that.match.Board, move.Player, cell)
	that.match.OpenThreats = threat.Reconcile(&that.match.Board, that.match.OpenThreats, fresh)

	return fresh
}

// OnSnapshot adopts the authoritative board and membership and unions the server's threats
// with the locally tracked ones.
func (that *Tracker) OnSnapshot(snapshot *entity.Snapshot) {
	if snapshot == nil || snapshot.Match == nil {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	local := that.match.OpenThreats
	server := snapshot.Match.Clone()

	that.match = server
	that.match.OpenThreats = threat.Reconcile(&that.match.Board, local, server.OpenThreats)
	that.players = clonePlayers(snapshot.Players)
	that.started = true
}

func (that *Tracker) OnCurrentPlayer(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.match.CurrentPlayerID = playerID
}

// OnGameStarted resets the local match to an empty board.
func (that *Tracker) OnGameStarted(started entity.GameStarted) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.match = entity.NewMatch(started.Players)
	that.match.CurrentPlayerID = started.CurrentPlayer
	that.players = clonePlayers(started.Players)
	that.started = true
}

// OnRoomJoined refreshes membership from a room broadcast for the tracked room.
func (that *Tracker) OnRoomJoined(room *entity.Room) {
	if room == nil || room.Name != that.roomName {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.players = clonePlayers(room.Players)
}

func (that *Tracker) OnRoomsList(rooms []*entity.Room) {
	for _, room := range rooms {
		if room != nil && room.Name == that.roomName {
			that.OnRoomJoined(room)
			return
		}
	}
}

// Reset forgets the match, e.g. after redirect_to_menu.
func (that *Tracker) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.match = entity.NewMatch(nil)
	that.players = nil
	that.started = false
}

func (that *Tracker) Started() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.started
}

func (that *Tracker) Board() entity.Board {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.match.Board
}

func (that *Tracker) CurrentPlayerID() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.match.CurrentPlayerID
}

func (that *Tracker) Players() []*entity.Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return clonePlayers(that.players)
}

func (that *Tracker) Threats() []entity.Threat {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return slices.Clone(that.match.OpenThreats)
}

func (that *Tracker) ThreatsFor(playerID string) []entity.Threat {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var result []entity.Threat
	for _, t := range that.match.OpenThreats {
		if t.PlayerID == playerID {
			result = append(result, t)
		}
	}

	return result
}

// advance moves the local turn the same way the server does. Until the turn order is known
// the plain successor in the member list is used.
func (that *Tracker) advance(moverID string) {
	if len(that.players) == 0 {
		return
	}

	from := slices.IndexFunc(that.players, func(p *entity.Player) bool { return p.ID == moverID }) + 1

	next := that.match.NextInRotation(that.players, from)
	if next == nil {
		next = that.players[from%len(that.players)]
	}

	that.match.CurrentPlayerID = next.ID
}

func (that *Tracker) player(id string) *entity.Player {
	for _, p := range that.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func clonePlayers(players []*entity.Player) []*entity.Player {
	clones := make([]*entity.Player, 0, len(players))
	for _, p := range players {
		clones = append(clones, p.Clone())
	}
	return clones
}
