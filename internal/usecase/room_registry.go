package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/metatactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
)

type LeavePolicy string

const (
	// LeavePolicyLiteral destroys the room when somebody is still left in it and keeps it once it is empty.
	LeavePolicyLiteral LeavePolicy = "literal"
	// LeavePolicyFixed destroys the room when its last member leaves.
	LeavePolicyFixed LeavePolicy = "fixed"
)

type roomMirror interface {
	Save(ctx context.Context, room *entity.Room) error
	Delete(ctx context.Context, name string) error
}

type RegistryOptions struct {
	DefaultCapacity int
	EnforceCapacity bool
	LeavePolicy     LeavePolicy
}

func DefaultRegistryOptions() RegistryOptions {
	return RegistryOptions{
		DefaultCapacity: entity.DefaultCapacity,
		EnforceCapacity: true,
		LeavePolicy:     LeavePolicyFixed,
	}
}

// LeaveResult describes what happened to a room after a member left.
type LeaveResult struct {
	// Destroyed is true when the room and its match are gone.
	Destroyed bool
	// Room is the room after removal. It is set only when the room survived.
	Room *entity.Room
	// CurrentPlayerID is set when the turn moved away from the leaving player.
	CurrentPlayerID string
	// MatchEnded is true when nobody from the turn order is left to take over the turn.
	MatchEnded bool
}

// RoomRegistry is the process-wide table of rooms and their matches.
type RoomRegistry struct {
	logger  *slog.Logger
	mirror  roomMirror
	options RegistryOptions

	mu      sync.RWMutex
	rooms   map[string]*entity.Room
	matches map[string]*entity.Match
	order   []string
}

func NewRoomRegistry(logger *slog.Logger, mirror roomMirror, options RegistryOptions) *RoomRegistry {
	if options.DefaultCapacity == 0 {
		options.DefaultCapacity = entity.DefaultCapacity
	}

	if options.LeavePolicy == "" {
		options.LeavePolicy = LeavePolicyFixed
	}

	return &RoomRegistry{
		logger:  logger,
		mirror:  mirror,
		options: options,

		rooms:   make(map[string]*entity.Room),
		matches: make(map[string]*entity.Match),
	}
}

func (that *RoomRegistry) Create(ctx context.Context, name, password string, capacity int, creator *entity.Player) (*entity.Room, error) {
	log := that.logger.With("method", "Create", "room", name)

	if name == "" {
		return nil, apperror.ErrInvalidRoomName
	}

	if capacity == 0 {
		capacity = that.options.DefaultCapacity
	}

	that.mu.Lock()

	if _, ok := that.rooms[name]; ok {
		that.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomExists, name)
	}

	if creator == nil || creator.ID == "" {
		that.mu.Unlock()
		return nil, apperror.ErrMissingIdentity
	}

	if capacity < entity.MinCapacity || capacity > entity.MaxCapacity {
		that.mu.Unlock()
		return nil, fmt.Errorf("%w: got %d", apperror.ErrInvalidCapacity, capacity)
	}

	room := entity.NewRoom(name, password, capacity, creator.Clone())
	that.rooms[name] = room
	that.order = append(that.order, name)
	created := room.Clone()

	that.mu.Unlock()

	that.save(ctx, created)
	log.Info("room created", "creator", creator.ID, "capacity", capacity)

	return created, nil
}

// Join adds the player to the room. Joining twice with the same id changes nothing.
func (that *RoomRegistry) Join(ctx context.Context, name string, player *entity.Player, password string) (*entity.Room, error) {
	log := that.logger.With("method", "Join", "room", name)

	if player == nil || player.ID == "" {
		return nil, apperror.ErrMissingIdentity
	}

	that.mu.Lock()

	room, ok := that.rooms[name]
	if !ok {
		that.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	if room.Has(player.ID) {
		joined := room.Clone()
		that.mu.Unlock()

		log.Debug("player already in room", "player", player.ID)
		return joined, nil
	}

	if room.Password != "" && room.Password != password {
		that.mu.Unlock()
		return nil, apperror.ErrWrongPassword
	}

	if room.HoldsPieceKey(player.ChosenPieceKey, player.ID) {
		that.mu.Unlock()
		return nil, apperror.ErrSymbolTaken
	}

	if that.options.EnforceCapacity && room.IsFull() {
		that.mu.Unlock()
		return nil, fmt.Errorf("%w: %d of %d", apperror.ErrRoomFull, len(room.Players), room.Capacity)
	}

	room.Players = append(room.Players, player.Clone())
	joined := room.Clone()

	that.mu.Unlock()

	that.save(ctx, joined)
	log.Info("player joined", "player", player.ID, "players", len(joined.Players))

	return joined, nil
}

func (that *RoomRegistry) Leave(ctx context.Context, name, playerID string) (*LeaveResult, error) {
	log := that.logger.With("method", "Leave", "room", name, "player", playerID)

	that.mu.Lock()

	room, ok := that.rooms[name]
	if !ok {
		that.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	index := room.IndexOf(playerID)
	room.Remove(playerID)

	destroy := len(room.Players) == 0
	if that.options.LeavePolicy == LeavePolicyLiteral {
		destroy = len(room.Players) != 0
	}

	if destroy {
		that.remove(name)
		that.mu.Unlock()

		that.delete(ctx, name)
		log.Info("room destroyed on leave", "policy", that.options.LeavePolicy)

		return &LeaveResult{Destroyed: true}, nil
	}

	result := &LeaveResult{}

	match := that.matches[name]
	if match != nil && index >= 0 && match.CurrentPlayerID == playerID && len(room.Players) > 0 {
		if next := match.NextInRotation(room.Players, index); next != nil {
			match.CurrentPlayerID = next.ID
			result.CurrentPlayerID = next.ID
		} else {
			// only late joiners remain; the room stays open for a new match
			delete(that.matches, name)
			result.MatchEnded = true
		}
	}

	result.Room = room.Clone()
	that.mu.Unlock()

	that.save(ctx, result.Room)
	log.Info("player left", "players", len(result.Room.Players), "matchEnded", result.MatchEnded)

	return result, nil
}

// List returns every room in creation order.
func (that *RoomRegistry) List() []*entity.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*entity.Room, 0, len(that.order))
	for _, name := range that.order {
		rooms = append(rooms, that.rooms[name].Clone())
	}

	return rooms
}

func (that *RoomRegistry) Get(name string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	return room.Clone(), nil
}

func (that *RoomRegistry) Match(name string) (*entity.Match, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if _, ok := that.rooms[name]; !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	match, ok := that.matches[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrMatchNotStarted, name)
	}

	return match.Clone(), nil
}

// Snapshot returns the match together with the room's live players.
func (that *RoomRegistry) Snapshot(name string) (*entity.Snapshot, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	match, ok := that.matches[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrMatchNotStarted, name)
	}

	return entity.NewSnapshot(room, match), nil
}

// Start creates the room's match. Only players[0] may start it.
func (that *RoomRegistry) Start(ctx context.Context, name, requesterID string) (*entity.Room, *entity.Match, error) {
	log := that.logger.With("method", "Start", "room", name)

	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	creator := room.Creator()
	if creator == nil || creator.ID != requesterID {
		return nil, nil, apperror.ErrNotCreator
	}

	if _, ok = that.matches[name]; ok {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrMatchAlreadyLive, name)
	}

	match := entity.NewMatch(room.Players)
	that.matches[name] = match

	log.InfoContext(ctx, "match started", "players", len(match.TurnOrder), "currentPlayer", match.CurrentPlayerID)

	return room.Clone(), match.Clone(), nil
}

// Destroy removes the room and its match and returns the room as it was.
func (that *RoomRegistry) Destroy(ctx context.Context, name string) (*entity.Room, error) {
	that.mu.Lock()

	room, ok := that.rooms[name]
	if !ok {
		that.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	that.remove(name)
	that.mu.Unlock()

	that.delete(ctx, name)
	that.logger.Info("room destroyed", "method", "Destroy", "room", name)

	return room, nil
}

// Update runs fn against the live room and match while holding the write lock.
func (that *RoomRegistry) Update(name string, fn func(room *entity.Room, match *entity.Match) error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[name]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, name)
	}

	match, ok := that.matches[name]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrMatchNotStarted, name)
	}

	return fn(room, match)
}

// remove must be called with the write lock held.
func (that *RoomRegistry) remove(name string) {
	delete(that.rooms, name)
	delete(that.matches, name)

	for i, existing := range that.order {
		if existing == name {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}
}

func (that *RoomRegistry) save(ctx context.Context, room *entity.Room) {
	if err := that.mirror.Save(ctx, room); err != nil {
		that.logger.Error("failed to mirror room", "method", "save", "room", room.Name, "error", err)
	}
}

func (that *RoomRegistry) delete(ctx context.Context, name string) {
	if err := that.mirror.Delete(ctx, name); err != nil {
		that.logger.Error("failed to remove mirrored room", "method", "delete", "room", name, "error", err)
	}
}
