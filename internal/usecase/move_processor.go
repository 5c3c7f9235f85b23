package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/metatactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/threat"
)

type matchStore interface {
	Update(name string, fn func(room *entity.Room, match *entity.Match) error) error
	Destroy(ctx context.Context, name string) (*entity.Room, error)
}

// MovePolicy selects how strictly moves are checked before they are applied.
type MovePolicy struct {
	EnforceTurnOrder bool
	RequireEmptyCell bool
}

func DefaultMovePolicy() MovePolicy {
	return MovePolicy{
		EnforceTurnOrder: true,
		RequireEmptyCell: true,
	}
}

// MoveOutcome is the result of a room changing state. Events are broadcast to Room.Players in order.
type MoveOutcome struct {
	Room    *entity.Room
	Threats []entity.Threat
	Events  []entity.Event
}

type MoveProcessor struct {
	logger *slog.Logger
	store  matchStore
	policy MovePolicy
}

func NewMoveProcessor(logger *slog.Logger, store matchStore, policy MovePolicy) *MoveProcessor {
	return &MoveProcessor{
		logger: logger,
		store:  store,
		policy: policy,
	}
}

// ProcessMove applies the move to the named room's match atomically.
func (that *MoveProcessor) ProcessMove(ctx context.Context, roomName string, move entity.Move) (*MoveOutcome, error) {
	log := that.logger.With("method", "ProcessMove", "room", roomName, "player", move.Player)

	var outcome *MoveOutcome

	err := that.store.Update(roomName, func(room *entity.Room, match *entity.Match) error {
		var err error
		outcome, err = that.Apply(room, match, move)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply move: %w", err)
	}

	log.DebugContext(ctx, "move applied", "cell", move.Cell().String(), "threats", threat.Labels(outcome.Threats))

	return outcome, nil
}

// Apply validates the move and writes it into match. room and match are mutated in place.
func (that *MoveProcessor) Apply(room *entity.Room, match *entity.Match, move entity.Move) (*MoveOutcome, error) {
	cell := move.Cell()

	if !cell.Valid() {
		return nil, fmt.Errorf("%w: %s out of range", apperror.ErrIllegalMove, cell)
	}

	if cell.Blocked() {
		return nil, fmt.Errorf("%w: %s is blocked", apperror.ErrIllegalMove, cell.Label())
	}

	if move.Player == "" {
		return nil, apperror.ErrMissingIdentity
	}

	if that.policy.EnforceTurnOrder && move.Player != match.CurrentPlayerID {
		return nil, apperror.ErrNotYourTurn
	}

	if that.policy.RequireEmptyCell && match.Board.At(cell) != entity.EmptyCell {
		return nil, fmt.Errorf("%w: %s is occupied", apperror.ErrIllegalMove, cell.Label())
	}

	match.Board.Set(cell, move.Player)
	match.Moves = append(match.Moves, entity.MoveRecord{
		Glyph:    room.Player(move.Player).Glyph(),
		Label:    cell.Label(),
		PlayerID: move.Player,
	})
	match.Close(move.ClosedKey())

	if next := match.NextInRotation(room.Players, room.IndexOf(move.Player)+1); next != nil {
		match.CurrentPlayerID = next.ID
	}

	fresh := threat.Detect(&match.Board, move.Player, cell)
	match.OpenThreats = threat.Reconcile(&match.Board, match.OpenThreats, fresh)

	return &MoveOutcome{
		Room:    room.Clone(),
		Threats: fresh,
		Events: []entity.Event{
			{Name: entity.EventMove, Payload: move},
			{Name: entity.EventSyncState, Payload: entity.NewSnapshot(room, match)},
			{Name: entity.EventUpdateCurrentPlayer, Payload: match.CurrentPlayerID},
		},
	}, nil
}

// EndMatch destroys the room after the game finished and redirects its members to the menu.
func (that *MoveProcessor) EndMatch(ctx context.Context, roomName string) (*MoveOutcome, error) {
	return that.close(ctx, "EndMatch", roomName)
}

// ExitMatch destroys the room when a member abandons the game.
func (that *MoveProcessor) ExitMatch(ctx context.Context, roomName string) (*MoveOutcome, error) {
	return that.close(ctx, "ExitMatch", roomName)
}

func (that *MoveProcessor) close(ctx context.Context, method, roomName string) (*MoveOutcome, error) {
	room, err := that.store.Destroy(ctx, roomName)
	if err != nil {
		return nil, fmt.Errorf("failed to destroy room: %w", err)
	}

	that.logger.Info("match closed", "method", method, "room", roomName, "players", len(room.Players))

	return &MoveOutcome{
		Room:   room,
		Events: []entity.Event{{Name: entity.EventRedirectToMenu}},
	}, nil
}
