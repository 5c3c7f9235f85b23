package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidMoveRecord = errors.New("invalid move record")

type Move struct {
	SubBoard int    `json:"field"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Player   string `json:"player"`
}

func (that Move) Cell() Cell {
	return Cell{SubBoard: that.SubBoard, X: that.X, Y: that.Y}
}

// ClosedKey identifies this exact placement: the position plus the occupying player.
func (that Move) ClosedKey() string {
	return fmt.Sprintf("%d-%d-%d-%s", that.SubBoard, that.X, that.Y, that.Player)
}

// MoveRecord is one move log entry. It travels as [glyph, label, playerId].
type MoveRecord struct {
	Glyph    string
	Label    string
	PlayerID string
}

func (that MoveRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{that.Glyph, that.Label, that.PlayerID})
}

func (that *MoveRecord) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("failed to unmarshal move record: %w", err)
	}

	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("%w: %d elements", ErrInvalidMoveRecord, len(parts))
	}

	that.Glyph, that.Label = parts[0], parts[1]
	if len(parts) == 3 {
		that.PlayerID = parts[2]
	}

	return nil
}

// ReplayMoves rebuilds a board from a move log.
func ReplayMoves(records []MoveRecord) (Board, error) {
	var board Board

	for _, record := range records {
		cell, err := ParseLabel(record.Label)
		if err != nil {
			return Board{}, fmt.Errorf("failed to replay move: %w", err)
		}

		if record.PlayerID == "" {
			return Board{}, fmt.Errorf("%w: no player for %s", ErrInvalidMoveRecord, record.Label)
		}

		board.Set(cell, record.PlayerID)
	}

	return board, nil
}
