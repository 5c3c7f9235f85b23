package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_Label(t *testing.T) {
	t.Run("Labels follow the 9x9 grid", func(t *testing.T) {
		cases := map[string]Cell{
			"A1": {SubBoard: 0, X: 0, Y: 0},
			"C1": {SubBoard: 0, X: 2, Y: 0},
			"D1": {SubBoard: 1, X: 0, Y: 0},
			"G3": {SubBoard: 2, X: 0, Y: 2},
			"E5": {SubBoard: 4, X: 1, Y: 1},
			"A4": {SubBoard: 3, X: 0, Y: 0},
			"I9": {SubBoard: 8, X: 2, Y: 2},
		}

		for label, cell := range cases {
			assert.Equal(t, label, cell.Label())
		}
	})

	t.Run("ParseLabel is the inverse of Label for every cell", func(t *testing.T) {
		for sub := 0; sub < SubBoards; sub++ {
			for local := 0; local < 9; local++ {
				// Given: a cell on the board
				cell := CellAt(sub, local)

				// When: parsing its label
				parsed, err := ParseLabel(cell.Label())

				// Then: the same cell comes back
				require.NoError(t, err)
				assert.Equal(t, cell, parsed)
			}
		}
	})

	t.Run("ParseLabel rejects labels off the grid", func(t *testing.T) {
		for _, label := range []string{"", "J1", "A0", "A10", "a1"} {
			_, err := ParseLabel(label)
			assert.ErrorIs(t, err, ErrInvalidLabel, label)
		}
	})
}

func TestBoard_IsOpen(t *testing.T) {
	t.Run("The blocked center is never open", func(t *testing.T) {
		// Given: an empty board
		var board Board

		// Then: the center of the center sub-board is closed while others are open
		assert.False(t, board.IsOpen(BlockedCell))
		assert.True(t, board.IsOpen(Cell{SubBoard: 4, X: 0, Y: 1}))
	})

	t.Run("Occupied cells are not open", func(t *testing.T) {
		// Given: a board with one piece
		var board Board
		board.Set(Cell{SubBoard: 2, X: 1, Y: 2}, "p1")

		// Then: that cell is closed
		assert.False(t, board.IsOpen(Cell{SubBoard: 2, X: 1, Y: 2}))
		assert.Equal(t, "p1", board.At(Cell{SubBoard: 2, X: 1, Y: 2}))
	})
}

func TestMoveRecord_JSON(t *testing.T) {
	t.Run("Travels as glyph, label and player id", func(t *testing.T) {
		// Given: a move record
		record := MoveRecord{Glyph: "x.png", Label: "B2", PlayerID: "p1"}

		// When: marshaling it
		data, err := json.Marshal(record)

		// Then: it is a three element array
		require.NoError(t, err)
		assert.JSONEq(t, `["x.png","B2","p1"]`, string(data))
	})

	t.Run("Accepts the two element form", func(t *testing.T) {
		var record MoveRecord

		err := json.Unmarshal([]byte(`["x.png","B2"]`), &record)

		require.NoError(t, err)
		assert.Equal(t, MoveRecord{Glyph: "x.png", Label: "B2"}, record)
	})

	t.Run("Rejects other shapes", func(t *testing.T) {
		var record MoveRecord

		err := json.Unmarshal([]byte(`["x.png"]`), &record)

		assert.ErrorIs(t, err, ErrInvalidMoveRecord)
	})
}

func TestReplayMoves(t *testing.T) {
	t.Run("Rebuilds the board from the log", func(t *testing.T) {
		// Given: a board and the log of the moves that produced it
		moves := []Move{
			{SubBoard: 0, X: 0, Y: 0, Player: "p1"},
			{SubBoard: 4, X: 2, Y: 1, Player: "p2"},
			{SubBoard: 8, X: 2, Y: 2, Player: "p1"},
		}

		var live Board
		records := make([]MoveRecord, 0, len(moves))
		for _, move := range moves {
			live.Set(move.Cell(), move.Player)
			records = append(records, MoveRecord{Glyph: "?", Label: move.Cell().Label(), PlayerID: move.Player})
		}

		// When: replaying the log
		replayed, err := ReplayMoves(records)

		// Then: both boards are identical
		require.NoError(t, err)
		assert.Equal(t, live, replayed)
	})

	t.Run("Fails without player identity", func(t *testing.T) {
		_, err := ReplayMoves([]MoveRecord{{Glyph: "?", Label: "A1"}})

		assert.ErrorIs(t, err, ErrInvalidMoveRecord)
	})
}
