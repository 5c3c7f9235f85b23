package entity

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	EmptyCell    = ""
	UnknownGlyph = "?"

	SubBoards = 9
	SideSize  = 3

	columnLetters = "ABCDEFGHI"
)

var ErrInvalidLabel = errors.New("invalid cell label")

// BlockedCell is the center of the center sub-board. It is never playable.
var BlockedCell = Cell{SubBoard: 4, X: 1, Y: 1}

// Board is indexed as [subBoard][x][y]; x is the column and y the row inside a sub-board.
type Board [SubBoards][SideSize][SideSize]string

type Cell struct {
	SubBoard int `json:"field"`
	X        int `json:"x"`
	Y        int `json:"y"`
}

func (that Cell) Valid() bool {
	return that.SubBoard >= 0 && that.SubBoard < SubBoards &&
		that.X >= 0 && that.X < SideSize &&
		that.Y >= 0 && that.Y < SideSize
}

func (that Cell) Blocked() bool {
	return that == BlockedCell
}

// Local is the row-major position of the cell inside its sub-board.
func (that Cell) Local() int {
	return that.Y*SideSize + that.X
}

// Label addresses the cell on the 9x9 grid: column A..I, row 1..9.
func (that Cell) Label() string {
	column := columnLetters[(that.SubBoard%SideSize)*SideSize+that.X]
	row := (that.SubBoard/SideSize)*SideSize + that.Y + 1

	return string(column) + strconv.Itoa(row)
}

func (that Cell) String() string {
	if !that.Valid() {
		return fmt.Sprintf("(%d,%d,%d)", that.SubBoard, that.X, that.Y)
	}
	return that.Label()
}

// CellAt builds a cell from a sub-board index and a row-major local position.
func CellAt(subBoard, local int) Cell {
	return Cell{SubBoard: subBoard, X: local % SideSize, Y: local / SideSize}
}

// ParseLabel is the inverse of Cell.Label.
func ParseLabel(label string) (Cell, error) {
	if len(label) != 2 {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	column := int(label[0] - 'A')
	row := int(label[1] - '1')
	if column < 0 || column >= SubBoards || row < 0 || row >= SubBoards {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	return Cell{
		SubBoard: (row/SideSize)*SideSize + column/SideSize,
		X:        column % SideSize,
		Y:        row % SideSize,
	}, nil
}

func (that *Board) At(cell Cell) string {
	return that[cell.SubBoard][cell.X][cell.Y]
}

func (that *Board) Set(cell Cell, playerID string) {
	that[cell.SubBoard][cell.X][cell.Y] = playerID
}

// IsOpen reports whether the cell is empty and playable.
func (that *Board) IsOpen(cell Cell) bool {
	return !cell.Blocked() && that.At(cell) == EmptyCell
}
