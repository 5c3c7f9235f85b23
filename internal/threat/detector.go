// Package threat finds the open cells that would complete a line for a player.
//
// The same 3x3 line geometry is used twice: once for the nine positions inside a
// sub-board, and once for the nine sub-boards themselves at a fixed local offset
// (meta-lines).
package threat

import (
	"slices"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
)

// completions lists, for every index of a 3x3 grid, the partner sets of the lines
// through it. A set of four holds the diagonal corners through the center, where
// the completing index is 8 - partner.
var completions = [9][][]int{
	0: {{4, 8}, {1, 2}, {3, 6}},
	1: {{0, 2}, {4, 7}},
	2: {{4, 6}, {0, 1}, {5, 8}},
	3: {{4, 5}, {0, 6}},
	4: {{0, 2, 6, 8}, {3, 5}, {1, 7}},
	5: {{3, 4}, {2, 8}},
	6: {{2, 4}, {7, 8}, {0, 3}},
	7: {{6, 8}, {1, 4}},
	8: {{0, 4}, {6, 7}, {2, 5}},
}

// completing returns the indices that finish a line through current when partner
// is already owned.
func completing(current, partner int) []int {
	var result []int

	for _, set := range completions[current] {
		if !slices.Contains(set, partner) {
			continue
		}

		if len(set) == 4 {
			result = append(result, 8-partner)
			continue
		}

		for _, index := range set {
			if index != partner {
				result = append(result, index)
			}
		}
	}

	return result
}

// Detect returns the threats created by playerID having just played cell.
// It never mutates the board.
func Detect(board *entity.Board, playerID string, cell entity.Cell) []entity.Threat {
	if playerID == "" || !cell.Valid() {
		return nil
	}

	played := cell.Label()
	threats := make([]entity.Threat, 0)

	add := func(target, owned entity.Cell) {
		// IsOpen is false for the blocked center, so E5 is never reported.
		if !board.IsOpen(target) {
			return
		}

		threats = append(threats, entity.Threat{
			PlayerID: playerID,
			Position: []string{target.Label()},
			Requires: []string{played, owned.Label()},
		})
	}

	current := cell.Local()
	for partner := 0; partner < 9; partner++ {
		owned := entity.CellAt(cell.SubBoard, partner)
		if partner == current || board.At(owned) != playerID {
			continue
		}

		for _, index := range completing(current, partner) {
			add(entity.CellAt(cell.SubBoard, index), owned)
		}
	}

	for partner := 0; partner < entity.SubBoards; partner++ {
		owned := entity.Cell{SubBoard: partner, X: cell.X, Y: cell.Y}
		if partner == cell.SubBoard || board.At(owned) != playerID {
			continue
		}

		for _, index := range completing(cell.SubBoard, partner) {
			add(entity.Cell{SubBoard: index, X: cell.X, Y: cell.Y}, owned)
		}
	}

	return entity.DedupThreats(threats)
}

// Labels flattens threats into a deduplicated list of target labels.
func Labels(threats []entity.Threat) []string {
	labels := make([]string, 0, len(threats))
	for _, threat := range threats {
		for _, label := range threat.Position {
			if label != "" && !slices.Contains(labels, label) {
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// StillValid reports whether every target is still open and every requisite cell
// still belongs to the threat's player.
func StillValid(board *entity.Board, threat entity.Threat) bool {
	for _, label := range threat.Position {
		cell, err := entity.ParseLabel(label)
		if err != nil || !board.IsOpen(cell) {
			return false
		}
	}

	for _, label := range threat.Requires {
		cell, err := entity.ParseLabel(label)
		if err != nil || board.At(cell) != threat.PlayerID {
			return false
		}
	}

	return true
}

// Reconcile drops stale entries from existing, unions fresh and deduplicates.
func Reconcile(board *entity.Board, existing, fresh []entity.Threat) []entity.Threat {
	merged := make([]entity.Threat, 0, len(existing)+len(fresh))

	for _, threat := range existing {
		if StillValid(board, threat) {
			merged = append(merged, threat)
		}
	}

	for _, threat := range fresh {
		if StillValid(board, threat) {
			merged = append(merged, threat)
		}
	}

	return entity.DedupThreats(merged)
}
