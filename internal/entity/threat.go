package entity

import "strings"

// Threat is an open cell (Position) that would complete a line for PlayerID.
// Requires lists the cells the player must still own for the threat to stand.
type Threat struct {
	PlayerID string   `json:"playerId"`
	Position []string `json:"position"`
	Requires []string `json:"requires,omitempty"`
}

func (that Threat) Key() string {
	return that.PlayerID + ":" + strings.Join(that.Position, ",")
}

// DedupThreats keeps the first threat for each key, preserving order.
func DedupThreats(threats []Threat) []Threat {
	seen := make(map[string]struct{}, len(threats))
	result := make([]Threat, 0, len(threats))

	for _, threat := range threats {
		key := threat.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, threat)
	}

	return result
}

func cloneThreats(threats []Threat) []Threat {
	clones := make([]Threat, 0, len(threats))
	for _, threat := range threats {
		clones = append(clones, Threat{
			PlayerID: threat.PlayerID,
			Position: append([]string(nil), threat.Position...),
			Requires: append([]string(nil), threat.Requires...),
		})
	}
	return clones
}
