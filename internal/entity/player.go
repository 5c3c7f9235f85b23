package entity

// Player is a room member. ID is stable across reconnects; ChosenPieceKey is unique within a room.
type Player struct {
	ID             string `json:"id"`
	DisplayName    string `json:"name"`
	PieceGlyph     string `json:"symbol"`
	AvatarImage    string `json:"avatar,omitempty"`
	ChosenPieceKey string `json:"metaSymbol,omitempty"`
}

// Glyph returns the piece glyph used in the move log.
func (that *Player) Glyph() string {
	if that == nil || that.PieceGlyph == "" {
		return UnknownGlyph
	}
	return that.PieceGlyph
}

func (that *Player) Clone() *Player {
	if that == nil {
		return nil
	}
	clone := *that
	return &clone
}

func clonePlayers(players []*Player) []*Player {
	clones := make([]*Player, 0, len(players))
	for _, player := range players {
		clones = append(clones, player.Clone())
	}
	return clones
}
