package save

const keyPlayers = "players"

// TryGetPlayerData returns the data section for the player with uid
func TryGetPlayerData(g *Game, uid string) (*Document, bool) {
	players, ok := g.Data.TrySub(keyPlayers)
	if !ok {
		return nil, false
	}
	return players.TrySub(uid)
}

// GetOrCreatePlayerData returns the data section for uid, creating it when absent
func GetOrCreatePlayerData(g *Game, uid string) *Document {
	return g.Data.Sub(keyPlayers).Sub(uid)
}

// PlayerDataUIDs lists players with saved data in save order
func PlayerDataUIDs(g *Game) []string {
	players, ok := g.Data.TrySub(keyPlayers)
	if !ok {
		return nil
	}
	return players.Keys()
}
