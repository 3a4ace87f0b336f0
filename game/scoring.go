package game

const maxQuestionScore = 1000

// pointsForRank returns the award for being the nth player to answer a
// question correctly, rank 1 being first. The award halves with each later
// rank and bottoms out at zero.
func pointsForRank(rank int) int {
	if rank < 1 {
		return 0
	}
	return maxQuestionScore >> (rank - 1)
}

// winnerByScore picks the highest scorer, breaking ties in favor of the
// player who registered first.
func winnerByScore(scores map[string]int, joinOrder []string) string {
	winner := ""
	best := -1
	for _, playerId := range joinOrder {
		if score := scores[playerId]; score > best {
			winner = playerId
			best = score
		}
	}
	return winner
}
