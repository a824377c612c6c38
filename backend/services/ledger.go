package services

// Points and level constants. Total points and experience are accumulated
// through a single path (attempts and achievement bonuses alike), so the
// stored totals always equal the sum over attempt and achievement rows.
const (
	// BasePoints is granted for every recorded attempt regardless of score.
	BasePoints = 10

	// PointsPerLevel is the experience cost of one level.
	PointsPerLevel = 100
)

// AttemptPoints computes the points earned by a single attempt.
func AttemptPoints(score int) int {
	return BasePoints + score/10*2
}

// LevelForXP derives the current level from total experience. The level is
// always recomputed from the stored XP rather than incremented, so it can
// never drift from the ledger.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/PointsPerLevel + 1
}
