package scoring

import "quizcraft/backend/models"

// Classify maps a score to a mastery level. Thresholds are checked highest
// first with >=, so a tie always lands on the higher level. Total over every
// integer, not just 0-100.
func Classify(score int) models.MasteryLevel {
	switch {
	case score >= 90:
		return models.MasteryMastered
	case score >= 75:
		return models.MasteryAdvanced
	case score >= 60:
		return models.MasteryIntermediate
	case score >= 40:
		return models.MasteryBeginner
	default:
		return models.MasteryNotStarted
	}
}
