package tutor

// SelectStrategy maps an analysis to the next tutoring move. The checks
// run in priority order and the first match wins, so confusion always
// beats a simultaneous question or a high mastery estimate.
func SelectStrategy(a Analysis) Strategy {
	switch {
	case len(a.ConfusionIndicators) > 0:
		return StrategyClarify
	case a.ContainsQuestion:
		return StrategyAnswerQuestion
	case a.MasteryLevel >= 4:
		return StrategyAdvance
	case a.NeedsEncouragement:
		return StrategyEncourage
	default:
		return StrategyElaborate
	}
}
