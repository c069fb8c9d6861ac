package engine

import (
	"fraudguard/internal/config"
	"fraudguard/internal/model"
)

// Evaluate runs the rule set against a transaction and the user's prior
// velocity state. It is deterministic and has no side effects: the returned
// state is a value, persisting it is the caller's job. Rules are evaluated
// in a fixed order so explanations are stable.
func Evaluate(txn model.Transaction, prior model.UserVelocityState, det config.DetectionConfig) ([]model.RuleTrigger, model.UserVelocityState) {
	rules := make([]model.RuleTrigger, 0, 3)

	if txn.Amount >= det.HighAmountThreshold {
		rules = append(rules, model.RuleHighAmount)
	}
	if txn.Country != det.HomeCountry && txn.Amount >= det.ForeignAmountThreshold {
		rules = append(rules, model.RuleForeignHigh)
	}

	count := 1
	windowMs := det.RapidFire.Window.Milliseconds()
	if prior.LastTimestampMs > 0 &&
		txn.TimestampMs-prior.LastTimestampMs <= windowMs &&
		txn.Amount >= det.RapidFire.MinAmount {
		count = prior.RapidCount + 1
		if count < 1 {
			count = 1
		}
		if count >= det.RapidFire.MinCount {
			rules = append(rules, model.RuleRapidFire)
		}
	}
	// A transaction below the amount floor resets the counter even inside
	// the window.

	next := model.UserVelocityState{
		LastTimestampMs: txn.TimestampMs,
		LastCountry:     txn.Country,
		RapidCount:      count,
	}
	return rules, next
}
