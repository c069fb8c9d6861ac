package engine

import (
	"math"

	"fraudguard/internal/config"
	"fraudguard/internal/model"
)

// Score combines triggered rules into one bounded risk score using the
// independent-probability union: s' = 1 - (1-s)(1-w). The result is clamped
// to [0,1] and rounded to 3 decimals, half away from zero. An empty rule
// set scores 0. The combination is order-independent up to float rounding.
func Score(rules []model.RuleTrigger, det config.DetectionConfig) float64 {
	score := 0.0
	for _, rule := range rules {
		w := weightFor(rule, det)
		score = 1 - (1-score)*(1-w)
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return math.Round(score*1000) / 1000
}

// weightFor looks up a rule weight with an explicit default for rule
// identifiers the table does not know about.
func weightFor(rule model.RuleTrigger, det config.DetectionConfig) float64 {
	if w, ok := det.Weights[string(rule)]; ok {
		return w
	}
	return det.DefaultWeight
}
