package engine

import (
	"testing"

	"fraudguard/internal/model"
)

func txn(amount float64, country string, tsMs int64) model.Transaction {
	return model.Transaction{
		TxnID:       "t-1",
		UserID:      "u-1",
		Amount:      amount,
		Currency:    "AUD",
		Country:     country,
		TimestampMs: tsMs,
	}
}

func TestFirstTransactionStartsCounterAtOne(t *testing.T) {
	det := testConfig().Detection
	rules, next := Evaluate(txn(250, "AU", 1_000_000), model.UserVelocityState{}, det)
	if len(rules) != 0 {
		t.Fatalf("rules: %v", rules)
	}
	if next.RapidCount != 1 {
		t.Fatalf("counter: %d", next.RapidCount)
	}
	if next.LastTimestampMs != 1_000_000 || next.LastCountry != "AU" {
		t.Fatalf("state: %+v", next)
	}
}

func TestRapidFireCounterProgression(t *testing.T) {
	det := testConfig().Detection
	prior := model.UserVelocityState{}
	base := int64(1_000_000)
	for i := 0; i < 2; i++ {
		var rules []model.RuleTrigger
		rules, prior = Evaluate(txn(250, "AU", base+int64(i)*20_000), prior, det)
		if hasRule(rules, model.RuleRapidFire) {
			t.Fatalf("rapid fire on transaction %d", i+1)
		}
	}
	rules, next := Evaluate(txn(250, "AU", base+40_000), prior, det)
	if !hasRule(rules, model.RuleRapidFire) {
		t.Fatalf("expected rapid fire on third qualifying transaction")
	}
	if next.RapidCount != 3 {
		t.Fatalf("counter: %d", next.RapidCount)
	}

	// Fourth qualifying transaction keeps triggering.
	rules, next = Evaluate(txn(250, "AU", base+55_000), next, det)
	if !hasRule(rules, model.RuleRapidFire) || next.RapidCount != 4 {
		t.Fatalf("fourth transaction: rules %v counter %d", rules, next.RapidCount)
	}
}

func TestRapidFireResetOutsideWindow(t *testing.T) {
	det := testConfig().Detection
	prior := model.UserVelocityState{LastTimestampMs: 1_000_000, RapidCount: 2, LastCountry: "AU"}
	rules, next := Evaluate(txn(250, "AU", 1_000_000+61_000), prior, det)
	if hasRule(rules, model.RuleRapidFire) {
		t.Fatalf("rapid fire outside window")
	}
	if next.RapidCount != 1 {
		t.Fatalf("counter: %d", next.RapidCount)
	}
}

func TestRapidFireResetBelowAmountFloor(t *testing.T) {
	det := testConfig().Detection
	prior := model.UserVelocityState{LastTimestampMs: 1_000_000, RapidCount: 2, LastCountry: "AU"}
	// Sub-200 inside the window still resets the counter.
	rules, next := Evaluate(txn(150, "AU", 1_000_000+10_000), prior, det)
	if hasRule(rules, model.RuleRapidFire) {
		t.Fatalf("rapid fire below floor")
	}
	if next.RapidCount != 1 {
		t.Fatalf("counter: %d", next.RapidCount)
	}
}

func TestWindowBoundaryInclusive(t *testing.T) {
	det := testConfig().Detection
	prior := model.UserVelocityState{LastTimestampMs: 1_000_000, RapidCount: 2, LastCountry: "AU"}
	rules, next := Evaluate(txn(250, "AU", 1_000_000+60_000), prior, det)
	if !hasRule(rules, model.RuleRapidFire) {
		t.Fatalf("expected rapid fire at exact window boundary")
	}
	if next.RapidCount != 3 {
		t.Fatalf("counter: %d", next.RapidCount)
	}
}

func TestThresholdBoundariesInclusive(t *testing.T) {
	det := testConfig().Detection
	rules, _ := Evaluate(txn(1000, "AU", 0), model.UserVelocityState{}, det)
	if !hasRule(rules, model.RuleHighAmount) {
		t.Fatalf("high amount at exact threshold")
	}
	rules, _ = Evaluate(txn(500, "NZ", 0), model.UserVelocityState{}, det)
	if !hasRule(rules, model.RuleForeignHigh) {
		t.Fatalf("foreign high at exact threshold")
	}
	rules, _ = Evaluate(txn(999.99, "AU", 0), model.UserVelocityState{}, det)
	if len(rules) != 0 {
		t.Fatalf("rules below threshold: %v", rules)
	}
}

func TestStateUpdatedOnEveryTransaction(t *testing.T) {
	det := testConfig().Detection
	prior := model.UserVelocityState{LastTimestampMs: 1_000_000, RapidCount: 2, LastCountry: "AU"}
	_, next := Evaluate(txn(10, "NZ", 2_000_000), prior, det)
	if next.LastTimestampMs != 2_000_000 || next.LastCountry != "NZ" {
		t.Fatalf("state not updated: %+v", next)
	}
}

func TestExplanationOrderFixed(t *testing.T) {
	det := testConfig().Detection
	prior := model.UserVelocityState{LastTimestampMs: 1_000_000, RapidCount: 2, LastCountry: "US"}
	rules, _ := Evaluate(txn(2000, "US", 1_000_000+5_000), prior, det)
	want := []model.RuleTrigger{model.RuleHighAmount, model.RuleForeignHigh, model.RuleRapidFire}
	if len(rules) != len(want) {
		t.Fatalf("rules: %v", rules)
	}
	for i, r := range want {
		if rules[i] != r {
			t.Fatalf("order mismatch at %d: %v", i, rules)
		}
	}
}
