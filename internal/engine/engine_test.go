package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"fraudguard/internal/config"
	"fraudguard/internal/model"
	"fraudguard/internal/normalize"
	"fraudguard/internal/state"
)

func testConfig() *config.Config {
	return config.DefaultConfig()
}

func rawTxn(user string, amount float64, country string, tsMs int64) normalize.RawTransaction {
	return normalize.RawTransaction{
		UserID:      user,
		Amount:      amount,
		Currency:    "AUD",
		Merchant:    "acme-store",
		Channel:     "web",
		Country:     country,
		City:        "Sydney",
		DeviceID:    "dev-1",
		TimestampMs: tsMs,
	}
}

func TestHighAmountHomeCountry(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, state.NewMemory())
	decision, err := proc.Process(context.Background(), rawTxn("u1", 1500, "AU", 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(decision.Rules) != 1 || decision.Rules[0] != model.RuleHighAmount {
		t.Fatalf("rules: %v", decision.Rules)
	}
	if decision.Risk != 0.6 {
		t.Fatalf("risk: %v", decision.Risk)
	}
	if decision.AlertSent {
		t.Fatalf("unexpected alert at risk 0.6")
	}
	if decision.Directive != nil {
		t.Fatalf("directive should be nil without alert")
	}
}

func TestForeignHigh(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, state.NewMemory())
	decision, err := proc.Process(context.Background(), rawTxn("u2", 600, "US", 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(decision.Rules) != 1 || decision.Rules[0] != model.RuleForeignHigh {
		t.Fatalf("rules: %v", decision.Rules)
	}
	if decision.Risk != 0.7 {
		t.Fatalf("risk: %v", decision.Risk)
	}
	if decision.AlertSent {
		t.Fatalf("unexpected alert at risk 0.7")
	}
}

func TestHighAmountForeignAlert(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, state.NewMemory())
	decision, err := proc.Process(context.Background(), rawTxn("u3", 2000, "US", 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	want := []model.RuleTrigger{model.RuleHighAmount, model.RuleForeignHigh}
	if len(decision.Rules) != len(want) {
		t.Fatalf("rules: %v", decision.Rules)
	}
	for i, r := range want {
		if decision.Rules[i] != r {
			t.Fatalf("rules: %v", decision.Rules)
		}
	}
	// 1 - (1-0.6)(1-0.7) = 0.88
	if decision.Risk != 0.88 {
		t.Fatalf("risk: %v", decision.Risk)
	}
	if !decision.AlertSent {
		t.Fatalf("expected alert at risk 0.88")
	}
	if decision.Directive == nil {
		t.Fatalf("expected directive on alert")
	}
	if decision.Directive.Case.TxnID != decision.TxnID || decision.Directive.Case.RiskScore != 0.88 {
		t.Fatalf("directive case mismatch: %+v", decision.Directive.Case)
	}
	if decision.Directive.Alert.Transaction.UserID != "u3" {
		t.Fatalf("directive alert mismatch: %+v", decision.Directive.Alert)
	}
}

func TestRapidFireThirdTransaction(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, state.NewMemory())
	base := time.Now().UnixMilli()
	for i := 0; i < 2; i++ {
		decision, err := proc.Process(context.Background(), rawTxn("u4", 250, "AU", base+int64(i)*15_000))
		if err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
		if hasRule(decision.Rules, model.RuleRapidFire) {
			t.Fatalf("rapid fire fired on transaction %d", i+1)
		}
	}
	decision, err := proc.Process(context.Background(), rawTxn("u4", 250, "AU", base+30_000))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !hasRule(decision.Rules, model.RuleRapidFire) {
		t.Fatalf("expected rapid fire on third transaction, got %v", decision.Rules)
	}
	if decision.Risk < 0.5 {
		t.Fatalf("risk: %v", decision.Risk)
	}
}

func TestQuietPathScoresZero(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, state.NewMemory())
	decision, err := proc.Process(context.Background(), rawTxn("u5", 120, "AU", 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(decision.Rules) != 0 {
		t.Fatalf("rules: %v", decision.Rules)
	}
	if decision.Risk != 0 {
		t.Fatalf("risk: %v", decision.Risk)
	}
	if decision.AlertSent {
		t.Fatalf("unexpected alert")
	}
}

func TestValidationErrorWritesNoState(t *testing.T) {
	store := &countingStore{Memory: state.NewMemory()}
	proc := NewProcessor(testConfig(), nil, store)
	raw := rawTxn("u6", 100, "AU", 0)
	raw.DeviceID = ""
	_, err := proc.Process(context.Background(), raw)
	var verr *normalize.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0] != "device_id" {
		t.Fatalf("missing: %v", verr.Missing)
	}
	if store.puts != 0 {
		t.Fatalf("state written on validation failure")
	}
}

func TestStateWriteFailureDegradesToWarning(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, &brokenStore{})
	decision, err := proc.Process(context.Background(), rawTxn("u7", 1500, "AU", 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if decision.Warning == "" {
		t.Fatalf("expected warning on state write failure")
	}
	if decision.Risk != 0.6 {
		t.Fatalf("risk: %v", decision.Risk)
	}
}

func TestStateReadFailureTreatedAsNoHistory(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, &brokenStore{})
	decision, err := proc.Process(context.Background(), rawTxn("u8", 250, "AU", time.Now().UnixMilli()))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if hasRule(decision.Rules, model.RuleRapidFire) {
		t.Fatalf("rapid fire without history: %v", decision.Rules)
	}
}

func TestTxnIDGeneratedWhenAbsent(t *testing.T) {
	proc := NewProcessor(testConfig(), nil, state.NewMemory())
	decision, err := proc.Process(context.Background(), rawTxn("u9", 10, "AU", 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if decision.TxnID == "" {
		t.Fatalf("expected generated txn id")
	}
	if decision.Transaction.TimestampMs == 0 || decision.Transaction.TimestampUTC == "" {
		t.Fatalf("timestamps not defaulted: %+v", decision.Transaction)
	}
}

func hasRule(rules []model.RuleTrigger, target model.RuleTrigger) bool {
	for _, r := range rules {
		if r == target {
			return true
		}
	}
	return false
}

type countingStore struct {
	*state.Memory
	puts int
}

func (s *countingStore) Put(ctx context.Context, userID string, st model.UserVelocityState) error {
	s.puts++
	return s.Memory.Put(ctx, userID, st)
}

type brokenStore struct{}

func (s *brokenStore) Init(ctx context.Context) error { return nil }
func (s *brokenStore) Close() error                   { return nil }
func (s *brokenStore) Get(ctx context.Context, userID string) (model.UserVelocityState, error) {
	return model.UserVelocityState{}, errors.New("store unavailable")
}
func (s *brokenStore) Put(ctx context.Context, userID string, st model.UserVelocityState) error {
	return errors.New("store unavailable")
}
