package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"fraudguard/internal/config"
	"fraudguard/internal/model"
	"fraudguard/internal/normalize"
	"fraudguard/internal/state"
)

// Processor orchestrates one transaction: validate, load velocity state,
// evaluate rules, commit the new state, score, decide. It performs no
// notification or archive I/O itself; high-risk decisions carry a Directive
// describing what the caller must do.
type Processor struct {
	logger *slog.Logger
	states state.Store
	cfg    atomic.Value
}

func NewProcessor(cfg *config.Config, logger *slog.Logger, states state.Store) *Processor {
	p := &Processor{logger: logger, states: states}
	p.cfg.Store(cfg)
	return p
}

func (p *Processor) UpdateConfig(cfg *config.Config) {
	p.cfg.Store(cfg)
}

func (p *Processor) config() *config.Config {
	if v := p.cfg.Load(); v != nil {
		return v.(*config.Config)
	}
	return config.DefaultConfig()
}

// Process scores one raw transaction. A validation failure returns an error
// before any state is touched. Velocity state is committed before the final
// decision is assembled so a late cancellation never loses a counted
// transaction; a failed write degrades to a warning on the decision.
func (p *Processor) Process(ctx context.Context, raw normalize.RawTransaction) (*model.RiskDecision, error) {
	cfg := p.config()
	det := cfg.Detection
	now := time.Now().UTC()

	txn, err := normalize.Normalize(raw, now)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prior, err := p.states.Get(ctx, txn.UserID)
	if err != nil {
		// Degrade to no history rather than blocking the score.
		if p.logger != nil {
			p.logger.Warn("velocity state read failed", "user_id", txn.UserID, "err", err)
		}
		prior = model.UserVelocityState{}
	}

	rules, next := Evaluate(txn, prior, det)
	next.UpdatedAt = now.Unix()

	warning := ""
	if err := p.states.Put(ctx, txn.UserID, next); err != nil {
		warning = "velocity state write failed; tracking for this user may be stale"
		if p.logger != nil {
			p.logger.Warn("velocity state write failed", "user_id", txn.UserID, "err", err)
		}
	}

	risk := Score(rules, det)
	explanation := model.Explanation{
		Rules:                  rules,
		HighAmountThreshold:    det.HighAmountThreshold,
		ForeignAmountThreshold: det.ForeignAmountThreshold,
		HomeCountry:            det.HomeCountry,
	}

	decision := &model.RiskDecision{
		TxnID:       txn.TxnID,
		Risk:        risk,
		Rules:       rules,
		AlertSent:   risk >= det.HighRiskThreshold,
		Explanation: explanation,
		Warning:     warning,
		Transaction: txn,
	}
	if decision.AlertSent {
		decision.Directive = &model.Directive{
			Case: model.SuspiciousCase{
				TxnID:       txn.TxnID,
				UserID:      txn.UserID,
				Amount:      txn.Amount,
				Currency:    txn.Currency,
				Merchant:    txn.Merchant,
				Country:     txn.Country,
				City:        txn.City,
				DeviceID:    txn.DeviceID,
				TimestampMs: txn.TimestampMs,
				RiskScore:   risk,
				Explanation: explanation,
				CreatedAt:   now.Unix(),
			},
			Alert: model.AlertPayload{
				Transaction: txn,
				Risk:        risk,
				Explanation: explanation,
			},
		}
	}
	return decision, nil
}
