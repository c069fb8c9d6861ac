package ingest

import (
	"context"
	"log/slog"

	"fraudguard/internal/decisions"
	"fraudguard/internal/engine"
	"fraudguard/internal/metrics"
	"fraudguard/internal/model"
	"fraudguard/internal/normalize"
	"fraudguard/internal/notify"
	"fraudguard/internal/storage"
)

// Service runs the processor for incoming transactions and executes the
// directives the processor returns: archive every transaction, persist and
// publish each suspicious case. Delivery and archive failures are logged
// and counted but never change the decision.
type Service struct {
	proc      *engine.Processor
	archive   storage.Archive
	publisher notify.Publisher
	decisions *decisions.Store
	cases     *decisions.CaseStore
	logger    *slog.Logger
}

func NewService(proc *engine.Processor, archive storage.Archive, publisher notify.Publisher, decisionStore *decisions.Store, caseStore *decisions.CaseStore, logger *slog.Logger) *Service {
	return &Service{
		proc:      proc,
		archive:   archive,
		publisher: publisher,
		decisions: decisionStore,
		cases:     caseStore,
		logger:    logger,
	}
}

func (s *Service) Handle(ctx context.Context, raw normalize.RawTransaction) (*model.RiskDecision, error) {
	decision, err := s.proc.Process(ctx, raw)
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	metrics.TransactionsTotal.WithLabelValues("scored").Inc()
	metrics.RiskScore.Observe(decision.Risk)
	for _, rule := range decision.Rules {
		metrics.RuleHitsTotal.WithLabelValues(string(rule)).Inc()
	}
	if decision.Warning != "" {
		metrics.StateWriteFailures.Inc()
	}
	if s.decisions != nil {
		s.decisions.Add(*decision)
	}

	if s.archive != nil {
		if err := s.archive.SaveRaw(ctx, decision.Transaction, *decision); err != nil {
			metrics.ArchiveFailures.WithLabelValues("raw").Inc()
			if s.logger != nil {
				s.logger.Warn("raw archive write failed", "txn_id", decision.TxnID, "err", err)
			}
		}
	}

	if decision.Directive != nil {
		metrics.TransactionsTotal.WithLabelValues("alerted").Inc()
		if s.cases != nil {
			s.cases.Add(decision.Directive.Case)
		}
		if s.archive != nil {
			if err := s.archive.SaveSuspicious(ctx, decision.Directive.Case); err != nil {
				metrics.ArchiveFailures.WithLabelValues("suspicious").Inc()
				if s.logger != nil {
					s.logger.Warn("suspicious case write failed", "txn_id", decision.TxnID, "err", err)
				}
			}
		}
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, decision.Directive.Alert); err != nil {
				metrics.NotifyFailures.Inc()
				if s.logger != nil {
					s.logger.Warn("alert publish failed", "txn_id", decision.TxnID, "err", err)
				}
			}
		}
		if s.logger != nil {
			s.logger.Warn("alert raised",
				"txn_id", decision.TxnID,
				"user_id", decision.Transaction.UserID,
				"risk", decision.Risk,
				"rules", decision.Rules,
			)
		}
	}
	return decision, nil
}

// Start consumes raw transactions from the stream sources until ctx is done.
func (s *Service) Start(ctx context.Context, in <-chan normalize.RawTransaction) {
	go func() {
		for {
			select {
			case raw := <-in:
				if _, err := s.Handle(ctx, raw); err != nil && s.logger != nil {
					s.logger.Warn("stream transaction rejected", "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
