package runs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/validation"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// Service executes validation runs end to end: context construction, engine
// execution, run stamping, optional persistence and broadcast. Every entry
// point (CLI, API, scheduler) goes through here.
type Service struct {
	engine *validation.Engine
	repo   contracts.RunRepository // nil when no database is configured
	hub    contracts.RunBroadcaster
	log    *logger.Logger
}

// NewService creates a run service. repo and hub may be nil.
func NewService(engine *validation.Engine, repo contracts.RunRepository, hub contracts.RunBroadcaster, log *logger.Logger) *Service {
	return &Service{engine: engine, repo: repo, hub: hub, log: log}
}

// Validate runs the engine over a dataset. The only error channel is
// structural (malformed input); data problems come back as findings inside
// the run. Persistence failures are logged, not fatal: the caller still gets
// the complete result.
func (s *Service) Validate(ctx context.Context, positions []contracts.PositionRecord, trades []contracts.TradeRecord) (*contracts.Run, error) {
	vctx, err := validation.NewContext(positions, trades)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	findings := s.engine.Run(vctx)

	run := &contracts.Run{
		ID:         uuid.NewString(),
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Positions:  len(positions),
		Trades:     len(trades),
		Findings:   findings,
	}

	counts := run.CountBySeverity()
	s.log.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"findings": len(findings),
		"errors":   counts[contracts.SeverityError],
		"warnings": counts[contracts.SeverityWarning],
	}).Info("validation run completed")

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, run); err != nil {
			s.log.WithError(err).WithField("run_id", run.ID).Error("failed to persist run")
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(run)
	}
	return run, nil
}
