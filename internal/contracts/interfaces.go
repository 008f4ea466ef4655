package contracts

import (
	"context"
	"time"
)

// DatasetRepository loads normalized position and trade records for a date
// range. Backed by Postgres for scheduled runs; CSV ingestion bypasses it.
type DatasetRepository interface {
	LoadPositions(ctx context.Context, from, to time.Time) ([]PositionRecord, error)
	LoadTrades(ctx context.Context, from, to time.Time) ([]TradeRecord, error)
}

// RunRepository persists completed validation runs and their findings.
type RunRepository interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	GetFindings(ctx context.Context, runID string) ([]Finding, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// RunBroadcaster pushes completed runs to live subscribers.
type RunBroadcaster interface {
	Broadcast(run *Run)
}
