package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/runs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/validation"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/config"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

type fakeDatasets struct {
	positions []contracts.PositionRecord
	err       error

	gotFrom, gotTo time.Time
}

func (d *fakeDatasets) LoadPositions(ctx context.Context, from, to time.Time) ([]contracts.PositionRecord, error) {
	d.gotFrom, d.gotTo = from, to
	return d.positions, d.err
}

func (d *fakeDatasets) LoadTrades(ctx context.Context, from, to time.Time) ([]contracts.TradeRecord, error) {
	return nil, d.err
}

func newJob(datasets contracts.DatasetRepository) *DailyValidation {
	engine := validation.NewEngine(validation.DefaultConfig(), logger.Nop())
	service := runs.NewService(engine, nil, nil, logger.Nop())
	cfg := config.SchedulerConfig{DailyCron: "0 30 18 * * MON-FRI", LookbackDays: 7}
	return NewDailyValidation(service, datasets, cfg, logger.Nop())
}

func TestDailyValidation_Metadata(t *testing.T) {
	j := newJob(&fakeDatasets{})
	assert.Equal(t, "daily_validation", j.Name())
	assert.Equal(t, "0 30 18 * * MON-FRI", j.Schedule())
}

func TestDailyValidation_Run(t *testing.T) {
	datasets := &fakeDatasets{positions: []contracts.PositionRecord{
		{
			Date:         contracts.Day(2026, 8, 28),
			InstrumentID: "AAPL",
			Quantity:     10,
			Price:        100,
			Currency:     "USD",
			FXRate:       1,
			MarketValue:  1000,
			Weight:       1,
			Sector:       "Technology",
		},
	}}

	j := newJob(datasets)
	require.NoError(t, j.Run(context.Background()))

	// Lookback window ends today and spans the configured days.
	assert.Equal(t, 7, int(datasets.gotTo.Sub(datasets.gotFrom).Hours()/24))
}

func TestDailyValidation_EmptyWindowSkips(t *testing.T) {
	j := newJob(&fakeDatasets{})
	assert.NoError(t, j.Run(context.Background()))
}

func TestDailyValidation_LoadFailure(t *testing.T) {
	j := newJob(&fakeDatasets{err: errors.New("db down")})
	err := j.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load positions")
}
