package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

func TestConsistency_Unavailable(t *testing.T) {
	p := testPos(contracts.Day(2026, 1, 5), "AAPL")
	p.Price = 100

	v := &ConsistencyValidator{cfg: DefaultConfig()}
	_, err := v.Run(mustContext(t, []contracts.PositionRecord{p}, nil))

	var unavailable *ValidatorUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestConsistency_Deviation(t *testing.T) {
	d := contracts.Day(2026, 1, 5)

	tests := []struct {
		name         string
		tradePrice   float64
		wantCount    int
		wantSeverity contracts.Severity
	}{
		{name: "small deviation ignored", tradePrice: 100.7, wantCount: 0},
		{name: "seven percent warns", tradePrice: 107, wantCount: 1, wantSeverity: contracts.SeverityWarning},
		{name: "twenty percent errors", tradePrice: 120, wantCount: 1, wantSeverity: contracts.SeverityError},
		{name: "downside deviation warns", tradePrice: 93, wantCount: 1, wantSeverity: contracts.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPos(d, "AAPL")
			p.Price = 100
			trades := []contracts.TradeRecord{
				{Date: d, InstrumentID: "AAPL", TradeQuantity: 10, TradePrice: tt.tradePrice},
			}

			v := &ConsistencyValidator{cfg: DefaultConfig()}
			findings, err := v.Run(mustContext(t, []contracts.PositionRecord{p}, trades))

			require.NoError(t, err)
			require.Len(t, findings, tt.wantCount)
			if tt.wantCount > 0 {
				f := findings[0]
				assert.Equal(t, contracts.CodeTradePriceDev, f.Code)
				assert.Equal(t, tt.wantSeverity, f.Severity)
				require.NotNil(t, f.Observed)
				assert.InDelta(t, tt.tradePrice, *f.Observed, 1e-9)
			}
		})
	}
}

func TestConsistency_UsesVWAPAcrossFills(t *testing.T) {
	d := contracts.Day(2026, 1, 5)
	p := testPos(d, "AAPL")
	p.Price = 100
	// Two fills whose VWAP is 108: (60*110 + 40*105) / 100.
	trades := []contracts.TradeRecord{
		{Date: d, InstrumentID: "AAPL", TradeQuantity: 60, TradePrice: 110},
		{Date: d, InstrumentID: "AAPL", TradeQuantity: 40, TradePrice: 105},
	}

	v := &ConsistencyValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, []contracts.PositionRecord{p}, trades))

	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.NotNil(t, findings[0].Observed)
	assert.InDelta(t, 108.0, *findings[0].Observed, 1e-9)
}

func TestConsistency_UnpricedTradesSkipped(t *testing.T) {
	d := contracts.Day(2026, 1, 5)
	p := testPos(d, "AAPL")
	p.Price = 100
	trades := []contracts.TradeRecord{
		{Date: d, InstrumentID: "AAPL", TradeQuantity: 10, TradePrice: contracts.Missing},
	}

	v := &ConsistencyValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, []contracts.PositionRecord{p}, trades))

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestConsistency_MissingMarketPriceSkipped(t *testing.T) {
	d := contracts.Day(2026, 1, 5)
	p := testPos(d, "AAPL") // no market price
	trades := []contracts.TradeRecord{
		{Date: d, InstrumentID: "AAPL", TradeQuantity: 10, TradePrice: 150},
	}

	v := &ConsistencyValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, []contracts.PositionRecord{p}, trades))

	require.NoError(t, err)
	assert.Empty(t, findings)
}
