package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

func quantitySeries(id string, quantities ...float64) []contracts.PositionRecord {
	out := make([]contracts.PositionRecord, len(quantities))
	for i, q := range quantities {
		p := testPos(contracts.Day(2026, 1, 5+i), id)
		p.Quantity = q
		out[i] = p
	}
	return out
}

func TestReconciliation_Unavailable(t *testing.T) {
	p := testPos(contracts.Day(2026, 1, 5), "AAPL")
	p.Price = 100

	v := &ReconciliationValidator{cfg: DefaultConfig()}
	_, err := v.Run(mustContext(t, []contracts.PositionRecord{p}, nil))

	var unavailable *ValidatorUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestReconciliation_TradeExplainsChange(t *testing.T) {
	trades := []contracts.TradeRecord{
		{Date: contracts.Day(2026, 1, 6), InstrumentID: "AAPL", TradeQuantity: 2},
	}

	v := &ReconciliationValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, quantitySeries("AAPL", 10, 12), trades))

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestReconciliation_Mismatch(t *testing.T) {
	trades := []contracts.TradeRecord{
		{Date: contracts.Day(2026, 1, 6), InstrumentID: "AAPL", TradeQuantity: 2},
	}

	v := &ReconciliationValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, quantitySeries("AAPL", 10, 15), trades))

	require.NoError(t, err)
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, contracts.CodeReconMismatch, f.Code)
	assert.Equal(t, contracts.SeverityError, f.Severity)
	require.NotNil(t, f.Expected)
	assert.InDelta(t, 12.0, *f.Expected, 1e-9)
	require.NotNil(t, f.Deviation)
	assert.InDelta(t, 3.0, *f.Deviation, 1e-9)
}

func TestReconciliation_TradeIgnored(t *testing.T) {
	// Net trade exists but the quantity never moved.
	trades := []contracts.TradeRecord{
		{Date: contracts.Day(2026, 1, 6), InstrumentID: "AAPL", TradeQuantity: 5},
	}

	v := &ReconciliationValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, quantitySeries("AAPL", 10, 10), trades))

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, contracts.CodeReconTradeIgnored, findings[0].Code)
	assert.Equal(t, contracts.SeverityWarning, findings[0].Severity)
}

func TestReconciliation_UnexplainedChange(t *testing.T) {
	v := &ReconciliationValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, quantitySeries("AAPL", 10, 14), nil))

	require.NoError(t, err)
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, contracts.CodeReconUnexplained, f.Code)
	assert.Equal(t, contracts.SeverityError, f.Severity)
	require.NotNil(t, f.Deviation)
	assert.InDelta(t, 4.0, *f.Deviation, 1e-9)
}

func TestReconciliation_RelativeTolerance(t *testing.T) {
	// A one-unit drift on a million-share position is inside the relative
	// tolerance (1e-4 * 1e6 = 100 shares).
	v := &ReconciliationValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, quantitySeries("AAPL", 1_000_000, 1_000_001), nil))

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestReconciliation_FlatWithoutTradesClean(t *testing.T) {
	v := &ReconciliationValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, quantitySeries("AAPL", 10, 10, 10), nil))

	require.NoError(t, err)
	assert.Empty(t, findings)
}
