package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

func fxPos(id, currency string, rate float64) contracts.PositionRecord {
	p := testPos(contracts.Day(2026, 1, 5), id)
	p.Currency = currency
	p.FXRate = rate
	return p
}

func TestFXConsistency_Unavailable(t *testing.T) {
	p := testPos(contracts.Day(2026, 1, 5), "AAPL")
	p.Quantity = 10

	v := &FXConsistencyValidator{cfg: DefaultConfig()}
	_, err := v.Run(mustContext(t, []contracts.PositionRecord{p}, nil))

	var unavailable *ValidatorUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestFXConsistency_OutlierAgainstMedian(t *testing.T) {
	positions := []contracts.PositionRecord{
		fxPos("SAP", "EUR", 1.10),
		fxPos("ASML", "EUR", 1.10),
		fxPos("SIE", "EUR", 1.25),
	}

	v := &FXConsistencyValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, positions, nil))

	require.NoError(t, err)
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, contracts.CodeFXInconsistent, f.Code)
	assert.Equal(t, contracts.SeverityError, f.Severity)
	assert.Equal(t, "SIE", f.InstrumentID)
	require.NotNil(t, f.Expected)
	assert.InDelta(t, 1.10, *f.Expected, 1e-9)
	assert.Contains(t, f.Message, "EUR")
}

func TestFXConsistency_AgreementIsClean(t *testing.T) {
	positions := []contracts.PositionRecord{
		fxPos("SAP", "EUR", 1.10),
		fxPos("ASML", "EUR", 1.10005), // within 0.1% tolerance
	}

	v := &FXConsistencyValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, positions, nil))

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestFXConsistency_SingletonGroupSkipped(t *testing.T) {
	positions := []contracts.PositionRecord{
		fxPos("SAP", "EUR", 1.10),
		fxPos("7203", "JPY", 0.0066),
	}

	v := &FXConsistencyValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, positions, nil))

	require.NoError(t, err)
	assert.Empty(t, findings, "a single observation per currency has no reference")
}

func TestFXConsistency_GroupsByDate(t *testing.T) {
	// Same currency, different dates: never compared with each other.
	a := fxPos("SAP", "EUR", 1.10)
	b := testPos(contracts.Day(2026, 1, 6), "ASML")
	b.Currency = "EUR"
	b.FXRate = 1.25

	v := &FXConsistencyValidator{cfg: DefaultConfig()}
	findings, err := v.Run(mustContext(t, []contracts.PositionRecord{a, b}, nil))

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestMedianRate(t *testing.T) {
	odd := []fxMember{{rate: 1.3}, {rate: 1.1}, {rate: 1.2}}
	assert.InDelta(t, 1.2, medianRate(odd), 1e-9)

	even := []fxMember{{rate: 1.4}, {rate: 1.1}, {rate: 1.2}, {rate: 1.3}}
	assert.InDelta(t, 1.25, medianRate(even), 1e-9)
}
