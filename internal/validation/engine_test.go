package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

func TestNewEngine_CanonicalOrder(t *testing.T) {
	e := NewEngine(DefaultConfig(), logger.Nop())

	assert.Equal(t, []string{
		NameCompleteness,
		NamePrice,
		NameReconciliation,
		NameCalculation,
		NameConsistency,
		NameFXConsistency,
		NameStaticData,
	}, e.Validators())
}

func TestNewEngine_EnabledSubsetKeepsOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnabledValidators = []string{NameStaticData, NamePrice}

	e := NewEngine(cfg, logger.Nop())

	// Selection never reorders.
	assert.Equal(t, []string{NamePrice, NameStaticData}, e.Validators())
}

func TestEngine_SkippedValidatorsBecomeFindings(t *testing.T) {
	// Quantities only: price, calculation, consistency, fx and static data
	// planes are all absent.
	p := testPos(contracts.Day(2026, 1, 5), "AAPL")
	p.Quantity = 10

	e := NewEngine(DefaultConfig(), logger.Nop())
	findings := e.Run(mustContext(t, []contracts.PositionRecord{p}, nil))

	var skipped []string
	for _, f := range findings {
		if f.Code == contracts.CodeValidatorSkipped {
			assert.Equal(t, contracts.SeverityWarning, f.Severity)
			assert.True(t, f.Date.IsZero())
			skipped = append(skipped, f.Message)
		}
	}
	require.Len(t, skipped, 5)
	assert.Contains(t, skipped[0], NamePrice)
	assert.Contains(t, skipped[1], NameCalculation)
	assert.Contains(t, skipped[2], NameConsistency)
	assert.Contains(t, skipped[3], NameFXConsistency)
	assert.Contains(t, skipped[4], NameStaticData)
}

func TestEngine_MergeFollowsValidatorOrder(t *testing.T) {
	// One completeness finding (missing sector) and one price jump: the
	// completeness finding must come first regardless of dates.
	a := testPos(contracts.Day(2026, 1, 5), "AAPL")
	a.Quantity = 10
	a.Price = 100
	a.Currency = "USD"
	a.Sector = "Technology"
	b := testPos(contracts.Day(2026, 1, 6), "AAPL")
	b.Quantity = 10
	b.Price = 140
	b.Currency = "USD" // sector missing on day two

	e := NewEngine(DefaultConfig(), logger.Nop())
	findings := e.Run(mustContext(t, []contracts.PositionRecord{a, b}, nil))

	got := codes(findings)
	require.Contains(t, got, contracts.CodeMissingData)
	require.Contains(t, got, contracts.CodePriceJump)
	assert.Less(t,
		indexOf(got, contracts.CodeMissingData),
		indexOf(got, contracts.CodePriceJump))
}

func TestEngine_FindingsSortedWithinValidator(t *testing.T) {
	// Two instruments with missing sectors across two days; completeness
	// findings must come out date-major, instrument-minor.
	var positions []contracts.PositionRecord
	for _, id := range []string{"MSFT", "AAPL"} {
		for day := 6; day >= 5; day-- {
			p := testPos(contracts.Day(2026, 1, day), id)
			p.Quantity = 10
			p.Price = 100
			p.Currency = "USD"
			positions = append(positions, p)
		}
	}

	e := NewEngine(DefaultConfig(), logger.Nop())
	findings := e.Run(mustContext(t, positions, nil))

	var order []string
	for _, f := range findings {
		if f.Code == contracts.CodeMissingData && f.Message == `missing required field "sector"` {
			order = append(order, f.Date.Format("01-02")+"/"+f.InstrumentID)
		}
	}
	assert.Equal(t, []string{
		"01-05/AAPL", "01-05/MSFT",
		"01-06/AAPL", "01-06/MSFT",
	}, order)
}

func TestEngine_SeqDisambiguatesDuplicates(t *testing.T) {
	// A held record missing both price and sector produces two MISSING_DATA
	// findings with the same (code, date, instrument).
	p := testPos(contracts.Day(2026, 1, 5), "AAPL")
	p.Quantity = 10
	p.Currency = "USD"

	cfg := DefaultConfig()
	cfg.EnabledValidators = []string{NameCompleteness}
	e := NewEngine(cfg, logger.Nop())
	findings := e.Run(mustContext(t, []contracts.PositionRecord{p}, nil))

	require.Len(t, findings, 2)
	assert.Equal(t, findings[0].Key(), findings[1].Key())
	assert.Equal(t, 0, findings[0].Seq)
	assert.Equal(t, 1, findings[1].Seq)
}

func TestEngine_Idempotent(t *testing.T) {
	a := testPos(contracts.Day(2026, 1, 5), "AAPL")
	a.Quantity = 10
	a.Price = 100
	b := testPos(contracts.Day(2026, 1, 6), "AAPL")
	b.Quantity = 14
	b.Price = 160

	c := mustContext(t, []contracts.PositionRecord{a, b}, nil)
	e := NewEngine(DefaultConfig(), logger.Nop())

	first := e.Run(c)
	second := e.Run(c)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func indexOf(haystack []string, needle string) int {
	for i, s := range haystack {
		if s == needle {
			return i
		}
	}
	return -1
}
