package validation

import (
	"fmt"
	"math"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// CalculationValidator recomputes the derived fields and compares them to the
// stored ones: market value (quantity * price * fx) per position, weight
// (market value / portfolio total) per position, and the per-date weight sum
// against 1.0. Tolerances follow the reconciliation policy.
type CalculationValidator struct {
	cfg Config
}

func (v *CalculationValidator) Name() string { return NameCalculation }

func (v *CalculationValidator) Run(c *Context) ([]contracts.Finding, error) {
	if !c.HasMarketValues() && !c.HasWeights() {
		return nil, &ValidatorUnavailableError{Validator: v.Name(), Reason: "no market value or weight data in dataset"}
	}

	var out []contracts.Finding
	weightSums := make(map[string]float64)
	weightSeen := make(map[string]bool)

	for _, id := range c.Instruments() {
		for _, p := range c.Series(id) {
			if !contracts.IsMissing(p.Weight) {
				key := p.Date.Format("2006-01-02")
				weightSums[key] += p.Weight
				weightSeen[key] = true
			}

			fx := p.FXRate
			if contracts.IsMissing(fx) && p.Currency == v.cfg.BaseCurrency {
				fx = 1.0
			}

			if !contracts.IsMissing(p.Quantity) && !contracts.IsMissing(p.Price) &&
				!contracts.IsMissing(fx) && !contracts.IsMissing(p.MarketValue) {
				expected := p.Quantity * p.Price * fx
				diff := p.MarketValue - expected
				if math.Abs(diff) > v.cfg.reconTolerance(expected) {
					out = append(out, contracts.Finding{
						Severity:     contracts.SeverityError,
						Code:         contracts.CodeMVMismatch,
						Date:         p.Date,
						InstrumentID: p.InstrumentID,
						Observed:     contracts.Float(p.MarketValue),
						Expected:     contracts.Float(expected),
						Deviation:    contracts.Float(diff),
						Message: fmt.Sprintf("market value %.4f != quantity %.4f * price %.4f * fx %.4f = %.4f",
							p.MarketValue, p.Quantity, p.Price, fx, expected),
					})
				}
			}

			total := c.TotalValue(p.Date)
			if !contracts.IsMissing(p.Weight) && !contracts.IsMissing(p.MarketValue) && total != 0 {
				expected := p.MarketValue / total
				diff := p.Weight - expected
				if math.Abs(diff) > v.cfg.reconTolerance(expected) {
					out = append(out, contracts.Finding{
						Severity:     contracts.SeverityError,
						Code:         contracts.CodeWeightMismatch,
						Date:         p.Date,
						InstrumentID: p.InstrumentID,
						Observed:     contracts.Float(p.Weight),
						Expected:     contracts.Float(expected),
						Deviation:    contracts.Float(diff),
						Message: fmt.Sprintf("weight %.6f != market value %.4f / total %.4f = %.6f",
							p.Weight, p.MarketValue, total, expected),
					})
				}
			}
		}
	}

	// Portfolio-level check: weights on each date should sum to 1.
	for _, date := range c.Dates() {
		key := date.Format("2006-01-02")
		if !weightSeen[key] {
			continue
		}
		sum := weightSums[key]
		if math.Abs(sum-1.0) > v.cfg.reconTolerance(1.0) {
			out = append(out, contracts.Finding{
				Severity:  contracts.SeverityError,
				Code:      contracts.CodeWeightsNotNormal,
				Date:      date,
				Observed:  contracts.Float(sum),
				Expected:  contracts.Float(1.0),
				Deviation: contracts.Float(sum - 1.0),
				Message:   fmt.Sprintf("portfolio weights sum to %.6f", sum),
			})
		}
	}
	return out, nil
}
