package validation

import (
	"fmt"
	"math"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// ReconciliationValidator checks that quantity changes are explained by trade
// activity: expected quantity = prior quantity + net traded quantity. Three
// distinct situations are reported: wrong magnitude (RECON_MISMATCH), a trade
// that apparently was not applied at all (RECON_TRADE_IGNORED), and a change
// with no trade record whatsoever (RECON_UNEXPLAINED_CHANGE). Corporate
// actions are not modeled, so every unexplained change is flagged.
type ReconciliationValidator struct {
	cfg Config
}

func (v *ReconciliationValidator) Name() string { return NameReconciliation }

func (v *ReconciliationValidator) Run(c *Context) ([]contracts.Finding, error) {
	if !c.HasQuantities() {
		return nil, &ValidatorUnavailableError{Validator: v.Name(), Reason: "no quantity data in dataset"}
	}

	var out []contracts.Finding
	for _, id := range c.Instruments() {
		series := c.Series(id)
		prev := -1
		for i, p := range series {
			if contracts.IsMissing(p.Quantity) {
				continue
			}
			if prev < 0 {
				prev = i
				continue
			}
			prior := series[prev]
			prev = i

			nt, hasTrade := c.NetTradeFor(p.Date, id)
			netQty := 0.0
			if hasTrade {
				netQty = nt.Quantity
			}

			expected := prior.Quantity + netQty
			tol := v.cfg.reconTolerance(prior.Quantity)
			diff := p.Quantity - expected
			if math.Abs(diff) <= tol {
				continue
			}

			change := p.Quantity - prior.Quantity
			switch {
			case hasTrade && math.Abs(netQty) > tol && math.Abs(change) <= tol:
				// Quantity did not move at all despite a net trade.
				out = append(out, contracts.Finding{
					Severity:     contracts.SeverityWarning,
					Code:         contracts.CodeReconTradeIgnored,
					Date:         p.Date,
					InstrumentID: id,
					Observed:     contracts.Float(p.Quantity),
					Expected:     contracts.Float(expected),
					Deviation:    contracts.Float(diff),
					Message: fmt.Sprintf("net trade of %.4f not reflected: quantity unchanged at %.4f",
						netQty, p.Quantity),
				})
			case !hasTrade:
				out = append(out, contracts.Finding{
					Severity:     contracts.SeverityError,
					Code:         contracts.CodeReconUnexplained,
					Date:         p.Date,
					InstrumentID: id,
					Observed:     contracts.Float(p.Quantity),
					Expected:     contracts.Float(prior.Quantity),
					Deviation:    contracts.Float(change),
					Message: fmt.Sprintf("quantity changed %.4f -> %.4f with no trade record",
						prior.Quantity, p.Quantity),
				})
			default:
				out = append(out, contracts.Finding{
					Severity:     contracts.SeverityError,
					Code:         contracts.CodeReconMismatch,
					Date:         p.Date,
					InstrumentID: id,
					Observed:     contracts.Float(p.Quantity),
					Expected:     contracts.Float(expected),
					Deviation:    contracts.Float(diff),
					Message: fmt.Sprintf("quantity %.4f != prior %.4f + net trade %.4f",
						p.Quantity, prior.Quantity, netQty),
				})
			}
		}
	}
	return out, nil
}
