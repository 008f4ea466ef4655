package validation

import (
	"fmt"
	"math"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// ConsistencyValidator cross-references the two independently sourced price
// observations for a day: the volume-weighted trade price against the
// position's closing price. Unlike the price validator it never compares
// across days.
type ConsistencyValidator struct {
	cfg Config
}

func (v *ConsistencyValidator) Name() string { return NameConsistency }

func (v *ConsistencyValidator) Run(c *Context) ([]contracts.Finding, error) {
	if !c.HasTrades() {
		return nil, &ValidatorUnavailableError{Validator: v.Name(), Reason: "no trade records in dataset"}
	}

	var out []contracts.Finding
	for _, id := range c.Instruments() {
		for _, p := range c.Series(id) {
			nt, ok := c.NetTradeFor(p.Date, id)
			if !ok || contracts.IsMissing(nt.VWAP) {
				continue
			}
			if contracts.IsMissing(p.Price) || p.Price == 0 {
				// Absent market price is the completeness validator's
				// territory; nothing to compare here.
				continue
			}

			deviation := (nt.VWAP - p.Price) / math.Abs(p.Price)
			severity := contracts.Severity("")
			switch {
			case math.Abs(deviation) > v.cfg.TradePriceDeviationErrorPct:
				severity = contracts.SeverityError
			case math.Abs(deviation) > v.cfg.TradePriceDeviationWarnPct:
				severity = contracts.SeverityWarning
			default:
				continue
			}
			out = append(out, contracts.Finding{
				Severity:     severity,
				Code:         contracts.CodeTradePriceDev,
				Date:         p.Date,
				InstrumentID: id,
				Observed:     contracts.Float(nt.VWAP),
				Expected:     contracts.Float(p.Price),
				Deviation:    contracts.Float(deviation),
				Message: fmt.Sprintf("trade price %.4f deviates %.2f%% from market price %.4f",
					nt.VWAP, deviation*100, p.Price),
			})
		}
	}
	return out, nil
}
