package validation

import (
	"fmt"
	"math"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// PriceValidator flags unrealistic day-over-day price moves. The comparison
// is always against the nearest prior available record for the instrument, so
// gaps in the trading calendar are tolerated. A zero or negative prior price
// makes the relative change undefined and is reported as its own error rather
// than silently skipped.
type PriceValidator struct {
	cfg Config
}

func (v *PriceValidator) Name() string { return NamePrice }

func (v *PriceValidator) Run(c *Context) ([]contracts.Finding, error) {
	if !c.HasPrices() {
		return nil, &ValidatorUnavailableError{Validator: v.Name(), Reason: "no price data in dataset"}
	}

	var out []contracts.Finding
	for _, id := range c.Instruments() {
		series := c.Series(id)
		prev := -1 // index of the nearest prior record with a price
		for i, p := range series {
			if contracts.IsMissing(p.Price) {
				continue
			}
			if prev < 0 {
				prev = i
				continue
			}
			prior := series[prev]
			prev = i

			if prior.Price <= 0 {
				out = append(out, contracts.Finding{
					Severity:     contracts.SeverityError,
					Code:         contracts.CodeInvalidPrice,
					Date:         p.Date,
					InstrumentID: id,
					Observed:     contracts.Float(prior.Price),
					Message: fmt.Sprintf("non-positive prior price %.4f on %s, relative change undefined",
						prior.Price, prior.Date.Format("2006-01-02")),
				})
				continue
			}

			change := (p.Price - prior.Price) / prior.Price
			t := v.cfg.priceThresholds(p.Sector)
			severity := contracts.Severity("")
			switch {
			case math.Abs(change) > t.ErrorPct:
				severity = contracts.SeverityError
			case math.Abs(change) > t.WarnPct:
				severity = contracts.SeverityWarning
			default:
				continue
			}
			out = append(out, contracts.Finding{
				Severity:     severity,
				Code:         contracts.CodePriceJump,
				Date:         p.Date,
				InstrumentID: id,
				Observed:     contracts.Float(p.Price),
				Expected:     contracts.Float(prior.Price),
				Deviation:    contracts.Float(change),
				Message: fmt.Sprintf("price moved %.2f%% from %.4f (%s) to %.4f",
					change*100, prior.Price, prior.Date.Format("2006-01-02"), p.Price),
			})
		}
	}
	return out, nil
}
