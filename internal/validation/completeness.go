package validation

import (
	"fmt"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// CompletenessValidator checks that every held position carries the inputs
// the other validators depend on: price, FX rate (for non-base currencies)
// and sector. It runs first so its findings give context for anything
// downstream that may be a spurious consequence of a missing input; the
// engine itself performs no suppression.
type CompletenessValidator struct {
	cfg Config
}

func (v *CompletenessValidator) Name() string { return NameCompleteness }

func (v *CompletenessValidator) Run(c *Context) ([]contracts.Finding, error) {
	var out []contracts.Finding

	missing := func(p contracts.PositionRecord, severity contracts.Severity, field string) contracts.Finding {
		return contracts.Finding{
			Severity:     severity,
			Code:         contracts.CodeMissingData,
			Date:         p.Date,
			InstrumentID: p.InstrumentID,
			Message:      fmt.Sprintf("missing required field %q", field),
		}
	}
	invalidZero := func(p contracts.PositionRecord, field string) contracts.Finding {
		return contracts.Finding{
			Severity:     contracts.SeverityError,
			Code:         contracts.CodeInvalidValue,
			Date:         p.Date,
			InstrumentID: p.InstrumentID,
			Observed:     contracts.Float(0),
			Message:      fmt.Sprintf("invalid zero value for field %q", field),
		}
	}

	for _, id := range c.Instruments() {
		for _, p := range c.Series(id) {
			if contracts.IsMissing(p.Quantity) {
				out = append(out, missing(p, contracts.SeverityError, "quantity"))
			}
			if !p.Held() {
				continue
			}

			switch {
			case contracts.IsMissing(p.Price):
				out = append(out, missing(p, contracts.SeverityError, "price"))
			case p.Price == 0:
				out = append(out, invalidZero(p, "price"))
			}

			if p.Currency == "" {
				out = append(out, missing(p, contracts.SeverityWarning, "currency"))
			}

			requiresFX := p.Currency != "" && p.Currency != v.cfg.BaseCurrency
			switch {
			case requiresFX && contracts.IsMissing(p.FXRate):
				out = append(out, missing(p, contracts.SeverityError, "fx_rate"))
			case !contracts.IsMissing(p.FXRate) && p.FXRate == 0:
				out = append(out, invalidZero(p, "fx_rate"))
			}

			if p.Sector == "" {
				out = append(out, missing(p, contracts.SeverityError, "sector"))
			}
		}
	}
	return out, nil
}
