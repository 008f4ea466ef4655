package validation

import (
	"fmt"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// StaticDataValidator tracks fields that should be time-invariant (currency,
// sector) across each instrument's history and flags any change between
// consecutive observations that is not covered by an explicitly allowed
// transition. A value going missing and coming back unchanged is not drift.
type StaticDataValidator struct {
	cfg Config
}

func (v *StaticDataValidator) Name() string { return NameStaticData }

func (v *StaticDataValidator) Run(c *Context) ([]contracts.Finding, error) {
	if !c.HasCurrencies() && !c.HasSectors() {
		return nil, &ValidatorUnavailableError{Validator: v.Name(), Reason: "no static attribute data in dataset"}
	}

	var out []contracts.Finding
	for _, id := range c.Instruments() {
		lastCurrency, lastSector := "", ""
		for _, p := range c.Series(id) {
			out = v.check(out, p, "currency", &lastCurrency, p.Currency)
			out = v.check(out, p, "sector", &lastSector, p.Sector)
		}
	}
	return out, nil
}

func (v *StaticDataValidator) check(out []contracts.Finding, p contracts.PositionRecord, field string, last *string, value string) []contracts.Finding {
	if value == "" {
		return out
	}
	defer func() { *last = value }()

	if *last == "" || *last == value || v.cfg.transitionAllowed(field, *last, value) {
		return out
	}
	return append(out, contracts.Finding{
		Severity:     contracts.SeverityWarning,
		Code:         contracts.CodeStaticDataDrift,
		Date:         p.Date,
		InstrumentID: p.InstrumentID,
		Message: fmt.Sprintf("%s changed from %q to %q on %s",
			field, *last, value, p.Date.Format("2006-01-02")),
	})
}
