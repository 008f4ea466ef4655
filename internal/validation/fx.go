package validation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// FXConsistencyValidator checks that every instrument denominated in the same
// currency uses the same FX rate on a given day. The group's median rate is
// the reference; any member deviating beyond the tolerance is flagged with
// both its own rate and the reference.
type FXConsistencyValidator struct {
	cfg Config
}

func (v *FXConsistencyValidator) Name() string { return NameFXConsistency }

type fxMember struct {
	instrument string
	rate       float64
	date       time.Time
}

func (v *FXConsistencyValidator) Run(c *Context) ([]contracts.Finding, error) {
	if !c.HasFXRates() {
		return nil, &ValidatorUnavailableError{Validator: v.Name(), Reason: "no fx rate data in dataset"}
	}

	groups := make(map[string][]fxMember) // key: date|currency
	currencies := make(map[string]string)
	var keys []string

	for _, id := range c.Instruments() {
		for _, p := range c.Series(id) {
			if p.Currency == "" || contracts.IsMissing(p.FXRate) || p.FXRate <= 0 {
				continue
			}
			key := p.Date.Format("2006-01-02") + "|" + p.Currency
			if _, seen := groups[key]; !seen {
				keys = append(keys, key)
				currencies[key] = p.Currency
			}
			groups[key] = append(groups[key], fxMember{instrument: id, rate: p.FXRate, date: p.Date})
		}
	}
	sort.Strings(keys)

	var out []contracts.Finding
	for _, key := range keys {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		ref := medianRate(members)
		for _, m := range members {
			deviation := (m.rate - ref) / ref
			if math.Abs(deviation) <= v.cfg.FXTolerancePct {
				continue
			}
			out = append(out, contracts.Finding{
				Severity:     contracts.SeverityError,
				Code:         contracts.CodeFXInconsistent,
				Date:         m.date,
				InstrumentID: m.instrument,
				Observed:     contracts.Float(m.rate),
				Expected:     contracts.Float(ref),
				Deviation:    contracts.Float(deviation),
				Message: fmt.Sprintf("fx rate %.6f for %s deviates from group reference %.6f",
					m.rate, currencies[key], ref),
			})
		}
	}
	return out, nil
}

func medianRate(members []fxMember) float64 {
	rates := make([]float64, len(members))
	for i, m := range members {
		rates[i] = m.rate
	}
	sort.Float64s(rates)
	n := len(rates)
	if n%2 == 1 {
		return rates[n/2]
	}
	return (rates[n/2-1] + rates[n/2]) / 2
}
