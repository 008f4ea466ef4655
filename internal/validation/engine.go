package validation

import (
	"errors"
	"sort"
	"sync"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// Validator is the capability contract every check implements: a pure function
// of the shared immutable context. Returning a ValidatorUnavailableError means
// the validator could not run at all; anything the validator finds wrong with
// the *data* is a finding, never an error.
type Validator interface {
	Name() string
	Run(c *Context) ([]contracts.Finding, error)
}

// Engine runs the closed set of validators in a fixed order and aggregates
// their findings into one stable sequence. Completeness runs first so its
// findings surface ahead of any check they may explain; the rest read only the
// immutable context, so their order is presentational.
type Engine struct {
	cfg        Config
	log        *logger.Logger
	validators []Validator
}

// NewEngine builds an engine with the validators selected by the config, in
// the canonical order.
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	all := []Validator{
		&CompletenessValidator{cfg: cfg},
		&PriceValidator{cfg: cfg},
		&ReconciliationValidator{cfg: cfg},
		&CalculationValidator{cfg: cfg},
		&ConsistencyValidator{cfg: cfg},
		&FXConsistencyValidator{cfg: cfg},
		&StaticDataValidator{cfg: cfg},
	}

	e := &Engine{cfg: cfg, log: log}
	for _, v := range all {
		if cfg.enabled(v.Name()) {
			e.validators = append(e.validators, v)
		}
	}
	return e
}

// Validators returns the names of the validators this engine will run.
func (e *Engine) Validators() []string {
	names := make([]string, 0, len(e.validators))
	for _, v := range e.validators {
		names = append(names, v.Name())
	}
	return names
}

// Run executes every enabled validator against the context and returns the
// aggregated findings. Validators run concurrently on independent buffers;
// the merge happens in the fixed validator order, with each validator's
// findings sorted by (date, instrument). Running twice on the same context
// yields an identical sequence.
func (e *Engine) Run(c *Context) []contracts.Finding {
	type slot struct {
		findings []contracts.Finding
		err      error
	}
	slots := make([]slot, len(e.validators))

	var wg sync.WaitGroup
	for i, v := range e.validators {
		wg.Add(1)
		go func(i int, v Validator) {
			defer wg.Done()
			slots[i].findings, slots[i].err = v.Run(c)
		}(i, v)
	}
	wg.Wait()

	var out []contracts.Finding
	seq := make(map[string]int)
	for i, v := range e.validators {
		if err := slots[i].err; err != nil {
			var unavailable *ValidatorUnavailableError
			reason := err.Error()
			if errors.As(err, &unavailable) {
				reason = unavailable.Reason
			}
			if e.log != nil {
				e.log.WithField("validator", v.Name()).Warn("validator skipped: " + reason)
			}
			out = append(out, contracts.Finding{
				Severity: contracts.SeverityWarning,
				Code:     contracts.CodeValidatorSkipped,
				Message:  "validator " + v.Name() + " skipped: " + reason,
			})
			continue
		}

		findings := slots[i].findings
		sort.SliceStable(findings, func(a, b int) bool {
			if !findings[a].Date.Equal(findings[b].Date) {
				return findings[a].Date.Before(findings[b].Date)
			}
			return findings[a].InstrumentID < findings[b].InstrumentID
		})
		for j := range findings {
			key := findings[j].Key()
			findings[j].Seq = seq[key]
			seq[key]++
		}
		out = append(out, findings...)
	}
	return out
}
