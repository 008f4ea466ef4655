package validation

import (
	"fmt"
	"math"
	"strings"
)

// Validator names, as accepted by Config.EnabledValidators.
const (
	NameCompleteness   = "completeness"
	NamePrice          = "price"
	NameReconciliation = "reconciliation"
	NameCalculation    = "calculation"
	NameConsistency    = "consistency"
	NameFXConsistency  = "fx_consistency"
	NameStaticData     = "static_data"
)

// PriceJumpThresholds holds the two-tier relative-move thresholds for the
// price validator.
type PriceJumpThresholds struct {
	WarnPct  float64 `json:"warn_pct"`
	ErrorPct float64 `json:"error_pct"`
}

// StaticTransition is one permitted old→new change of a static field.
type StaticTransition struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Config holds every threshold the validators consult. Zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// BaseCurrency is the portfolio reporting currency. Instruments in this
	// currency do not require an FX rate.
	BaseCurrency string `json:"base_currency"`

	PriceJump PriceJumpThresholds `json:"price_jump"`
	// PriceJumpSectorOverrides replaces the default thresholds for
	// instruments of a given sector, the only classification the records
	// carry.
	PriceJumpSectorOverrides map[string]PriceJumpThresholds `json:"price_jump_sector_overrides,omitempty"`

	ReconciliationAbsTolerance float64 `json:"reconciliation_abs_tolerance"`
	ReconciliationRelTolerance float64 `json:"reconciliation_rel_tolerance"`

	TradePriceDeviationWarnPct  float64 `json:"trade_price_deviation_warn_pct"`
	TradePriceDeviationErrorPct float64 `json:"trade_price_deviation_error_pct"`

	FXTolerancePct float64 `json:"fx_tolerance_pct"`

	// AllowedStaticTransitions maps a field name ("currency", "sector") to
	// the old→new changes that are not drift.
	AllowedStaticTransitions map[string][]StaticTransition `json:"allowed_static_transitions,omitempty"`

	// EnabledValidators restricts which validators run. Empty means all, in
	// the engine's fixed order.
	EnabledValidators []string `json:"enabled_validators,omitempty"`
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		BaseCurrency: "USD",
		PriceJump: PriceJumpThresholds{
			WarnPct:  0.20,
			ErrorPct: 0.50,
		},
		ReconciliationAbsTolerance: 1e-6,
		ReconciliationRelTolerance: 1e-4,

		TradePriceDeviationWarnPct:  0.05,
		TradePriceDeviationErrorPct: 0.15,

		FXTolerancePct: 0.001,
	}
}

// priceThresholds resolves the jump thresholds for an instrument's sector.
func (c Config) priceThresholds(sector string) PriceJumpThresholds {
	if t, ok := c.PriceJumpSectorOverrides[sector]; ok {
		return t
	}
	return c.PriceJump
}

// reconTolerance is the greater of the absolute tolerance and the relative
// tolerance scaled by the comparison base.
func (c Config) reconTolerance(base float64) float64 {
	rel := c.ReconciliationRelTolerance * math.Abs(base)
	if rel > c.ReconciliationAbsTolerance {
		return rel
	}
	return c.ReconciliationAbsTolerance
}

// transitionAllowed reports whether an old→new change of a static field is
// explicitly permitted.
func (c Config) transitionAllowed(field, old, new string) bool {
	for _, t := range c.AllowedStaticTransitions[field] {
		if t.Old == old && t.New == new {
			return true
		}
	}
	return false
}

// enabled reports whether a validator name is selected by the config.
func (c Config) enabled(name string) bool {
	if len(c.EnabledValidators) == 0 {
		return true
	}
	for _, n := range c.EnabledValidators {
		if n == name {
			return true
		}
	}
	return false
}

// ParseStaticTransitions parses entries of the form "field:old>new" into the
// AllowedStaticTransitions mapping. Used by the env configuration surface.
func ParseStaticTransitions(entries []string) (map[string][]StaticTransition, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string][]StaticTransition, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		field, pair, ok := strings.Cut(e, ":")
		if !ok {
			return nil, fmt.Errorf("invalid static transition %q: want field:old>new", e)
		}
		old, new, ok := strings.Cut(pair, ">")
		if !ok {
			return nil, fmt.Errorf("invalid static transition %q: want field:old>new", e)
		}
		field = strings.TrimSpace(field)
		out[field] = append(out[field], StaticTransition{
			Old: strings.TrimSpace(old),
			New: strings.TrimSpace(new),
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
