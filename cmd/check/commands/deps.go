package commands

import (
	"fmt"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/validation"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/config"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// loadConfig reads the environment config and forces debug logging when
// --verbose is set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// buildEngine maps the env configuration surface onto the validator
// thresholds and constructs the engine.
func buildEngine(cfg *config.Config, log *logger.Logger) (*validation.Engine, error) {
	vcfg := validation.DefaultConfig()

	v := cfg.Validation
	vcfg.BaseCurrency = v.BaseCurrency
	vcfg.PriceJump = validation.PriceJumpThresholds{
		WarnPct:  v.PriceJumpWarnPct,
		ErrorPct: v.PriceJumpErrorPct,
	}
	vcfg.ReconciliationAbsTolerance = v.ReconciliationAbsTolerance
	vcfg.ReconciliationRelTolerance = v.ReconciliationRelTolerance
	vcfg.TradePriceDeviationWarnPct = v.TradePriceDeviationWarnPct
	vcfg.TradePriceDeviationErrorPct = v.TradePriceDeviationErrorPct
	vcfg.FXTolerancePct = v.FXTolerancePct
	vcfg.EnabledValidators = v.EnabledValidators

	transitions, err := validation.ParseStaticTransitions(v.AllowedStaticTransitions)
	if err != nil {
		return nil, fmt.Errorf("parse ALLOWED_STATIC_TRANSITIONS: %w", err)
	}
	vcfg.AllowedStaticTransitions = transitions

	return validation.NewEngine(vcfg, log), nil
}
