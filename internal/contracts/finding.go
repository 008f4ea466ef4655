package contracts

import (
	"fmt"
	"time"
)

// Severity grades a finding. Findings are never structural errors: even an
// error-severity finding is a normal engine outcome.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding codes. Stable strings: reports and stored runs key on them.
const (
	CodePriceJump         = "PRICE_JUMP"
	CodeInvalidPrice      = "INVALID_PRICE"
	CodeReconMismatch     = "RECON_MISMATCH"
	CodeReconTradeIgnored = "RECON_TRADE_IGNORED"
	CodeReconUnexplained  = "RECON_UNEXPLAINED_CHANGE"
	CodeMVMismatch        = "MV_MISMATCH"
	CodeWeightMismatch    = "WEIGHT_MISMATCH"
	CodeWeightsNotNormal  = "WEIGHTS_NOT_NORMALIZED"
	CodeTradePriceDev     = "TRADE_PRICE_DEVIATION"
	CodeMissingData       = "MISSING_DATA"
	CodeInvalidValue      = "INVALID_VALUE"
	CodeFXInconsistent    = "FX_INCONSISTENT"
	CodeStaticDataDrift   = "STATIC_DATA_DRIFT"
	CodeValidatorSkipped  = "VALIDATOR_SKIPPED"
)

// Finding is one structured data-quality observation. Findings are immutable
// value objects; identity is (Code, Date, InstrumentID, Seq).
type Finding struct {
	Severity     Severity  `json:"severity"`
	Code         string    `json:"code"`
	Date         time.Time `json:"date,omitzero"`
	InstrumentID string    `json:"instrument_id,omitempty"` // "" for portfolio- or run-level findings
	Observed     *float64  `json:"observed,omitempty"`
	Expected     *float64  `json:"expected,omitempty"`
	Deviation    *float64  `json:"deviation,omitempty"`
	Message      string    `json:"message"`
	Seq          int       `json:"seq"` // disambiguates duplicates of the same (code, date, instrument)
}

// Key returns the identity tuple without the sequence number.
func (f Finding) Key() string {
	return fmt.Sprintf("%s|%s|%s", f.Code, f.Date.Format("2006-01-02"), f.InstrumentID)
}

// IsError reports whether the finding is error severity.
func (f Finding) IsError() bool {
	return f.Severity == SeverityError
}

// Float boxes a value for the optional observed/expected/deviation fields.
func Float(v float64) *float64 {
	return &v
}
