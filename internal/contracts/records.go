package contracts

import (
	"math"
	"time"
)

// Missing is the sentinel for a numeric field that was absent or unparseable
// in the source data. Absence is a data-quality matter handled by the
// completeness validator, never a load failure.
var Missing = math.NaN()

// IsMissing reports whether a numeric field carries no value.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Day builds a normalized calendar date (UTC midnight). All record dates are
// normalized this way so they are safe to use as map keys.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates a timestamp to its calendar date (UTC midnight).
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PositionRecord is one instrument's end-of-day position. (Date, InstrumentID)
// is unique within a dataset. Quantity, Price, FXRate, MarketValue and Weight
// may be Missing; Currency and Sector may be empty.
type PositionRecord struct {
	Date         time.Time `json:"date"`
	InstrumentID string    `json:"instrument_id"`
	Quantity     float64   `json:"quantity"`
	Price        float64   `json:"price"`        // local-currency unit price
	Currency     string    `json:"currency"`     // ISO code, "" when unknown
	FXRate       float64   `json:"fx_rate"`      // base-currency units per local unit
	MarketValue  float64   `json:"market_value"` // expected = quantity * price * fx_rate
	Weight       float64   `json:"weight"`       // expected = market_value / portfolio total
	Sector       string    `json:"sector"`
}

// Held reports whether the record represents a nonzero holding. A record with
// an unknown quantity is treated as held, so downstream checks stay
// conservative.
func (p PositionRecord) Held() bool {
	return IsMissing(p.Quantity) || p.Quantity != 0
}

// Side distinguishes buys from sells. It is redundant with the sign of the
// trade quantity and kept for cross-checking at ingestion time.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeRecord is a single trade. Several trades may share (Date,
// InstrumentID); validators work with the netted view built by the context.
type TradeRecord struct {
	Date          time.Time `json:"date"`
	InstrumentID  string    `json:"instrument_id"`
	TradeQuantity float64   `json:"trade_quantity"` // signed, positive = buy
	TradePrice    float64   `json:"trade_price"`    // may be Missing
	Side          Side      `json:"side,omitempty"`
}
