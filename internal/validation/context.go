package validation

import (
	"fmt"
	"sort"
	"time"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// NetTrade is the netted view of all trades for one (date, instrument):
// signed total quantity plus the volume-weighted average price over the
// trades that carried one.
type NetTrade struct {
	Quantity float64
	VWAP     float64 // contracts.Missing when no trade had a price
}

// StaticAttrs are the as-of-last-seen time-invariant attributes of an
// instrument.
type StaticAttrs struct {
	Currency string
	Sector   string
}

type dayKey struct {
	date       time.Time
	instrument string
}

// Context is the immutable, pre-joined view of a dataset shared by all
// validators. It is built once per run and never mutated afterwards, so
// validators may read it concurrently without coordination.
type Context struct {
	instruments []string
	byInst      map[string][]contracts.PositionRecord // date-ascending per instrument
	trades      map[dayKey]NetTrade
	totals      map[time.Time]float64 // sum of reported market values per date
	dates       []time.Time
	lastStatic  map[string]StaticAttrs

	positionCount int
	tradeCount    int

	hasPrices       bool
	hasQuantities   bool
	hasFXRates      bool
	hasMarketValues bool
	hasWeights      bool
	hasSectors      bool
	hasCurrencies   bool
	hasTrades       bool
}

// NewContext builds the derived lookups from already-normalized records.
// Duplicate (date, instrument) position rows are a structural failure.
func NewContext(positions []contracts.PositionRecord, trades []contracts.TradeRecord) (*Context, error) {
	c := &Context{
		byInst:        make(map[string][]contracts.PositionRecord),
		trades:        make(map[dayKey]NetTrade),
		totals:        make(map[time.Time]float64),
		lastStatic:    make(map[string]StaticAttrs),
		positionCount: len(positions),
		tradeCount:    len(trades),
		hasTrades:     len(trades) > 0,
	}

	seen := make(map[dayKey]bool, len(positions))
	dateSet := make(map[time.Time]bool)

	for _, p := range positions {
		p.Date = contracts.DateOf(p.Date)
		key := dayKey{date: p.Date, instrument: p.InstrumentID}
		if seen[key] {
			return nil, &MalformedInputError{Reason: fmt.Sprintf(
				"duplicate position for %s on %s", p.InstrumentID, p.Date.Format("2006-01-02"))}
		}
		seen[key] = true
		dateSet[p.Date] = true

		c.byInst[p.InstrumentID] = append(c.byInst[p.InstrumentID], p)
		if !contracts.IsMissing(p.MarketValue) {
			c.totals[p.Date] += p.MarketValue
		}

		c.hasPrices = c.hasPrices || !contracts.IsMissing(p.Price)
		c.hasQuantities = c.hasQuantities || !contracts.IsMissing(p.Quantity)
		c.hasFXRates = c.hasFXRates || !contracts.IsMissing(p.FXRate)
		c.hasMarketValues = c.hasMarketValues || !contracts.IsMissing(p.MarketValue)
		c.hasWeights = c.hasWeights || !contracts.IsMissing(p.Weight)
		c.hasSectors = c.hasSectors || p.Sector != ""
		c.hasCurrencies = c.hasCurrencies || p.Currency != ""
	}

	for id := range c.byInst {
		c.instruments = append(c.instruments, id)
		sort.SliceStable(c.byInst[id], func(i, j int) bool {
			return c.byInst[id][i].Date.Before(c.byInst[id][j].Date)
		})
		attrs := StaticAttrs{}
		for _, p := range c.byInst[id] {
			if p.Currency != "" {
				attrs.Currency = p.Currency
			}
			if p.Sector != "" {
				attrs.Sector = p.Sector
			}
		}
		c.lastStatic[id] = attrs
	}
	sort.Strings(c.instruments)

	// Net trades and accumulate notional for the volume-weighted price.
	type acc struct {
		qty      float64
		notional float64
		priced   float64 // absolute quantity that carried a price
	}
	accs := make(map[dayKey]*acc)
	for _, t := range trades {
		date := contracts.DateOf(t.Date)
		dateSet[date] = true
		key := dayKey{date: date, instrument: t.InstrumentID}
		a := accs[key]
		if a == nil {
			a = &acc{}
			accs[key] = a
		}
		a.qty += t.TradeQuantity
		if !contracts.IsMissing(t.TradePrice) {
			absQty := t.TradeQuantity
			if absQty < 0 {
				absQty = -absQty
			}
			a.notional += absQty * t.TradePrice
			a.priced += absQty
		}
	}
	for key, a := range accs {
		nt := NetTrade{Quantity: a.qty, VWAP: contracts.Missing}
		if a.priced > 0 {
			nt.VWAP = a.notional / a.priced
		}
		c.trades[key] = nt
	}

	for d := range dateSet {
		c.dates = append(c.dates, d)
	}
	sort.Slice(c.dates, func(i, j int) bool { return c.dates[i].Before(c.dates[j]) })

	return c, nil
}

// Instruments returns all instrument IDs in ascending order.
func (c *Context) Instruments() []string { return c.instruments }

// Series returns an instrument's position records in date order.
func (c *Context) Series(instrument string) []contracts.PositionRecord {
	return c.byInst[instrument]
}

// Dates returns every date observed in the dataset, ascending.
func (c *Context) Dates() []time.Time { return c.dates }

// NetTradeFor returns the netted trade for a (date, instrument), if any trade
// record exists for that key.
func (c *Context) NetTradeFor(date time.Time, instrument string) (NetTrade, bool) {
	nt, ok := c.trades[dayKey{date: contracts.DateOf(date), instrument: instrument}]
	return nt, ok
}

// TotalValue returns the summed reported market value for a date.
func (c *Context) TotalValue(date time.Time) float64 {
	return c.totals[contracts.DateOf(date)]
}

// Static returns the as-of-last-seen static attributes for an instrument.
func (c *Context) Static(instrument string) (StaticAttrs, bool) {
	a, ok := c.lastStatic[instrument]
	return a, ok
}

// PositionCount and TradeCount describe the raw dataset size.
func (c *Context) PositionCount() int { return c.positionCount }
func (c *Context) TradeCount() int    { return c.tradeCount }

// Presence checks: a plane counts as present when at least one record carries
// a value. Validators whose whole plane is absent report themselves
// unavailable instead of emitting per-row findings.
func (c *Context) HasPrices() bool       { return c.hasPrices }
func (c *Context) HasQuantities() bool   { return c.hasQuantities }
func (c *Context) HasFXRates() bool      { return c.hasFXRates }
func (c *Context) HasMarketValues() bool { return c.hasMarketValues }
func (c *Context) HasWeights() bool      { return c.hasWeights }
func (c *Context) HasSectors() bool      { return c.hasSectors }
func (c *Context) HasCurrencies() bool   { return c.hasCurrencies }
func (c *Context) HasTrades() bool       { return c.hasTrades }
