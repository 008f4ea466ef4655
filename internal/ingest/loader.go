package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/validation"
)

// Canonical column names. The loader also accepts the headers of the original
// portfolio report this format grew out of (see columnAliases).
const (
	colDate          = "date"
	colInstrument    = "instrument_id"
	colQuantity      = "quantity"
	colPrice         = "price"
	colCurrency      = "currency"
	colFXRate        = "fx_rate"
	colMarketValue   = "market_value"
	colWeight        = "weight"
	colSector        = "sector"
	colTradeQuantity = "trade_quantity"
	colTradePrice    = "trade_price"
	colSide          = "side"
)

var columnAliases = map[string]string{
	"p_ticker":        colInstrument,
	"ticker":          colInstrument,
	"instrument":      colInstrument,
	"close quantity":  colQuantity,
	"exchange rate":   colFXRate,
	"value in usd":    colMarketValue,
	"closing weights": colWeight,
	"traded today":    colTradeQuantity,
	"trade price":     colTradePrice,
}

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2-Jan-2006",
	"2006-01-02 15:04:05",
}

// Load reads a CSV document holding daily position rows with embedded trade
// columns, and returns the normalized records. A missing identity column is a
// structural failure; unparseable cell values become Missing and are left to
// the completeness validator.
func Load(r io.Reader) ([]contracts.PositionRecord, []contracts.TradeRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, &validation.MalformedInputError{Reason: fmt.Sprintf("cannot read header: %v", err)}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		index[name] = i
	}
	for _, required := range []string{colDate, colInstrument, colQuantity} {
		if _, ok := index[required]; !ok {
			return nil, nil, &validation.MalformedInputError{Reason: fmt.Sprintf("required column %q absent from schema", required)}
		}
	}

	var positions []contracts.PositionRecord
	var trades []contracts.TradeRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &validation.MalformedInputError{Reason: fmt.Sprintf("cannot read row %d: %v", line+1, err)}
		}
		line++

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		date, err := parseDate(cell(colDate))
		if err != nil {
			return nil, nil, &validation.MalformedInputError{Reason: fmt.Sprintf("row %d: %v", line, err)}
		}
		instrument := cell(colInstrument)
		if instrument == "" {
			return nil, nil, &validation.MalformedInputError{Reason: fmt.Sprintf("row %d: empty instrument id", line)}
		}

		p := contracts.PositionRecord{
			Date:         date,
			InstrumentID: instrument,
			Quantity:     parseNumber(cell(colQuantity)),
			Price:        parseNumber(cell(colPrice)),
			Currency:     cell(colCurrency),
			FXRate:       parseNumber(cell(colFXRate)),
			MarketValue:  parseNumber(cell(colMarketValue)),
			Weight:       parseWeight(cell(colWeight)),
			Sector:       cell(colSector),
		}
		positions = append(positions, p)

		// Trade extraction: a row with a nonzero traded quantity also
		// describes a trade.
		tradeQty := parseNumber(cell(colTradeQuantity))
		if !contracts.IsMissing(tradeQty) && tradeQty != 0 {
			trades = append(trades, contracts.TradeRecord{
				Date:          date,
				InstrumentID:  instrument,
				TradeQuantity: tradeQty,
				TradePrice:    parseNumber(cell(colTradePrice)),
				Side:          parseSide(cell(colSide), tradeQty),
			})
		}
	}

	normalizeWeightScale(positions)
	return positions, trades, nil
}

// LoadFile is Load over a file on disk.
func LoadFile(path string) ([]contracts.PositionRecord, []contracts.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return contracts.DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseNumber strips currency and grouping symbols before parsing. Anything
// that still fails to parse becomes Missing.
func parseNumber(s string) float64 {
	if s == "" {
		return contracts.Missing
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return contracts.Missing
	}
	return v
}

// parseWeight additionally understands a percent suffix ("25%" -> 0.25).
func parseWeight(s string) float64 {
	if strings.HasSuffix(s, "%") {
		v := parseNumber(strings.TrimSuffix(s, "%"))
		if contracts.IsMissing(v) {
			return v
		}
		return v / 100
	}
	return parseNumber(s)
}

func parseSide(s string, qty float64) contracts.Side {
	switch strings.ToLower(s) {
	case "buy", "b":
		return contracts.SideBuy
	case "sell", "s":
		return contracts.SideSell
	}
	if qty < 0 {
		return contracts.SideSell
	}
	return contracts.SideBuy
}

// normalizeWeightScale rescales weights reported on a 0-100 scale down to
// 0-1. The heuristic follows the original report format: when the median
// daily weight sum lands near 100 rather than 1, the whole column is
// percentage-scaled.
func normalizeWeightScale(positions []contracts.PositionRecord) {
	sums := make(map[time.Time]float64)
	for _, p := range positions {
		if !contracts.IsMissing(p.Weight) {
			sums[p.Date] += p.Weight
		}
	}
	if len(sums) == 0 {
		return
	}
	values := make([]float64, 0, len(sums))
	for _, s := range sums {
		values = append(values, s)
	}
	sort.Float64s(values)
	if values[len(values)/2] <= 10 {
		return
	}
	for i := range positions {
		if !contracts.IsMissing(positions[i].Weight) {
			positions[i].Weight /= 100
		}
	}
}
