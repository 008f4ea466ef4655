package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
)

// DatasetRepository loads normalized position and trade records from
// Postgres. Nullable numeric columns come back as Missing, matching the CSV
// loader's behavior, so validators see one representation regardless of the
// source.
type DatasetRepository struct {
	pool *pgxpool.Pool
}

// NewDatasetRepository creates a dataset repository.
func NewDatasetRepository(pool *pgxpool.Pool) *DatasetRepository {
	return &DatasetRepository{pool: pool}
}

// LoadPositions returns position records for the inclusive date range.
func (r *DatasetRepository) LoadPositions(ctx context.Context, from, to time.Time) ([]contracts.PositionRecord, error) {
	query := `
		SELECT date, instrument_id, quantity, price, currency, fx_rate,
		       market_value, weight, sector
		FROM portfolio.positions
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, instrument_id
	`

	rows, err := r.pool.Query(ctx, query, contracts.DateOf(from), contracts.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var positions []contracts.PositionRecord
	for rows.Next() {
		var p contracts.PositionRecord
		var quantity, price, fxRate, marketValue, weight *float64
		var currency, sector *string

		if err := rows.Scan(&p.Date, &p.InstrumentID, &quantity, &price,
			&currency, &fxRate, &marketValue, &weight, &sector); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}

		p.Date = contracts.DateOf(p.Date)
		p.Quantity = deref(quantity)
		p.Price = deref(price)
		p.FXRate = deref(fxRate)
		p.MarketValue = deref(marketValue)
		p.Weight = deref(weight)
		p.Currency = derefString(currency)
		p.Sector = derefString(sector)

		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	return positions, nil
}

// LoadTrades returns trade records for the inclusive date range.
func (r *DatasetRepository) LoadTrades(ctx context.Context, from, to time.Time) ([]contracts.TradeRecord, error) {
	query := `
		SELECT date, instrument_id, trade_quantity, trade_price, side
		FROM portfolio.trades
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, instrument_id
	`

	rows, err := r.pool.Query(ctx, query, contracts.DateOf(from), contracts.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []contracts.TradeRecord
	for rows.Next() {
		var t contracts.TradeRecord
		var tradePrice *float64
		var side *string

		if err := rows.Scan(&t.Date, &t.InstrumentID, &t.TradeQuantity, &tradePrice, &side); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}

		t.Date = contracts.DateOf(t.Date)
		t.TradePrice = deref(tradePrice)
		t.Side = contracts.Side(derefString(side))

		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trades: %w", err)
	}

	return trades, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return contracts.Missing
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
