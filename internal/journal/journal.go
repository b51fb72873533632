// Package journal persists executed trades to SQLite for offline inspection.
package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"coinwise-go/internal/execution"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	amount REAL NOT NULL,
	realized_profit REAL NOT NULL,
	reason TEXT NOT NULL,
	ts DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`

// SQLite journals trades into a local database file. Record is fire-and-forget
// to keep the execution path unblocked; write failures are logged only.
type SQLite struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLite opens (creating if needed) the journal database at path.
func NewSQLite(path string, log zerolog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, log: log}, nil
}

// Record implements portfolio.TradeRecorder.
func (j *SQLite) Record(t execution.Trade) {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, price, quantity, amount, realized_profit, reason, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, string(t.Side), t.Price, t.Quantity, t.Amount,
		t.RealizedProfit, t.Reason, t.Ts,
	)
	if err != nil {
		j.log.Warn().Err(err).Str("trade", t.ID).Msg("journal write failed")
	}
}

// Trades loads every journaled trade in insertion (ULID) order.
func (j *SQLite) Trades() ([]execution.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, price, quantity, amount, realized_profit, reason, ts
		FROM trades ORDER BY trade_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []execution.Trade
	for rows.Next() {
		var t execution.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.Symbol, &side, &t.Price, &t.Quantity, &t.Amount,
			&t.RealizedProfit, &t.Reason, &t.Ts); err != nil {
			return nil, err
		}
		t.Side = execution.Side(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (j *SQLite) Close() error {
	return j.db.Close()
}
