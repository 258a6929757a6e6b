// Package postgres implements the relational Trade Sink named in spec.md
// §6 ("out of scope: persistence internals, but a reference adapter is a
// concrete, idiomatic boundary implementation"), grounded on
// internal/persistence/postgres/trades_repo.go's sqlx+lib/pq idiom.
package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/b3quant/wave3/internal/domain/simulator"
)

// TradeSink persists Closed Trades emitted by the Walk-Forward Backtester.
type TradeSink interface {
	InsertTrade(ctx context.Context, runID string, trade simulator.ClosedTrade) error
	InsertTrades(ctx context.Context, runID string, trades []simulator.ClosedTrade) error
}

type tradeSink struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTradeSink wraps db as a TradeSink, following NewTradesRepo's
// constructor shape.
func NewTradeSink(db *sqlx.DB, timeout time.Duration) TradeSink {
	return &tradeSink{db: db, timeout: timeout}
}

// TradeID deterministically derives a trade's identity from
// (symbol, entry_time, exit_time, quantity) per SPEC_FULL.md §9 —
// never a generated UUID, so reruns produce identical IDs and an
// idempotent insert is possible.
func TradeID(t simulator.ClosedTrade) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%.10f", t.Symbol, t.EntryTime.Timestamp.UTC().Format(time.RFC3339Nano),
		t.ExitTime.Timestamp.UTC().Format(time.RFC3339Nano), t.Quantity)
	return hex.EncodeToString(h.Sum(nil))
}

// InsertTrade performs an idempotent insert keyed on the deterministic
// trade_id: a unique-constraint violation (Postgres code 23505) is treated
// as "already recorded", not an error, matching trades_repo.go's
// duplicate-trade handling but folding it into success rather than a
// distinct error, since reruns of the same backtest are expected to
// rewrite the same trade set byte-for-byte.
func (s *tradeSink) InsertTrade(ctx context.Context, runID string, t simulator.ClosedTrade) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO closed_trades
			(trade_id, run_id, symbol, direction, entry_time, entry_price, exit_time,
			 quantity, return_pct, gross_pnl, mfe_pct, mae_pct, quality_score, is_end_of_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (trade_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		TradeID(t), runID, t.Symbol, string(t.Direction), t.EntryTime.Timestamp, t.EntryPrice,
		t.ExitTime.Timestamp, t.Quantity, t.ReturnPct, t.GrossPnL, t.MFEPct, t.MAEPct,
		t.QualityScore, t.IsEndOfData)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil
		}
		return fmt.Errorf("insert closed trade: %w", err)
	}
	return nil
}

// InsertTrades persists a batch atomically, matching InsertBatch's
// prepared-statement-inside-a-transaction shape.
func (s *tradeSink) InsertTrades(ctx context.Context, runID string, trades []simulator.ClosedTrade) error {
	if len(trades) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout*time.Duration(len(trades)/100+1))
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO closed_trades
			(trade_id, run_id, symbol, direction, entry_time, entry_price, exit_time,
			 quantity, return_pct, gross_pnl, mfe_pct, mae_pct, quality_score, is_end_of_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (trade_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.ExecContext(ctx,
			TradeID(t), runID, t.Symbol, string(t.Direction), t.EntryTime.Timestamp, t.EntryPrice,
			t.ExitTime.Timestamp, t.Quantity, t.ReturnPct, t.GrossPnL, t.MFEPct, t.MAEPct,
			t.QualityScore, t.IsEndOfData)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				continue
			}
			return fmt.Errorf("insert closed trade in batch: %w", err)
		}
	}

	return tx.Commit()
}
