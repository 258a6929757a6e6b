package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
)

func sampleTrade() simulator.ClosedTrade {
	entry := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	exit := entry.Add(2 * time.Hour)
	return simulator.ClosedTrade{
		Symbol:     "PETR4",
		Direction:  wave3.Long,
		EntryTime:  bar.Bar{Timestamp: entry},
		EntryPrice: 48.6,
		ExitTime:   bar.Bar{Timestamp: exit},
		Quantity:   1.0,
		ReturnPct:  0.013,
	}
}

func newSink(t *testing.T) (TradeSink, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	sink := NewTradeSink(sqlxDB, time.Second)
	return sink, mock, func() { db.Close() }
}

func TestTradeIDIsDeterministic(t *testing.T) {
	a := TradeID(sampleTrade())
	b := TradeID(sampleTrade())
	require.Equal(t, a, b, "TradeID must be a pure function of (symbol, entry_time, exit_time, quantity)")
}

func TestTradeIDChangesWithQuantity(t *testing.T) {
	t1 := sampleTrade()
	t2 := sampleTrade()
	t2.Quantity = 0.5
	require.NotEqual(t, TradeID(t1), TradeID(t2))
}

func TestInsertTradeExecutesUpsert(t *testing.T) {
	sink, mock, closeDB := newSink(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO closed_trades").WillReturnResult(sqlmock.NewResult(0, 1))

	err := sink.InsertTrade(context.Background(), "run-1", sampleTrade())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTradeTreatsDuplicateAsSuccess(t *testing.T) {
	sink, mock, closeDB := newSink(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO closed_trades").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	err := sink.InsertTrade(context.Background(), "run-1", sampleTrade())
	require.NoError(t, err, "a unique-constraint violation on trade_id must be treated as already-recorded, not a failure")
}

func TestInsertTradesEmptyBatchIsNoOpWithoutQuerying(t *testing.T) {
	sink, mock, closeDB := newSink(t)
	defer closeDB()

	err := sink.InsertTrades(context.Background(), "run-1", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
