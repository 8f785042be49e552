// Package journal persists completed runs to SQLite, giving every backtest
// a durable, queryable record: which strategy ran, over what window, and how
// it performed. Run IDs are ULIDs, so listing by primary key is listing by
// creation time.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/backtest"
	"github.com/tradeforge/quantback/pkg/id"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID          string
	Created        time.Time
	Strategy       string
	Symbol         string
	Start          time.Time
	End            time.Time
	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal
	TotalReturn    decimal.Decimal
	MaxDrawdown    decimal.Decimal
	SharpeRatio    decimal.Decimal
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	ExecutionMS    int64
}

// TradeRecord is one row of the run_trades table.
type TradeRecord struct {
	RunID      string
	Seq        int
	Symbol     string
	EntryTime  time.Time
	ExitTime   time.Time
	Shares     decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	PnL        decimal.Decimal
	ExitReason string
}

// SQLite is a run journal backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and ensures the
// schema exists.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// RecordRun writes the run summary and its trades in one transaction and
// returns the new run ID.
func (j *SQLite) RecordRun(ctx context.Context, res *backtest.Result) (string, error) {
	runID := id.New()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, strategy, symbol, period_start, period_end,
		 initial_capital, final_equity, total_return, max_drawdown, sharpe_ratio,
		 total_trades, winning_trades, losing_trades, execution_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.CompletedAt, res.Config.Strategy, res.Symbol,
		res.Config.Start, res.Config.End,
		res.Config.InitialCapital.String(), res.Metrics.FinalEquity.String(),
		res.Metrics.TotalReturn.String(), res.Metrics.MaxDrawdown.String(),
		res.Metrics.SharpeRatio.String(),
		res.Metrics.TotalTrades, res.Metrics.WinningTrades, res.Metrics.LosingTrades,
		res.ExecutionTime.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("journal: insert run: %w", err)
	}

	for i, tr := range res.Trades {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_trades
			(run_id, seq, symbol, entry_time, exit_time, shares, entry_price, exit_price, pnl, exit_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, tr.Symbol, tr.EntryTime, tr.ExitTime,
			tr.Shares.String(), tr.EntryPrice.String(), tr.ExitPrice.String(),
			tr.PnL.String(), tr.ExitReason,
		)
		if err != nil {
			return "", fmt.Errorf("journal: insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("journal: commit: %w", err)
	}
	return runID, nil
}

// GetRun loads one run summary by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, strategy, symbol, period_start, period_end,
		       initial_capital, final_equity, total_return, max_drawdown, sharpe_ratio,
		       total_trades, winning_trades, losing_trades, execution_ms
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns run summaries in creation order, newest last. A zero
// limit returns everything.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `
		SELECT run_id, created, strategy, symbol, period_start, period_end,
		       initial_capital, final_equity, total_return, max_drawdown, sharpe_ratio,
		       total_trades, winning_trades, losing_trades, execution_ms
		FROM runs ORDER BY run_id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTrades returns the trades of one run in execution order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, symbol, entry_time, exit_time, shares, entry_price, exit_price, pnl, exit_reason
		FROM run_trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: list trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var tr TradeRecord
		var shares, entry, exit, pnl string
		if err := rows.Scan(&tr.RunID, &tr.Seq, &tr.Symbol, &tr.EntryTime, &tr.ExitTime,
			&shares, &entry, &exit, &pnl, &tr.ExitReason); err != nil {
			return nil, fmt.Errorf("journal: scan trade: %w", err)
		}
		if tr.Shares, err = decimal.NewFromString(shares); err != nil {
			return nil, fmt.Errorf("journal: trade shares: %w", err)
		}
		if tr.EntryPrice, err = decimal.NewFromString(entry); err != nil {
			return nil, fmt.Errorf("journal: trade entry price: %w", err)
		}
		if tr.ExitPrice, err = decimal.NewFromString(exit); err != nil {
			return nil, fmt.Errorf("journal: trade exit price: %w", err)
		}
		if tr.PnL, err = decimal.NewFromString(pnl); err != nil {
			return nil, fmt.Errorf("journal: trade pnl: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var capital, equity, ret, dd, sharpe string
	err := row.Scan(&rec.RunID, &rec.Created, &rec.Strategy, &rec.Symbol, &rec.Start, &rec.End,
		&capital, &equity, &ret, &dd, &sharpe,
		&rec.TotalTrades, &rec.WinningTrades, &rec.LosingTrades, &rec.ExecutionMS)
	if err != nil {
		return RunRecord{}, fmt.Errorf("journal: scan run: %w", err)
	}
	if rec.InitialCapital, err = decimal.NewFromString(capital); err != nil {
		return RunRecord{}, fmt.Errorf("journal: run initial capital: %w", err)
	}
	if rec.FinalEquity, err = decimal.NewFromString(equity); err != nil {
		return RunRecord{}, fmt.Errorf("journal: run final equity: %w", err)
	}
	if rec.TotalReturn, err = decimal.NewFromString(ret); err != nil {
		return RunRecord{}, fmt.Errorf("journal: run total return: %w", err)
	}
	if rec.MaxDrawdown, err = decimal.NewFromString(dd); err != nil {
		return RunRecord{}, fmt.Errorf("journal: run max drawdown: %w", err)
	}
	if rec.SharpeRatio, err = decimal.NewFromString(sharpe); err != nil {
		return RunRecord{}, fmt.Errorf("journal: run sharpe: %w", err)
	}
	return rec, nil
}
