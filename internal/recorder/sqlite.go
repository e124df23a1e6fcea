package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"OptionSentinel/internal/model"
)

// SQLiteRecorder persists cycle history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query history while a cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at      INTEGER NOT NULL,
			finished_at     INTEGER NOT NULL,
			stage           TEXT,
			status          TEXT,
			reason          TEXT,
			candidates      INTEGER,
			selected_symbol TEXT,
			b_score         INTEGER,
			cash            REAL,
			investment      REAL,
			contracts       INTEGER,
			order_id        TEXT,
			order_status    TEXT,
			limit_price     REAL,
			error           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS candidate_scores (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id     INTEGER NOT NULL REFERENCES cycles(id),
			symbol       TEXT NOT NULL,
			underlying   TEXT,
			b_score      INTEGER,
			predicates   TEXT,
			option_price REAL,
			bid          REAL,
			vwap         REAL,
			spread       REAL,
			iv           REAL,
			today_gain   REAL,
			rsi14        REAL,
			bb_lower     REAL,
			sma5         REAL,
			volume       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_cycle ON candidate_scores(cycle_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordCycle writes the cycle and its scored candidates in one transaction.
func (r *SQLiteRecorder) RecordCycle(ctx context.Context, o *model.CycleOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	c := newCycleRow(o)
	res, err := tx.ExecContext(ctx, `INSERT INTO cycles
		(started_at, finished_at, stage, status, reason, candidates,
		 selected_symbol, b_score, cash, investment, contracts,
		 order_id, order_status, limit_price, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.StartedAt, c.FinishedAt, c.Stage, c.Status, c.Reason, c.Candidates,
		c.SelectedSymbol, c.BScore, c.Cash, c.Investment, c.Contracts,
		c.OrderID, c.OrderStatus, c.LimitPrice, c.Error,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	cycleID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("cycle id: %w", err)
	}

	for _, s := range newScoreRows(o.Scored) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO candidate_scores
			(cycle_id, symbol, underlying, b_score, predicates, option_price, bid,
			 vwap, spread, iv, today_gain, rsi14, bb_lower, sma5, volume)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			cycleID, s.Symbol, s.Underlying, s.BScore, s.Predicates, s.OptionPrice, s.Bid,
			s.VWAP, s.Spread, s.IV, s.TodayGain, s.RSI14, s.BBLower, s.SMA5, s.Volume,
		); err != nil {
			return fmt.Errorf("insert score %s: %w", s.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
