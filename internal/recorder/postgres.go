package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"OptionSentinel/internal/model"
)

// pgxPool is the subset of *pgxpool.Pool the recorder needs.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRecorder persists cycle history to Postgres.
type PostgresRecorder struct {
	pool   pgxPool
	close  func()
	tracer trace.Tracer
}

// NewPostgresRecorder connects to dsn and runs migrations.
func NewPostgresRecorder(ctx context.Context, dsn string, tracer trace.Tracer) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool, close: pool.Close, tracer: tracer}
	if err := r.RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// RunMigrations creates the history tables if missing.
func (r *PostgresRecorder) RunMigrations(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id              BIGSERIAL PRIMARY KEY,
			started_at      TIMESTAMPTZ NOT NULL,
			finished_at     TIMESTAMPTZ NOT NULL,
			stage           TEXT,
			status          TEXT,
			reason          TEXT,
			candidates      INTEGER,
			selected_symbol TEXT,
			b_score         SMALLINT,
			cash            DOUBLE PRECISION,
			investment      DOUBLE PRECISION,
			contracts       BIGINT,
			order_id        TEXT,
			order_status    TEXT,
			limit_price     DOUBLE PRECISION,
			error           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at)`,
		`CREATE TABLE IF NOT EXISTS candidate_scores (
			id           BIGSERIAL PRIMARY KEY,
			cycle_id     BIGINT NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
			symbol       TEXT NOT NULL,
			underlying   TEXT,
			b_score      SMALLINT,
			predicates   TEXT,
			option_price DOUBLE PRECISION,
			bid          DOUBLE PRECISION,
			vwap         DOUBLE PRECISION,
			spread       DOUBLE PRECISION,
			iv           DOUBLE PRECISION,
			today_gain   DOUBLE PRECISION,
			rsi14        DOUBLE PRECISION,
			bb_lower     DOUBLE PRECISION,
			sma5         DOUBLE PRECISION,
			volume       BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_cycle ON candidate_scores(cycle_id)`,
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}

// RecordCycle inserts the cycle row and its candidate scores in one
// transaction.
func (r *PostgresRecorder) RecordCycle(ctx context.Context, o *model.CycleOutcome) error {
	ctx, span := r.tracer.Start(ctx, "recorder.record-cycle")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cycle tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c := newCycleRow(o)
	var cycleID int64
	err = tx.QueryRow(ctx, `INSERT INTO cycles
		(started_at, finished_at, stage, status, reason, candidates,
		 selected_symbol, b_score, cash, investment, contracts,
		 order_id, order_status, limit_price, error)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id`,
		o.StartedAt.UTC(), o.FinishedAt.UTC(), c.Stage, c.Status, c.Reason, c.Candidates,
		c.SelectedSymbol, c.BScore, c.Cash, c.Investment, c.Contracts,
		c.OrderID, c.OrderStatus, c.LimitPrice, c.Error,
	).Scan(&cycleID)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	if rows := newScoreRows(o.Scored); len(rows) > 0 {
		if err := insertScores(ctx, tx, cycleID, rows); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cycle: %w", err)
	}
	return nil
}

func insertScores(ctx context.Context, tx pgx.Tx, cycleID int64, rows []scoreRow) error {
	batch := &pgx.Batch{}
	for _, s := range rows {
		batch.Queue(`INSERT INTO candidate_scores
			(cycle_id, symbol, underlying, b_score, predicates, option_price, bid,
			 vwap, spread, iv, today_gain, rsi14, bb_lower, sma5, volume)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			cycleID, s.Symbol, s.Underlying, s.BScore, s.Predicates, s.OptionPrice, s.Bid,
			s.VWAP, s.Spread, s.IV, s.TodayGain, s.RSI14, s.BBLower, s.SMA5, s.Volume,
		)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for _, s := range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert score %s: %w", s.Symbol, err)
		}
	}
	return br.Close()
}

func (r *PostgresRecorder) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}
