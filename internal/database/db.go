// Package database persists evaluation runs to PostgreSQL. Persistence is
// opt-in; the evaluation core never depends on it.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/enerquant/backtest/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// New opens a PostgreSQL connection and creates the result tables if they
// don't exist
func New(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id UUID PRIMARY KEY,
			symbol TEXT NOT NULL,
			method TEXT NOT NULL,
			initial_capital DOUBLE PRECISION NOT NULL,
			final_capital DOUBLE PRECISION NOT NULL,
			total_trades INT NOT NULL,
			metrics JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS walkforward_folds (
			run_id UUID NOT NULL,
			fold INT NOT NULL,
			train_start INT NOT NULL,
			train_end INT NOT NULL,
			test_start INT NOT NULL,
			test_end INT NOT NULL,
			error TEXT,
			metrics JSONB,
			PRIMARY KEY (run_id, fold)
		)
	`)
	return err
}

// SaveBacktest stores one simulation run's summary and metrics
func (db *DB) SaveBacktest(symbol string, result *models.BacktestResult) error {
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO backtest_runs (run_id, symbol, method, initial_capital, final_capital, total_trades, metrics)
		VALUES ($1, $2, 'backtest', $3, $4, $5, $6)
	`, result.RunID, symbol, result.InitialCapital, result.FinalCapital, len(result.Trades), metricsJSON)
	if err != nil {
		return fmt.Errorf("inserting backtest run: %w", err)
	}
	return nil
}

// SaveWalkForward stores a validation run with one row per fold
func (db *DB) SaveWalkForward(symbol string, initialCapital float64, result *models.WalkForwardResult) error {
	aggregatedJSON, err := json.Marshal(result.Aggregated)
	if err != nil {
		return fmt.Errorf("marshaling aggregated metrics: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO backtest_runs (run_id, symbol, method, initial_capital, final_capital, total_trades, metrics)
		VALUES ($1, $2, 'walk_forward', $3, 0, 0, $4)
	`, result.RunID, symbol, initialCapital, aggregatedJSON)
	if err != nil {
		return fmt.Errorf("inserting walk-forward run: %w", err)
	}

	for _, fr := range result.Results {
		var metricsJSON []byte
		if fr.Metrics != nil {
			metricsJSON, err = json.Marshal(fr.Metrics)
			if err != nil {
				return fmt.Errorf("marshaling fold %d metrics: %w", fr.Fold.Index, err)
			}
		}
		var errText sql.NullString
		if fr.Error != "" {
			errText = sql.NullString{String: fr.Error, Valid: true}
		}
		_, err = tx.Exec(`
			INSERT INTO walkforward_folds (run_id, fold, train_start, train_end, test_start, test_end, error, metrics)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, result.RunID, fr.Fold.Index,
			fr.Fold.Train.Start, fr.Fold.Train.End,
			fr.Fold.Test.Start, fr.Fold.Test.End,
			errText, metricsJSON)
		if err != nil {
			return fmt.Errorf("inserting fold %d: %w", fr.Fold.Index, err)
		}
	}

	return tx.Commit()
}
