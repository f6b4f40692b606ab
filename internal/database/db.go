// Package database persists evaluation reports and restock allocations to
// PostgreSQL.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stockops/skucast/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS evaluation_runs (
			run_id UUID PRIMARY KEY,
			model_tag TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS quantile_losses (
			run_id UUID NOT NULL REFERENCES evaluation_runs(run_id),
			quantile DOUBLE PRECISION NOT NULL,
			horizon INT NOT NULL,
			avg_quantile_loss DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, quantile, horizon)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS restock_allocations (
			run_id UUID NOT NULL,
			sku_id TEXT NOT NULL,
			percentile INT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			cost DOUBLE PRECISION NOT NULL,
			allocated_qty BIGINT NOT NULL,
			allocated_budget DOUBLE PRECISION NOT NULL,
			expected_profit DOUBLE PRECISION NOT NULL,
			expected_revenue DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (run_id, sku_id)
		)
	`)

	return err
}

// SaveReport stores an evaluation report under a fresh run id and returns
// the stored report with RunID and CreatedAt filled in.
func (db *DB) SaveReport(report *models.EvaluationReport, modelTag string) (*models.EvaluationReport, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO evaluation_runs (run_id, model_tag, created_at)
		VALUES ($1, $2, $3)
	`, runID, modelTag, now)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	for _, row := range report.Rows {
		_, err = tx.Exec(`
			INSERT INTO quantile_losses (run_id, quantile, horizon, avg_quantile_loss)
			VALUES ($1, $2, $3, $4)
		`, runID, row.Quantile, row.Horizon, row.AvgQuantileLoss)
		if err != nil {
			return nil, fmt.Errorf("inserting loss row (q=%g, h=%d): %w", row.Quantile, row.Horizon, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	stored := *report
	stored.RunID = runID
	stored.ModelTag = modelTag
	stored.CreatedAt = now
	return &stored, nil
}

// LatestReport returns the most recent evaluation report, or nil when no
// run has been stored yet.
func (db *DB) LatestReport() (*models.EvaluationReport, error) {
	var report models.EvaluationReport

	err := db.QueryRow(`
		SELECT run_id, model_tag, created_at
		FROM evaluation_runs
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&report.RunID, &report.ModelTag, &report.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := db.Query(`
		SELECT quantile, horizon, avg_quantile_loss
		FROM quantile_losses
		WHERE run_id = $1
		ORDER BY horizon, quantile
	`, report.RunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row models.QuantileLossRow
		if err := rows.Scan(&row.Quantile, &row.Horizon, &row.AvgQuantileLoss); err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, row)
	}

	return &report, rows.Err()
}

// SaveAllocations stores a restock recommendation and returns its run id.
func (db *DB) SaveAllocations(allocations []models.Allocation) (string, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	for _, a := range allocations {
		_, err = tx.Exec(`
			INSERT INTO restock_allocations (
				run_id, sku_id, percentile, price, cost,
				allocated_qty, allocated_budget, expected_profit, expected_revenue, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, runID, a.SKU, a.Percentile, a.Price, a.Cost,
			a.AllocatedQty, a.AllocatedBudget, a.ExpectedProfit, a.ExpectedRevenue, now)
		if err != nil {
			return "", fmt.Errorf("inserting allocation for sku %s: %w", a.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}
