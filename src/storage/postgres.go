package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// Statements are package-level so tests can check them. Column names must
// stay clear of reserved SQL keywords ("window" is fully reserved in
// PostgreSQL), hence publish_window.
const (
	pgCreateSamples = `
		CREATE TABLE IF NOT EXISTS samples (
			station_id TEXT,
			t BIGINT,
			bikes INTEGER,
			PRIMARY KEY (station_id, t)
		);
	`
	pgCreateSnapshots = `
		CREATE TABLE IF NOT EXISTS snapshots (
			generated_at TEXT PRIMARY KEY,
			publish_window TEXT,
			payload JSONB
		);
	`
	pgInsertSample = "INSERT INTO samples (station_id, t, bikes) VALUES ($1, $2, $3)"
	pgUpsertSnapshot = `
		INSERT INTO snapshots (generated_at, publish_window, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (generated_at) DO UPDATE SET
			publish_window = excluded.publish_window,
			payload = excluded.payload
	`
)

// -----------------------------------------------------------------------------

// PostgresStore is the shared-database variant of SQLiteStore, for
// deployments where several consumers read the same history.
type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	return &PostgresStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db
	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables() error {
	if _, err := d.DB.Exec(pgCreateSamples); err != nil {
		return fmt.Errorf("failed to create samples: %w", err)
	}

	if _, err := d.DB.Exec(pgCreateSnapshots); err != nil {
		return fmt.Errorf("failed to create snapshots: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) LoadHistory() (*models.MHistory, error) {
	history := models.NewHistory()

	rows, err := d.DB.Query("SELECT station_id, t, bikes FROM samples ORDER BY station_id, t")
	if err != nil {
		d.Logger.Warning("History unreadable, starting empty: %v", err)
		return history, nil
	}
	defer rows.Close()

	for rows.Next() {
		var stationID string
		var sample models.MSample
		if err := rows.Scan(&stationID, &sample.T, &sample.Bikes); err != nil {
			d.Logger.Warning("Skipping unreadable sample row: %v", err)
			continue
		}
		history.Stations[stationID] = append(history.Stations[stationID], sample)
	}

	if err := rows.Err(); err != nil {
		d.Logger.Warning("History scan incomplete, starting empty: %v", err)
		return models.NewHistory(), nil
	}

	return history, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SaveHistory(history *models.MHistory) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM samples"); err != nil {
		return fmt.Errorf("failed to clear samples: %w", err)
	}

	stmt, err := tx.Prepare(pgInsertSample)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for stationID, series := range history.Stations {
		for _, sample := range series {
			if _, err := stmt.Exec(stationID, sample.T, sample.Bikes); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) SaveSnapshot(snapshot *models.MSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if _, err := d.DB.Exec(pgUpsertSnapshot, snapshot.GeneratedAt, snapshot.Window, string(payload)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) LatestSnapshot() (*models.MSnapshot, error) {
	var payload string
	err := d.DB.QueryRow(
		"SELECT payload FROM snapshots ORDER BY generated_at DESC LIMIT 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.MSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
