package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteStore keeps history and published snapshots in a single SQLite
// database. Unlike the file backend the snapshots table retains every run's
// artifact, which gives a local archive for free.
type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables is idempotent: the samples table IS the history and must
// survive across runs.
func (d *SQLiteStore) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS samples (
			station_id TEXT,
			t INTEGER,
			bikes INTEGER,
			PRIMARY KEY (station_id, t)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create samples: %w", err)
	}

	// publish_window, not window: keeps the schema identical to the
	// PostgreSQL backend, where window is a reserved keyword.
	query = `
		CREATE TABLE IF NOT EXISTS snapshots (
			generated_at TEXT PRIMARY KEY,
			publish_window TEXT,
			payload TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create snapshots: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) LoadHistory() (*models.MHistory, error) {
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

// SaveHistory replaces the samples table with the pruned history in one
// transaction, so a failed save leaves the previous history intact.
func (d *SQLiteStore) SaveHistory(history *models.MHistory) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM samples"); err != nil {
		return fmt.Errorf("failed to clear samples: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO samples (station_id, t, bikes) VALUES (?, ?, ?)")
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

func (d *SQLiteStore) SaveSnapshot(snapshot *models.MSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (generated_at, publish_window, payload)
		VALUES (?, ?, ?)
		ON CONFLICT (generated_at) DO UPDATE SET
			publish_window = excluded.publish_window,
			payload = excluded.payload
	`
	if _, err := d.DB.Exec(query, snapshot.GeneratedAt, snapshot.Window, string(payload)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) LatestSnapshot() (*models.MSnapshot, error) {
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

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
