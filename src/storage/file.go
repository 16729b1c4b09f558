package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"
)

// -----------------------------------------------------------------------------
// FileStore persists history and snapshot as two JSON documents. Writes are
// staged to a temp file in the target directory and renamed into place, so
// a crash mid-run leaves each file individually complete and valid — never
// truncated. An absent or corrupt history file loads as empty history.
// -----------------------------------------------------------------------------

type FileStore struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFileStore(cfg *models.MConfig, log *logger.Logger) (*FileStore, error) {
	return &FileStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (f *FileStore) Initialize() error {
	for _, p := range []string{f.Config.Storage.HistoryPath, f.Config.Storage.SnapshotPath} {
		dir := filepath.Dir(p)
		if dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (f *FileStore) LoadHistory() (*models.MHistory, error) {
	data, err := os.ReadFile(f.Config.Storage.HistoryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			f.Logger.Warning("History file unreadable, starting empty: %v", err)
		}
		return models.NewHistory(), nil
	}

	var history models.MHistory
	if err := json.Unmarshal(data, &history); err != nil {
		f.Logger.Warning("History file corrupt, starting empty: %v", err)
		return models.NewHistory(), nil
	}

	if history.Stations == nil {
		history.Stations = make(map[string][]models.MSample)
	}

	return &history, nil
}

// -----------------------------------------------------------------------------

func (f *FileStore) SaveHistory(history *models.MHistory) error {
	return f.writeStaged(f.Config.Storage.HistoryPath, history)
}

// -----------------------------------------------------------------------------

func (f *FileStore) SaveSnapshot(snapshot *models.MSnapshot) error {
	return f.writeStaged(f.Config.Storage.SnapshotPath, snapshot)
}

// -----------------------------------------------------------------------------

func (f *FileStore) LatestSnapshot() (*models.MSnapshot, error) {
	data, err := os.ReadFile(f.Config.Storage.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.MSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// -----------------------------------------------------------------------------

func (f *FileStore) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

// writeStaged marshals v, writes it to a temp file next to the target and
// renames it into place. Rename within one directory is atomic on POSIX.
func (f *FileStore) writeStaged(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}

	return nil
}
