package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()

	dir := t.TempDir()
	cfg := &models.MConfig{
		Name: "test",
		Storage: models.MStorageConfig{
			DBType:       "file",
			HistoryPath:  filepath.Join(dir, "history.json"),
			SnapshotPath: filepath.Join(dir, "snapshot.json"),
		},
	}

	store, err := NewFileStore(cfg, logger.NewLogger(nil, "test"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return store
}

func TestFileStore_LoadMissingHistory(t *testing.T) {
	store := newTestFileStore(t)

	history, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if history == nil || len(history.Stations) != 0 {
		t.Errorf("expected empty history, got %+v", history)
	}
}

func TestFileStore_LoadCorruptHistory(t *testing.T) {
	store := newTestFileStore(t)

	if err := os.WriteFile(store.Config.Storage.HistoryPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	history, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("corrupt history must not error: %v", err)
	}
	if len(history.Stations) != 0 {
		t.Errorf("expected empty history, got %+v", history)
	}
}

func TestFileStore_HistoryRoundtrip(t *testing.T) {
	store := newTestFileStore(t)

	history := models.NewHistory()
	history.Stations["st-1"] = []models.MSample{
		{T: 1000, Bikes: 5},
		{T: 301_000, Bikes: 7},
	}
	history.Stations["st-2"] = []models.MSample{
		{T: 1000, Bikes: 0},
	}

	if err := store.SaveHistory(history); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	loaded, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}

	if len(loaded.Stations) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(loaded.Stations))
	}
	if len(loaded.Stations["st-1"]) != 2 || loaded.Stations["st-1"][1].Bikes != 7 {
		t.Errorf("st-1 series mismatch: %v", loaded.Stations["st-1"])
	}
	if len(loaded.Stations["st-2"]) != 1 {
		t.Errorf("st-2 series mismatch: %v", loaded.Stations["st-2"])
	}
}

func TestFileStore_HistoryFileShape(t *testing.T) {
	store := newTestFileStore(t)

	history := models.NewHistory()
	history.Stations["st-1"] = []models.MSample{{T: 42, Bikes: 3}}

	if err := store.SaveHistory(history); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	// Persisted contract: { "stations": { "<id>": [{"t":..,"bikes":..}] } }
	raw, err := os.ReadFile(store.Config.Storage.HistoryPath)
	if err != nil {
		t.Fatalf("read history file: %v", err)
	}

	var doc map[string]map[string][]map[string]int64
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("history file is not the documented shape: %v", err)
	}
	if doc["stations"]["st-1"][0]["t"] != 42 || doc["stations"]["st-1"][0]["bikes"] != 3 {
		t.Errorf("unexpected document: %s", raw)
	}
}

func TestFileStore_SnapshotRoundtrip(t *testing.T) {
	store := newTestFileStore(t)

	snapshot := &models.MSnapshot{
		GeneratedAt:        "2026-08-28T12:00:00Z",
		Window:             models.WindowNow,
		ShortWindowMinutes: 15,
		Stations:           []models.MStationNet{{ID: "st-1", Net: -2}},
		Totals:             models.MTotals{Pickups: 2, Returns: 0},
		Hourly: map[string]models.MHourlyTotals{
			"2026-08-28T11:00": {Pickups: 2, Returns: 0},
		},
	}

	if err := store.SaveSnapshot(snapshot); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, err := store.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot")
	}
	if loaded.GeneratedAt != snapshot.GeneratedAt || loaded.Window != snapshot.Window {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Stations) != 1 || loaded.Stations[0].Net != -2 {
		t.Errorf("stations = %v", loaded.Stations)
	}
}

func TestFileStore_LatestSnapshotMissing(t *testing.T) {
	store := newTestFileStore(t)

	snapshot, err := store.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snapshot != nil {
		t.Errorf("expected nil snapshot, got %+v", snapshot)
	}
}

func TestFileStore_StagedWriteLeavesNoTempFiles(t *testing.T) {
	store := newTestFileStore(t)

	history := models.NewHistory()
	history.Stations["st-1"] = []models.MSample{{T: 1, Bikes: 1}}

	if err := store.SaveHistory(history); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(store.Config.Storage.HistoryPath))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("staging file left behind: %s", e.Name())
		}
	}
}

func TestFileStore_SaveOverwritesPrevious(t *testing.T) {
	store := newTestFileStore(t)

	first := models.NewHistory()
	first.Stations["a"] = []models.MSample{{T: 1, Bikes: 1}}
	if err := store.SaveHistory(first); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	second := models.NewHistory()
	second.Stations["b"] = []models.MSample{{T: 2, Bikes: 2}}
	if err := store.SaveHistory(second); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	loaded, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if _, ok := loaded.Stations["a"]; ok {
		t.Error("previous history leaked into the new file")
	}
	if len(loaded.Stations["b"]) != 1 {
		t.Errorf("expected station b, got %v", loaded.Stations)
	}
}
