package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bikeflow-observer/src/analysis"
	"bikeflow-observer/src/config"
	"bikeflow-observer/src/data_source/gbfs"
	"bikeflow-observer/src/interfaces"
	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/network"
	"bikeflow-observer/src/server"
	"bikeflow-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	serve := flag.Bool("serve", false, "serve the latest snapshot over HTTP instead of running a batch job")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config, config.Name)

	// Setup storage backend
	var store interfaces.IHistoryStore

	switch config.Storage.DBType {
	case "sqlite":
		store, err = storage.NewSQLiteStore(config.MConfig, appLogger)
	case "postgres":
		store, err = storage.NewPostgresStore(config.MConfig, appLogger)
	default:
		store, err = storage.NewFileStore(config.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}

	// Critical exits the process and skips deferred calls, so the store is
	// closed explicitly on every path out of main.
	if err := store.Initialize(); err != nil {
		store.Close()
		appLogger.Critical("Failed to initialize store: %v", err)
	}

	// Serve mode: expose the published snapshot read-only and block.
	if *serve {
		srv := server.NewSnapshotAPIServer(config.MConfig, store, appLogger)
		err := srv.Start()
		store.Close()
		if err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
		return
	}

	// Batch mode: one run to completion.
	netMgr := network.NewNetworkManager(config.MConfig, logger.NewLogger(nil, "NetworkManager"))
	source := gbfs.NewGBFSSource(config.MConfig, netMgr)

	err = runOnce(config, source, store, appLogger)
	store.Close()
	if err != nil {
		appLogger.Critical("Run failed: %v", err)
	}

	appLogger.Info("Run completed successfully")
}

// -----------------------------------------------------------------------------

// runOnce executes one sampling run: fetch -> load -> build -> prune ->
// persist. The run's timestamp is read exactly once; every window within
// the run is computed against it. Any error is fatal for the run and no
// partial state is written past the point of failure.
func runOnce(cfg *config.Config, source interfaces.IFeedSource, store interfaces.IHistoryStore, appLogger *logger.Logger) error {
	nowMs := time.Now().UnixMilli()

	// 1. Fetch current counts (the two feed documents load concurrently).
	counts, err := source.FetchCounts(context.Background())
	if err != nil {
		return err
	}

	// 2. Load persisted history (absent or corrupt loads as empty).
	history, err := store.LoadHistory()
	if err != nil {
		return err
	}
	appLogger.Info("Loaded history: %d stations, %d samples", len(history.Stations), history.SampleCount())

	// 3. Build the snapshot, then prune. Order matters: pruning must never
	// remove samples the current run's windows still read.
	builder := analysis.NewSnapshotBuilder(cfg.MConfig, cfg.WindowLocation(), appLogger)
	snapshot := builder.Build(counts, history, nowMs)

	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot failed validation: %w", err)
	}

	builder.Prune(history, nowMs)

	// 4. Persist: snapshot first, pruned history second. Each write is
	// staged and renamed (or transactional), so a crash between the two
	// leaves two individually complete documents.
	if err := store.SaveSnapshot(snapshot); err != nil {
		return err
	}
	if err := store.SaveHistory(history); err != nil {
		return err
	}

	appLogger.Info("Published snapshot: window=%s stations=%d pickups=%d returns=%d",
		snapshot.Window, len(snapshot.Stations), snapshot.Totals.Pickups, snapshot.Totals.Returns)

	return nil
}
