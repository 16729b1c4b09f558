package gbfs

import (
	"context"
	"encoding/json"
	"fmt"

	"bikeflow-observer/src/helpers"
	"bikeflow-observer/src/interfaces"
	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"

	"golang.org/x/sync/errgroup"
)

// GBFSSource reads one GBFS feed: the station_information document supplies
// the set of valid station ids, the station_status document the live
// num_bikes_available counts.
type GBFSSource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewGBFSSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *GBFSSource {
	return &GBFSSource{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger(nil, "GBFSSource-"+cfg.Feed.Name),
	}
}

// -----------------------------------------------------------------------------

func (s *GBFSSource) Name() string {
	return s.Config.Feed.Name
}

// -----------------------------------------------------------------------------

// FetchCounts retrieves the current per-station counts. The two documents
// are independent reads with no shared mutable state, so they are fetched
// concurrently; either failing is fatal for the run.
func (s *GBFSSource) FetchCounts(ctx context.Context) (map[string]int, error) {
	var info models.GBFSInformationResponse
	var status models.GBFSStatusResponse

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		body, err := s.Network.Get(s.Config.Feed.InformationURL, nil)
		if err != nil {
			return helpers.NewFetchError("station_information fetch failed", err)
		}
		if err := json.Unmarshal(body, &info); err != nil {
			return helpers.NewFetchError("station_information parse failed", err)
		}
		return nil
	})

	g.Go(func() error {
		body, err := s.Network.Get(s.Config.Feed.StatusURL, nil)
		if err != nil {
			return helpers.NewFetchError("station_status fetch failed", err)
		}
		if err := json.Unmarshal(body, &status); err != nil {
			return helpers.NewFetchError("station_status parse failed", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.buildCounts(&info, &status), nil
}

// -----------------------------------------------------------------------------

// buildCounts merges the two documents into a station-id-to-count mapping.
// Malformed entries are skipped per station and never abort the run.
func (s *GBFSSource) buildCounts(info *models.GBFSInformationResponse, status *models.GBFSStatusResponse) map[string]int {
	validIDs := make(map[string]struct{}, len(info.Data.Stations))
	for _, st := range info.Data.Stations {
		if st.StationID == "" {
			continue
		}
		validIDs[st.StationID] = struct{}{}
	}

	counts := make(map[string]int, len(status.Data.Stations))
	skipped := 0

	for _, st := range status.Data.Stations {
		if st.StationID == "" {
			skipped++
			continue
		}
		if _, ok := validIDs[st.StationID]; !ok {
			// Status entry without matching metadata; information defines
			// the valid id set.
			skipped++
			continue
		}
		if st.NumBikesAvailable == nil || *st.NumBikesAvailable < 0 {
			err := helpers.NewFeedDataError(
				fmt.Sprintf("station %s has missing or invalid count", st.StationID), nil)
			s.Logger.Info("Skipping station: %v", err)
			skipped++
			continue
		}
		counts[st.StationID] = *st.NumBikesAvailable
	}

	s.Logger.Info("GBFS: %d stations with valid counts, %d skipped", len(counts), skipped)
	return counts
}
