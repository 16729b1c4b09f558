package models

// -----------------------------------------------------------------------------
// GBFS feed payload shapes. Both documents share the envelope
// { last_updated, ttl, data: {...} }. Counts use pointers so that null or
// absent values survive unmarshalling and can be skipped per station.
// -----------------------------------------------------------------------------

// GBFSInformationResponse is the station_information document. Only the
// station id set is consumed; the remaining metadata is carried for logging.
type GBFSInformationResponse struct {
	LastUpdated int64 `json:"last_updated"`
	TTL         int   `json:"ttl"`
	Data        struct {
		Stations []GBFSStationInformation `json:"stations"`
	} `json:"data"`
}

type GBFSStationInformation struct {
	StationID string  `json:"station_id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Capacity  int     `json:"capacity"`
}

// -----------------------------------------------------------------------------

// GBFSStatusResponse is the station_status document.
type GBFSStatusResponse struct {
	LastUpdated int64 `json:"last_updated"`
	TTL         int   `json:"ttl"`
	Data        struct {
		Stations []GBFSStationStatus `json:"stations"`
	} `json:"data"`
}

type GBFSStationStatus struct {
	StationID         string `json:"station_id"`
	NumBikesAvailable *int   `json:"num_bikes_available"` // pointer to handle null
	NumDocksAvailable *int   `json:"num_docks_available"`
	IsInstalled       *int   `json:"is_installed"`
	IsRenting         *int   `json:"is_renting"`
	LastReported      int64  `json:"last_reported"`
}
