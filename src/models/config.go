package models

// MConfig Structure
type MConfig struct {
	Name          string         `yaml:"name"`
	Host          string         `yaml:"host"`
	Port          int            `yaml:"port"`
	LogLevel      string         `yaml:"log_level"`
	Timezone      string         `yaml:"timezone"`       // IANA zone for window boundaries; empty = process-local
	PublishWindow string         `yaml:"publish_window"` // "day" | "hour" | "now"
	Storage       MStorageConfig `yaml:"storage"`
	Network       MNetworkConfig `yaml:"network"`
	Feed          MFeedConfig    `yaml:"feed"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "file" | "sqlite" | "postgres"
	HistoryPath        string `yaml:"history_path"`
	SnapshotPath       string `yaml:"snapshot_path"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

type MFeedConfig struct {
	Name           string `yaml:"name"`
	InformationURL string `yaml:"information_url"`
	StatusURL      string `yaml:"status_url"`
	RetentionHours int    `yaml:"retention_hours"`
}
