package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"zendocs-backend/internal/fetcher"
	"zendocs-backend/internal/settings"
	"zendocs-backend/lib/configutil"
	configlibsql "zendocs-backend/lib/configutil/libsql"
)

type FetchConfig struct {
	// Mode is "browser" (render with headless Chrome) or "http".
	Mode string `json:"mode"`
	// SettleDelay is in seconds.
	SettleDelay int    `json:"settle_delay"`
	RemoteUrl   string `json:"remote_url"`
	// Timeout is in seconds.
	Timeout int `json:"timeout"`
}

type Config struct {
	HttpPort int `json:"http_port"`
	// DataDir holds settings.json, the log file and the default database.
	DataDir  string              `json:"data_dir"`
	Database configlibsql.Struct `json:"database"`
	Fetch    FetchConfig         `json:"fetch"`
	Workers  int                 `json:"workers"`
	LogLevel string              `json:"log_level"`
	// HttpDumpDir, when set, receives a text dump of every outgoing http exchange.
	HttpDumpDir string `json:"http_dump_dir"`
	// Timezone is an IANA name schedules are matched in, empty means the
	// machine's local time.
	Timezone string `json:"timezone"`
}

func defaultConfig() (Config, error) {
	dir, err := settings.ConfigDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		HttpPort: 8080,
		DataDir:  dir,
		Fetch: FetchConfig{
			Mode:        string(fetcher.ModeBrowser),
			SettleDelay: 3,
			Timeout:     60,
		},
		Workers:  2,
		LogLevel: "info",
	}, nil
}

// LoadConfig reads path over the defaults, a missing file means defaults only.
func LoadConfig(path string) (Config, error) {
	defaults, err := defaultConfig()
	if err != nil {
		return Config{}, err
	}
	cfg, err := configutil.ReadConfigOr(path, defaults)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if !cfg.Database.Remote() && cfg.Database.File == "" {
		cfg.Database.File = filepath.Join(cfg.DataDir, "articles.db")
	}
	_, err = fetcher.ParseMode(cfg.Fetch.Mode)
	if err != nil {
		return Config{}, err
	}
	_, err = cfg.location()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

func (c FetchConfig) settleDelay() time.Duration {
	return time.Duration(c.SettleDelay) * time.Second
}

func (c FetchConfig) timeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
