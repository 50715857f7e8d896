// Package config loads the daemon's JSON configuration file.
//
// No example in the retrieval pack imports a config/ini/toml/yaml library
// anywhere, and IntuitionEngine's own main.go takes configuration purely from
// os.Args with no file format at all, so a stdlib-only JSON reader is the
// grounded choice for the one place this daemon does need a config file
// (the listen address and update-checker repo, which os.Args alone can't
// comfortably carry alongside watchdog service definitions).
package config

import (
	"encoding/json"
	"os"
	"time"
)

// WatchdogService is one supervised process entry.
type WatchdogService struct {
	Label            string   `json:"label"`
	ProgramArguments []string `json:"program_arguments"`
	Environment      []string `json:"environment"`
	WorkingDirectory string   `json:"working_directory"`
	ThrottleInterval Duration `json:"throttle_interval"`
	ExitTimeout      Duration `json:"exit_timeout"`
	KeepAlive        bool     `json:"keep_alive"`
}

// Duration marshals as a JSON string like "5s", parsed with
// time.ParseDuration, instead of a raw nanosecond integer.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the daemon's top-level configuration.
type Config struct {
	ListenAddress string `json:"listen_address"`

	UpdateRepo               string   `json:"update_repo"`
	UpdateCurrentVersion     string   `json:"update_current_version"`
	UpdateMinCheckInterval   Duration `json:"update_min_check_interval"`
	UpdateMaxRetryCount      int      `json:"update_max_retry_count"`
	UpdateMinRetryInterval   Duration `json:"update_min_retry_interval"`
	UpdateIncludePrereleases bool     `json:"update_include_prereleases"`
	UpdateGithubToken        string   `json:"update_github_token"`

	CacheDirectory string `json:"cache_directory"`

	LoggingEnabled bool `json:"logging_enabled"`
	VerboseLogging bool `json:"verbose_logging_enabled"`

	// VncPassword selects the RFB security type offered to clients: empty
	// means SecurityNone, non-empty offers SecurityVncAuth.
	VncPassword string `json:"vnc_password"`

	Watchdogs []WatchdogService `json:"watchdogs"`
}

// Default returns the defaults: 6h min-check-interval, 3 max-retry, 60s
// min-retry-interval, include_prereleases=false.
func Default() *Config {
	return &Config{
		ListenAddress:          ":5900",
		UpdateMinCheckInterval: Duration(6 * time.Hour),
		UpdateMaxRetryCount:    3,
		UpdateMinRetryInterval: Duration(60 * time.Second),
		CacheDirectory:         ".trollvncd-cache",
		LoggingEnabled:         true,
	}
}

// Load reads and decodes the JSON file at path, applying Default() for any
// fields the file omits by unmarshalling onto a Default()-seeded struct.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
