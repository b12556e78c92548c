// Package config loads environment variables and provides a typed Config used across the recorder.
// It applies sensible defaults so the binary can run with only the Twitch credentials, channel and
// output directory set. Command-line flags (see ParseFlags) override the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinRefresh is the lowest poll interval the recorder accepts.
const MinRefresh = 15 * time.Second

const (
	defaultRefresh    = 30 * time.Second
	defaultQuality    = "best"
	defaultFFmpeg     = "ffmpeg"
	defaultStreamlink = "streamlink"
)

type Config struct {
	// Twitch
	Channel            string
	Quality            string
	TwitchClientID     string
	TwitchClientSecret string

	// Output
	RootPath             string
	OutputInChannelDir   bool
	Refresh              time.Duration
	FFmpegPath           string
	StreamlinkPath       string
	StreamlinkDisableAds bool

	// Observability
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads an optional .env file, then environment variables, and applies defaults.
// It does not validate required fields; call Validate once flags have been applied.
func Load() (*Config, error) {
	// .env is a local convenience; a missing file is not an error.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Channel = os.Getenv("TWITCH_CHANNEL")
	cfg.Quality = os.Getenv("TWITCH_QUALITY")
	if cfg.Quality == "" {
		cfg.Quality = defaultQuality
	}
	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")

	cfg.RootPath = os.Getenv("RECORDER_ROOT_PATH")
	cfg.OutputInChannelDir = os.Getenv("RECORDER_CHANNEL_FOLDER") == "1"

	cfg.Refresh = defaultRefresh
	if v := os.Getenv("RECORDER_REFRESH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RECORDER_REFRESH (seconds): %w", err)
		}
		cfg.Refresh = time.Duration(n) * time.Second
	}

	cfg.FFmpegPath = os.Getenv("FFMPEG_PATH")
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = defaultFFmpeg
	}
	cfg.StreamlinkPath = os.Getenv("STREAMLINK_PATH")
	if cfg.StreamlinkPath == "" {
		cfg.StreamlinkPath = defaultStreamlink
	}
	cfg.StreamlinkDisableAds = os.Getenv("TWITCH_DISABLE_ADS") != "0" // default on

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(os.Getenv("LOG_FORMAT"))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	return cfg, nil
}

// Validate checks the fields the recorder cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.Channel == "" {
		missing = append(missing, "channel (TWITCH_CHANNEL or -c)")
	}
	if c.Quality == "" {
		missing = append(missing, "quality (TWITCH_QUALITY or -q)")
	}
	if c.RootPath == "" {
		missing = append(missing, "RECORDER_ROOT_PATH")
	}
	if c.TwitchClientID == "" {
		missing = append(missing, "TWITCH_CLIENT_ID")
	}
	if c.TwitchClientSecret == "" {
		missing = append(missing, "TWITCH_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}
