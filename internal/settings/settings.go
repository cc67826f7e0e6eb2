// Package settings loads application settings: values that belong to the
// machine running modsync rather than to a pack.
//
// Precedence, highest first: MODSYNC_* environment variables, the
// settings file, defaults.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/bianoble/modsync/internal/cache"
)

// FileName is the settings file looked up in the user config directory.
const FileName = "settings.yaml"

// EnvPrefix prefixes the environment variables that override settings.
const EnvPrefix = "MODSYNC"

// Settings holds the application settings.
type Settings struct {
	CacheDir        string        `mapstructure:"cache_dir"`
	Concurrency     int           `mapstructure:"concurrency"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxDownloadSize int64         `mapstructure:"max_download_size"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		CacheDir:        cache.DefaultDir(),
		Concurrency:     8,
		LogLevel:        "info",
		MaxDownloadSize: 512 << 20,
		DownloadTimeout: 2 * time.Minute,
		UserAgent:       "modsync",
	}
}

// DefaultPath returns the settings file path in the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "modsync", FileName)
}

// Load reads settings from path, or from DefaultPath when path is empty.
// A missing default file is not an error; a missing explicit file is.
// It returns the settings and the file they were read from, if any.
func Load(path string) (*Settings, string, error) {
	v := viper.New()
	d := Default()
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("max_download_size", d.MaxDownloadSize)
	v.SetDefault("download_timeout", d.DownloadTimeout)
	v.SetDefault("user_agent", d.UserAgent)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	resolved := ""
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		err := v.ReadInConfig()
		switch {
		case err == nil:
			resolved = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, "", fmt.Errorf("reading settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, "", fmt.Errorf("failed to parse settings: %w", err)
	}
	if errs := s.Validate(); len(errs) > 0 {
		return nil, "", fmt.Errorf("invalid settings: %s", strings.Join(errs, "; "))
	}
	return &s, resolved, nil
}

// Validate returns a message per invalid value.
func (s *Settings) Validate() []string {
	var errs []string
	if s.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("concurrency must be at least 1, got %d", s.Concurrency))
	}
	if s.MaxDownloadSize < 0 {
		errs = append(errs, "max_download_size must not be negative")
	}
	if s.DownloadTimeout < 0 {
		errs = append(errs, "download_timeout must not be negative")
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("log_level '%s' — must be one of: debug, info, warn, error", s.LogLevel))
	}
	return errs
}

// Level returns the parsed log level, info when invalid.
func (s *Settings) Level() log.Level {
	l, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}
