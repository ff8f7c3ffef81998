// Package config loads client settings: defaults, then the TOML file,
// then environment, with flags applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultServerURL = "http://localhost:8000"
	DefaultTheme     = "classic"
	DefaultLogLevel  = "info"

	configFileName = "config.toml"

	// EnvServerURL overrides the configured service address.
	EnvServerURL = "TODOQ_SERVER_URL"
)

// Config holds the client configuration. Dir is the config directory
// (the credential slot lives there too) and is computed, not read from
// the file.
type Config struct {
	ServerURL string `toml:"server_url"`
	Theme     string `toml:"theme"`
	LogLevel  string `toml:"log_level"`

	Dir   string `toml:"-"`
	Debug bool   `toml:"-"`
}

// Load reads dir/config.toml over the defaults. A missing file is not
// an error; a malformed one is.
func Load(dir string) (*Config, error) {
	cfg := &Config{
		ServerURL: DefaultServerURL,
		Theme:     DefaultTheme,
		LogLevel:  DefaultLogLevel,
		Dir:       dir,
	}

	path := filepath.Join(dir, configFileName)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if url := strings.TrimSpace(os.Getenv(EnvServerURL)); url != "" {
		cfg.ServerURL = url
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	return cfg, nil
}
