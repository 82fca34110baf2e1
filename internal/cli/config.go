package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultServerURL = "http://localhost:8080"

// Config is the timerctl config file. The password is never stored.
type Config struct {
	ServerURL string `toml:"server_url"`
	Username  string `toml:"username"`
}

func DefaultConfig() Config {
	return Config{ServerURL: defaultServerURL}
}

// LoadConfig reads ~/.timerctl/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := configPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.timerctl/config.toml.
func SaveConfig(cfg Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func configPath() string {
	return filepath.Join(timerctlHome(), "config.toml")
}

// timerctlHome returns the timerctl data directory.
func timerctlHome() string {
	if env := os.Getenv("TIMERCTL_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".timerctl")
}
