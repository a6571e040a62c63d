package vkr

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Config carries the handful of knobs the examples share. Values map to JSON
// so a config file can sit next to the binary; anything not set falls back to
// the defaults.
type Config struct {
	Title      string `json:"title"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Validation bool   `json:"validation"`
	AssetDir   string `json:"asset_dir"`
}

func DefaultConfig(title string) *Config {
	return &Config{
		Title:    title,
		Width:    1280,
		Height:   720,
		AssetDir: "assets",
	}
}

// LoadConfig reads a JSON config file. A missing or malformed file is an
// error; callers treat it as fatal.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg := DefaultConfig("vkr")
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("config %s: window size %dx%d is not positive", path, cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// Asset resolves a file in the asset directory, failing when it does not
// exist. There is no versioning or validation beyond the existence check.
func (c *Config) Asset(name string) (string, error) {
	path := c.AssetDir + "/" + name
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(err, "missing asset %s", name)
	}
	return path, nil
}
