/* config.go
 * Process configuration: an optional YAML file with environment variable
 * overrides, so a bare deployment needs nothing but DISCORD_TOKEN.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	HTTP    HTTPConfig    `yaml:"http"`
	Data    DataConfig    `yaml:"data"`
}

type DiscordConfig struct {
	Token string `yaml:"token"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DataConfig struct {
	Dir              string        `yaml:"dir"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Data: DataConfig{Dir: "data", SnapshotInterval: time.Minute},
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. A missing file is fine; a missing token is not.
func Load(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}

	if cfg.Discord.Token == "" {
		return Config{}, fmt.Errorf("discord token is required; set discord.token or DISCORD_TOKEN")
	}
	if cfg.Data.SnapshotInterval <= 0 {
		cfg.Data.SnapshotInterval = time.Minute
	}
	return cfg, nil
}
