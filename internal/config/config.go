// This file defines the configuration structure for the application.
package config

import (
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Smallest spacing Jikan tolerates between two requests.
const minRequestIntervalMS = 400

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port            int            `mapstructure:"port"`
	RefreshInterval int            `mapstructure:"refresh_interval"`
	Database        DatabaseConfig `mapstructure:"database"`
	Fallback        FallbackConfig `mapstructure:"fallback"`
	Jikan           JikanConfig    `mapstructure:"jikan"`
	Mal             MalConfig      `mapstructure:"mal"`
	Sonarr          SonarrConfig   `mapstructure:"sonarr"`

	v *viper.Viper
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// FallbackConfig selects the flat store used when the database fails.
// Driver is "file" or "redis".
type FallbackConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	RedisURL string `mapstructure:"redis_url"`
}

type JikanConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	RequestIntervalMS int    `mapstructure:"request_interval_ms"`
	MaxPages          int    `mapstructure:"max_pages"`
}

type MalConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type SonarrConfig struct {
	FallbackRootFolder string `mapstructure:"fallback_root_folder"`
}

// RequestInterval returns the configured Jikan spacing, never below 400ms.
func (j JikanConfig) RequestInterval() time.Duration {
	ms := j.RequestIntervalMS
	if ms < minRequestIntervalMS {
		ms = minRequestIntervalMS
	}
	return time.Duration(ms) * time.Millisecond
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory to search for config.yml.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")
	v.AddConfigPath(dir)

	// ANISYNC_DATABASE_PATH overrides `database.path` and so on.
	v.SetEnvPrefix("ANISYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("refresh_interval", 360)
	v.SetDefault("database.path", "./anisync.db")
	v.SetDefault("fallback.driver", "file")
	v.SetDefault("fallback.path", "./data")
	v.SetDefault("fallback.redis_url", "")
	v.SetDefault("jikan.base_url", "https://api.jikan.moe/v4")
	v.SetDefault("jikan.request_interval_ms", minRequestIntervalMS)
	v.SetDefault("jikan.max_pages", 10)
	v.SetDefault("mal.base_url", "https://api.myanimelist.net/v2")
	v.SetDefault("sonarr.fallback_root_folder", "/anime")
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Jikan.RequestIntervalMS < minRequestIntervalMS {
		log.Printf("Config: jikan.request_interval_ms %d is below %d, using %d",
			config.Jikan.RequestIntervalMS, minRequestIntervalMS, minRequestIntervalMS)
		config.Jikan.RequestIntervalMS = minRequestIntervalMS
	}
	config.v = v
	return &config, nil
}

// Watch calls onChange with the reloaded configuration every time the config
// file is written. It reports false when no config file was loaded.
func (c *Config) Watch(onChange func(*Config)) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		updated, err := decode(c.v)
		if err != nil {
			log.Printf("Config Error: failed to reload %s: %v", e.Name, err)
			return
		}
		log.Printf("Config: reloaded %s", e.Name)
		onChange(updated)
	})
	c.v.WatchConfig()
	return true
}
