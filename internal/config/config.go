// Package config resolves runtime settings from, in order of precedence,
// BOARD_* environment variables, an optional YAML file, and defaults. A
// .env file in the working directory is honored for development setups.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL  = "http://localhost:8000/api"
	defaultPageSize    = 10
	defaultLogLevel    = "info"
	defaultRequestRate = 8.0

	appDirName = "prj-board"
)

// Config holds runtime settings for the board client.
type Config struct {
	APIBaseURL   string
	DBPath       string
	PageSize     int
	DefaultSort  string
	DefaultScope string
	LogPath      string
	LogLevel     string
	RequestRate  float64
}

// fileConfig is the YAML shape. RequestRate is a pointer so an explicit
// zero (pacing off) is distinguishable from an absent key.
type fileConfig struct {
	APIBaseURL   string   `yaml:"api_base_url"`
	DBPath       string   `yaml:"db_path"`
	PageSize     int      `yaml:"page_size"`
	DefaultSort  string   `yaml:"default_sort"`
	DefaultScope string   `yaml:"default_scope"`
	LogPath      string   `yaml:"log_path"`
	LogLevel     string   `yaml:"log_level"`
	RequestRate  *float64 `yaml:"request_rate"`
}

// DefaultConfigPath is where Load looks when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "config.yaml")
}

// DefaultDBPath is the cache database location when none is configured.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, appDirName, "board.db")
}

// Load resolves the configuration. path comes from the --config flag; when
// empty, BOARD_CONFIG and then the default location are tried. A missing
// file is not an error, a malformed one is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{RequestRate: -1}

	explicit := path != ""
	if path == "" {
		path = os.Getenv("BOARD_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := cfg.applyFile(path, explicit); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.APIBaseURL = fc.APIBaseURL
	c.DBPath = fc.DBPath
	c.PageSize = fc.PageSize
	c.DefaultSort = fc.DefaultSort
	c.DefaultScope = fc.DefaultScope
	c.LogPath = fc.LogPath
	c.LogLevel = fc.LogLevel
	if fc.RequestRate != nil {
		c.RequestRate = *fc.RequestRate
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BOARD_API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("BOARD_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("BOARD_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
	if v := os.Getenv("BOARD_DEFAULT_SORT"); v != "" {
		c.DefaultSort = v
	}
	if v := os.Getenv("BOARD_DEFAULT_SCOPE"); v != "" {
		c.DefaultScope = v
	}
	if v := os.Getenv("BOARD_LOG_PATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("BOARD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("BOARD_REQUEST_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestRate = f
		}
	}
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath()
	}
	if c.PageSize == 0 {
		c.PageSize = defaultPageSize
	}
	if c.DefaultSort == "" {
		c.DefaultSort = "date"
	}
	if c.DefaultScope == "" {
		c.DefaultScope = "all"
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.RequestRate < 0 {
		c.RequestRate = defaultRequestRate
	}
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("APIBaseURL is required")
	}
	if c.APIBaseURL[len(c.APIBaseURL)-1] == '/' {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("PageSize must be between 1 and 100: %d", c.PageSize)
	}
	switch c.DefaultSort {
	case "date", "likes", "comments":
	default:
		return fmt.Errorf("DefaultSort must be date, likes or comments: %s", c.DefaultSort)
	}
	switch c.DefaultScope {
	case "all", "followed":
	default:
		return fmt.Errorf("DefaultScope must be all or followed: %s", c.DefaultScope)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LogLevel must be debug, info, warn or error: %s", c.LogLevel)
	}
	return nil
}
