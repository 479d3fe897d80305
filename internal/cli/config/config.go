package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gobarber/gobarber/internal/session"
)

const (
	configDirName  = "gobarber"
	configFileName = "config.yaml"

	DefaultAPIURL = "http://localhost:3333"
)

// Config represents the CLI configuration stored in ~/.config/gobarber/config.yaml
type Config struct {
	APIURL      string `yaml:"api_url"`
	Storage     string `yaml:"storage"`                // keyring, file, redis, memory
	SessionFile string `yaml:"session_file,omitempty"` // file storage only
	RedisAddr   string `yaml:"redis_addr,omitempty"`   // redis storage only
	Namespace   string `yaml:"namespace"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		Storage:   "keyring",
		Namespace: session.DefaultNamespace,
	}
}

// GetConfigPath returns the path to the config file. GOBARBER_CONFIG
// overrides the default location.
func GetConfigPath() (string, error) {
	if path := os.Getenv("GOBARBER_CONFIG"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the config file, fills defaults for missing values and applies
// environment overrides
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads one config file. A missing file yields Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Keys present but empty fall back to defaults
	def := Default()
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.Storage == "" {
		cfg.Storage = def.Storage
	}
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}

	return cfg, nil
}

// ApplyEnv overrides values from GOBARBER_* environment variables
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GOBARBER_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("GOBARBER_STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("GOBARBER_SESSION_FILE"); v != "" {
		c.SessionFile = v
	}
	if v := os.Getenv("GOBARBER_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("GOBARBER_NAMESPACE"); v != "" {
		c.Namespace = v
	}
}

// Validate checks the values that would otherwise fail later in odd ways
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url '%s', expected e.g. %s", c.APIURL, DefaultAPIURL)
	}
	return nil
}

// Save writes the configuration to path, creating the directory if needed
func Save(path string, cfg *Config) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
