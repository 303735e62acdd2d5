package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the compiler and interpreter configuration
type Config struct {
	// Machine settings
	Machine struct {
		StackSize int    `toml:"stack_size"`
		MaxSteps  uint64 `toml:"max_steps"`
	} `toml:"machine"`

	// Display settings
	Display struct {
		ColorOutput bool `toml:"color_output"`
		TabWidth    int  `toml:"tab_width"`
	} `toml:"display"`

	// Trace settings
	Trace struct {
		MaxEntries int `toml:"max_entries"`
	} `toml:"trace"`

	// Source file lookup
	Paths struct {
		SearchDirs []string `toml:"search_dirs"`
	} `toml:"paths"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Machine.StackSize = 10000
	cfg.Machine.MaxSteps = 1000000

	cfg.Display.ColorOutput = true
	cfg.Display.TabWidth = 4

	cfg.Trace.MaxEntries = 100000

	return cfg
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "pl0")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "pl0")

	default:
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveTo saves configuration to the specified file
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
