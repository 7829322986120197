package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for recipeneat
type Config struct {
	Patch   PatchConfig   `mapstructure:"patch"`
	Overlay OverlayConfig `mapstructure:"overlay"`
	// Snapshot is the default datastore snapshot used when --snapshot is not given.
	Snapshot string `mapstructure:"snapshot"`
}

// PatchConfig holds recipe patching options
type PatchConfig struct {
	WrapWidth   int `mapstructure:"wrap_width"`
	DiffContext int `mapstructure:"diff_context"`
	// Concurrency bounds how many recipes are diffed at once; 0 means one per CPU.
	Concurrency int `mapstructure:"concurrency"`
}

// OverlayConfig holds append file options
type OverlayConfig struct {
	WildcardVersion bool   `mapstructure:"wildcard_version"`
	DefaultLayer    string `mapstructure:"default_layer"`
	Machine         string `mapstructure:"machine"`
}

var defaultConfig = Config{
	Patch: PatchConfig{
		WrapWidth:   70,
		DiffContext: 3,
		Concurrency: 0,
	},
	Overlay: OverlayConfig{
		WildcardVersion: false,
		DefaultLayer:    "",
		Machine:         "",
	},
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return defaultConfig }

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("patch.wrap_width", defaultConfig.Patch.WrapWidth)
	v.SetDefault("patch.diff_context", defaultConfig.Patch.DiffContext)
	v.SetDefault("patch.concurrency", defaultConfig.Patch.Concurrency)
	v.SetDefault("overlay.wildcard_version", defaultConfig.Overlay.WildcardVersion)
	v.SetDefault("overlay.default_layer", defaultConfig.Overlay.DefaultLayer)
	v.SetDefault("overlay.machine", defaultConfig.Overlay.Machine)
	v.SetDefault("snapshot", defaultConfig.Snapshot)

	// Environment variables
	v.SetEnvPrefix("RECIPENEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	v := newViper()

	// Configuration file search paths
	v.SetConfigName("recipeneat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // Current directory
	v.AddConfigPath("$HOME") // Home directory

	if configDir, err := GetConfigDir(); err == nil {
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %v", err)
		}
	} else if err := validateFile(v.ConfigFileUsed()); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadProjectConfig loads the global configuration and then merges the first
// project-specific config file found in dir.
func LoadProjectConfig(dir string) (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	projectConfigs := []string{
		".recipeneat.yaml",
		".recipeneat.yml",
		".recipeneat.json",
	}

	for _, name := range projectConfigs {
		configFile := filepath.Join(dir, name)
		if _, err := os.Stat(configFile); err != nil {
			continue
		}
		if err := validateFile(configFile); err != nil {
			return nil, err
		}
		v := viper.New()
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading %s: %v", configFile, err)
		}
		if err := v.Unmarshal(config); err != nil {
			return nil, fmt.Errorf("error unmarshaling %s: %v", configFile, err)
		}
		break
	}

	return config, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}
	return &config, nil
}

func validateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config %s: %v", path, err)
	}
	version, err := DetectSchemaVersion(data)
	if err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	if err := ValidateConfig(data, version); err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	return nil
}

// GetRecipeneatHome returns the recipeneat home directory
func GetRecipeneatHome() (string, error) {
	// Check environment variable first
	if home := os.Getenv("RECIPENEAT_HOME"); home != "" {
		return home, nil
	}

	// Use standard dev tool convention: ~/.recipeneat
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".recipeneat"), nil
}

// EnsureRecipeneatHome creates the recipeneat home directory if it doesn't exist
func EnsureRecipeneatHome() (string, error) {
	homeDir, err := GetRecipeneatHome()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(homeDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create recipeneat home directory: %v", err)
	}

	return homeDir, nil
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	return homeSubdir("config")
}

// GetCacheDir returns the cache directory, used as the download directory
// when a datastore has no DL_DIR.
func GetCacheDir() (string, error) {
	return homeSubdir("cache")
}

func homeSubdir(name string) (string, error) {
	homeDir, err := EnsureRecipeneatHome()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(homeDir, name)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %v", name, err)
	}
	return dir, nil
}
