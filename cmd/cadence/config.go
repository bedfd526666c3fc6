// Config loading for the cadence CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/dukaforge/cadence/internal/paths"
	"github.com/dukaforge/cadence/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Cadence CLI configuration

# Storage backend: sqlite (embedded database) or memory (interpreted
# in-memory store with snapshot persistence)
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:
`

// loadAppConfig resolves directories, reads config.yaml, and folds in the
// flag overrides. Precedence for each setting: flag > config file > default.
func loadAppConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return types.Config{}, err
	}
	v, err := loadConfigFile(configDir)
	if err != nil {
		return types.Config{}, err
	}

	backend := v.GetString(cfgKeyBackend)
	if flagBackend != "" {
		backend = flagBackend
	}
	dataDir, err := paths.ResolveDataDir(flagDataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, err
	}

	cfg := types.Config{Backend: backend, DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// loadConfigFile reads config.yaml from configDir, creating the directory
// and a default file on first run. A missing config.yaml is not an error.
func loadConfigFile(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
