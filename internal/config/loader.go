package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/altuslabsxyz/localnet/internal/output"
)

// ConfigLoader is responsible for loading and merging configuration.
type ConfigLoader struct {
	homeDir    string
	workDir    string
	configPath string // Explicit --config path
	logger     *output.Logger
}

// NewConfigLoader creates a new ConfigLoader.
func NewConfigLoader(homeDir, configPath string, logger *output.Logger) *ConfigLoader {
	return &ConfigLoader{
		homeDir:    homeDir,
		workDir:    ".",
		configPath: configPath,
		logger:     logger,
	}
}

// candidates returns the config files that exist, lowest priority first:
// <home>/localnet.toml, ./localnet.toml, then the explicit path.
func (l *ConfigLoader) candidates() ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		files = append(files, path)
	}

	for _, path := range []string{
		filepath.Join(l.homeDir, FileName),
		filepath.Join(l.workDir, FileName),
	} {
		if _, err := os.Stat(path); err == nil {
			add(path)
		}
	}

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", l.configPath)
		}
		add(l.configPath)
	}
	return files, nil
}

// LoadFileConfig loads and merges every config file, later files overriding
// earlier ones. It returns the merged FileConfig and the highest priority
// file path (empty when none was found).
func (l *ConfigLoader) LoadFileConfig() (*FileConfig, string, error) {
	files, err := l.candidates()
	if err != nil {
		return nil, "", err
	}

	var merged FileConfig
	var primaryFile string
	for _, configFile := range files {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}

		var cfg FileConfig
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}

		mergeFileConfig(&merged, &cfg)
		primaryFile = configFile
		l.warnUnknownKeys(configFile, data)

		if l.logger != nil {
			l.logger.Debug("Loaded config file: %s", configFile)
		}
	}

	if err := ValidateFileConfig(&merged); err != nil {
		return nil, "", fmt.Errorf("config validation failed: %w", err)
	}

	return &merged, primaryFile, nil
}

var knownKeys = map[string]bool{
	"home":            true,
	"no_color":        true,
	"verbose":         true,
	"build_path":      true,
	"daemon":          true,
	"wallet":          true,
	"nodes":           true,
	"chain_id":        true,
	"log_level":       true,
	"trace":           true,
	"sign_gentx":      true,
	"startup_timeout": true,
	"settle_blocks":   true,
	"settle_timeout":  true,
	"settle_delay":    true,
}

// warnUnknownKeys logs a warning for every top-level key FileConfig ignores.
func (l *ConfigLoader) warnUnknownKeys(path string, data []byte) {
	if l.logger == nil {
		return
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return
	}
	for key := range raw {
		if !knownKeys[key] {
			l.logger.Warn("Unknown config key in %s: %s", path, key)
		}
	}
}
