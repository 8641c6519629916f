package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manager locates the per-user autodev directory: the default config file
// and the data kept between runs.
type Manager struct {
	configDir string
}

// NewManager creates a manager rooted at the user config dir.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "autodev")}, nil
}

// NewManagerAt creates a manager rooted at dir.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// Dir returns the autodev user directory.
func (m *Manager) Dir() string {
	return m.configDir
}

// GetConfigPath returns the absolute path to config.yaml.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.yaml")
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return err == nil
}

// Load reads the user config file when present, defaults otherwise.
func (m *Manager) Load() (*Config, error) {
	path := ""
	if m.Exists() {
		path = m.GetConfigPath()
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m.ApplyStorageDefaults(cfg)
	return cfg, nil
}

// ApplyStorageDefaults points empty storage paths into the user directory.
func (m *Manager) ApplyStorageDefaults(cfg *Config) {
	if cfg.Storage.HistoryDB == "" {
		cfg.Storage.HistoryDB = filepath.Join(m.configDir, "history.db")
	}
	if cfg.Storage.SessionsDir == "" {
		cfg.Storage.SessionsDir = filepath.Join(m.configDir, "sessions")
	}
}

// Save writes cfg as YAML with restricted permissions (0600). An existing
// file is kept unless force is set.
func (m *Manager) Save(cfg *Config, force bool) error {
	if m.Exists() && !force {
		return fmt.Errorf("config file %s already exists", m.GetConfigPath())
	}
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
