// Package config owns everything under ~/.ccc: the CLI settings file and
// the cached credential bundle. The directory is private to the user
// (0700) and both files are written 0600.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const (
	configDirName       = ".ccc"
	configFileName      = "config"
	credentialsFileName = "credentials.json"

	// DefaultSSORegion and DefaultRoleName follow the tool's deployment
	// conventions and can be overridden at configure time.
	DefaultSSORegion = "us-east-1"
	DefaultRoleName  = "CCA-CLI-Access"
)

// Settings are the values `ccc configure` collects; login cannot run
// without all four.
type Settings struct {
	SSOStartURL string
	SSORegion   string
	AccountID   string
	RoleName    string
}

// Complete reports whether every setting needed for login is present.
func (s Settings) Complete() bool {
	return s.SSOStartURL != "" && s.SSORegion != "" && s.AccountID != "" && s.RoleName != ""
}

// Manager handles the settings and credential files.
type Manager struct {
	configPath      string
	credentialsPath string
	now             nowFunc
}

// NewManager resolves ~/.ccc, creating it when missing.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewManagerIn(filepath.Join(home, configDirName))
}

// NewManagerIn roots the manager at dir; tests point this at a temp dir.
func NewManagerIn(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &Manager{
		configPath:      filepath.Join(dir, configFileName),
		credentialsPath: filepath.Join(dir, credentialsFileName),
		now:             defaultNow,
	}, nil
}

// LoadSettings reads the settings file; a missing file yields zero
// settings, not an error.
func (m *Manager) LoadSettings() (Settings, error) {
	cfg, err := ini.Load(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("failed to load config file: %w", err)
	}

	sec := cfg.Section("default")
	return Settings{
		SSOStartURL: sec.Key("sso_start_url").String(),
		SSORegion:   sec.Key("sso_region").String(),
		AccountID:   sec.Key("account_id").String(),
		RoleName:    sec.Key("role_name").String(),
	}, nil
}

// SaveSettings overwrites the settings file.
func (m *Manager) SaveSettings(s Settings) error {
	cfg := ini.Empty()
	sec, err := cfg.NewSection("default")
	if err != nil {
		return fmt.Errorf("failed to create config section: %w", err)
	}

	sec.Key("sso_start_url").SetValue(s.SSOStartURL)
	sec.Key("sso_region").SetValue(s.SSORegion)
	sec.Key("account_id").SetValue(s.AccountID)
	sec.Key("role_name").SetValue(s.RoleName)

	if err := cfg.SaveTo(m.configPath); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return os.Chmod(m.configPath, 0600)
}
