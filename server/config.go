package server

import (
	"errors"
	"os"
)

// Config is the approval service's environment-driven configuration. The
// signing secret is loaded once here and handed to the token codec; it is
// never global state.
type Config struct {
	Addr            string
	SecretKey       string
	BaseURL         string // externally reachable root for approval links; empty means derive from request Host
	IdentityStoreID string // empty selects the in-memory directory (dry run)
	CLIGroupID      string
	SSOStartURL     string
	FromEmail       string // empty selects the log notifier (dry run)
	AdminEmail      string
	Region          string
}

// FromEnv builds a Config from the environment so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:            os.Getenv("CCC_ADDR"),
		SecretKey:       os.Getenv("CCC_SECRET_KEY"),
		BaseURL:         os.Getenv("APPROVAL_BASE_URL"),
		IdentityStoreID: os.Getenv("IDENTITY_STORE_ID"),
		CLIGroupID:      os.Getenv("CLI_GROUP_ID"),
		SSOStartURL:     os.Getenv("SSO_START_URL"),
		FromEmail:       os.Getenv("FROM_EMAIL"),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		Region:          os.Getenv("AWS_REGION"),
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.SecretKey == "" {
		return Config{}, errors.New("CCC_SECRET_KEY is required")
	}
	if cfg.FromEmail != "" && cfg.AdminEmail == "" {
		return Config{}, errors.New("ADMIN_EMAIL is required when FROM_EMAIL is set")
	}
	return cfg, nil
}
