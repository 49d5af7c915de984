package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// WriteAWSCredentials exports a credential set to the default profile of
// ~/.aws/credentials, so the standard AWS tooling picks the session up.
func WriteAWSCredentials(accessKeyID, secretAccessKey, sessionToken, region string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	awsDir := filepath.Join(home, ".aws")
	if err := os.MkdirAll(awsDir, 0700); err != nil {
		return fmt.Errorf("failed to create .aws directory: %w", err)
	}
	credentialsPath := filepath.Join(awsDir, "credentials")

	cfg, err := ini.Load(credentialsPath)
	if err != nil {
		cfg = ini.Empty()
	}

	sec, err := cfg.NewSection("default")
	if err != nil {
		return fmt.Errorf("failed to create profile section: %w", err)
	}
	sec.Key("aws_access_key_id").SetValue(accessKeyID)
	sec.Key("aws_secret_access_key").SetValue(secretAccessKey)
	if sessionToken != "" {
		sec.Key("aws_session_token").SetValue(sessionToken)
	}
	sec.Key("region").SetValue(region)

	if err := cfg.SaveTo(credentialsPath); err != nil {
		return fmt.Errorf("failed to save credentials file: %w", err)
	}
	return os.Chmod(credentialsPath, 0600)
}
