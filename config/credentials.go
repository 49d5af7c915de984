package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type nowFunc func() time.Time

func defaultNow() time.Time { return time.Now() }

// WithNow pins the expiry clock; tests only.
func (m *Manager) WithNow(now func() time.Time) *Manager {
	m.now = now
	return m
}

// RoleCredentials mirrors the credential fields as the SSO service names
// them; Expiration is epoch milliseconds.
type RoleCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken"`
	Expiration      int64  `json:"expiration"`
}

// CachedCredential is the on-disk bundle written after a successful login.
// Besides the credentials themselves it records the access token and the
// SSO parameters that produced them, so status can show where a session
// came from.
type CachedCredential struct {
	Credentials RoleCredentials `json:"credentials"`
	AccessToken string          `json:"access_token"`
	CachedAt    time.Time       `json:"cached_at"`
	SSOStartURL string          `json:"sso_start_url"`
	SSORegion   string          `json:"sso_region"`
	AccountID   string          `json:"account_id"`
	RoleName    string          `json:"role_name"`
}

// ExpiresAt converts the stored epoch-millisecond expiration to a time.
func (c CachedCredential) ExpiresAt() time.Time {
	return time.UnixMilli(c.Credentials.Expiration).UTC()
}

// ExpiredAt reports whether the bundle is unusable at t. Exactly at the
// expiration instant counts as expired.
func (c CachedCredential) ExpiredAt(t time.Time) bool {
	return !t.Before(c.ExpiresAt())
}

// SaveCredentials overwrites the cache file. Last writer wins across
// concurrent CLI invocations, which is acceptable at human pace.
func (m *Manager) SaveCredentials(c CachedCredential) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(m.credentialsPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// LoadCredentials returns the cached bundle only while it is still valid;
// an expired or missing cache reads as absent and the caller must
// re-authenticate.
func (m *Manager) LoadCredentials() (CachedCredential, bool, error) {
	c, ok, err := m.InspectCredentials()
	if err != nil || !ok {
		return CachedCredential{}, false, err
	}
	if c.ExpiredAt(m.now()) {
		return CachedCredential{}, false, nil
	}
	return c, true, nil
}

// InspectCredentials reads the cache without the expiry check, for status
// displays that want to show an expired session.
func (m *Manager) InspectCredentials() (CachedCredential, bool, error) {
	data, err := os.ReadFile(m.credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return CachedCredential{}, false, nil
		}
		return CachedCredential{}, false, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var c CachedCredential
	if err := json.Unmarshal(data, &c); err != nil {
		return CachedCredential{}, false, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return c, true, nil
}

// ClearCredentials removes the cache; clearing an absent cache is fine.
func (m *Manager) ClearCredentials() error {
	err := os.Remove(m.credentialsPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}
