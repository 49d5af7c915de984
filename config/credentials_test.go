package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManagerIn(t.TempDir())
	require.NoError(t, err)
	return m.WithNow(func() time.Time { return testNow })
}

func testCredential(expiration time.Time) CachedCredential {
	return CachedCredential{
		Credentials: RoleCredentials{
			AccessKeyID:     "AKIA123",
			SecretAccessKey: "secret",
			SessionToken:    "session",
			Expiration:      expiration.UnixMilli(),
		},
		AccessToken: "access-token",
		CachedAt:    testNow,
		SSOStartURL: "https://company.awsapps.com/start",
		SSORegion:   "us-east-1",
		AccountID:   "123456789012",
		RoleName:    "CCA-CLI-Access",
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	m := newTestManager(t)
	want := testCredential(testNow.Add(8 * time.Hour))

	require.NoError(t, m.SaveCredentials(want))

	got, ok, err := m.LoadCredentials()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCredentialsFileIsPrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	m := newTestManager(t)
	require.NoError(t, m.SaveCredentials(testCredential(testNow.Add(time.Hour))))

	info, err := os.Stat(m.credentialsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExpiredCredentialsReadAsAbsent(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SaveCredentials(testCredential(testNow.Add(-time.Minute))))

	_, ok, err := m.LoadCredentials()
	require.NoError(t, err)
	assert.False(t, ok)

	// Status displays still see the stale bundle.
	got, ok, err := m.InspectCredentials()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.ExpiredAt(testNow))
}

func TestCredentialsExpireExactlyAtExpiration(t *testing.T) {
	c := testCredential(testNow)
	assert.True(t, c.ExpiredAt(testNow))
	assert.False(t, c.ExpiredAt(testNow.Add(-time.Second)))
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.LoadCredentials()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCredentialsCorruptFile(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.credentialsPath, []byte("{not json"), 0600))

	_, _, err := m.LoadCredentials()
	assert.ErrorContains(t, err, "failed to parse credentials file")
}

func TestClearCredentials(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SaveCredentials(testCredential(testNow.Add(time.Hour))))

	require.NoError(t, m.ClearCredentials())
	_, err := os.Stat(m.credentialsPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing again is a no-op.
	require.NoError(t, m.ClearCredentials())
}

func TestSettingsRoundTrip(t *testing.T) {
	m := newTestManager(t)
	want := Settings{
		SSOStartURL: "https://company.awsapps.com/start",
		SSORegion:   "eu-west-1",
		AccountID:   "123456789012",
		RoleName:    "CCA-CLI-Access",
	}

	require.NoError(t, m.SaveSettings(want))

	got, err := m.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.Complete())
}

func TestLoadSettingsMissingFile(t *testing.T) {
	m := newTestManager(t)

	got, err := m.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, Settings{}, got)
	assert.False(t, got.Complete())
}

func TestConfigDirectoryIsPrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := filepath.Join(t.TempDir(), "ccc")
	_, err := NewManagerIn(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}
