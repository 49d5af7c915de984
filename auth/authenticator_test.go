package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	oidctypes "github.com/aws/aws-sdk-go-v2/service/ssooidc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awsclient "github.com/andre-2112/cloud-cli-access/aws"
	"github.com/andre-2112/cloud-cli-access/config"
)

var testSettings = config.Settings{
	SSOStartURL: "https://company.awsapps.com/start",
	SSORegion:   "us-east-1",
	AccountID:   "123456789012",
	RoleName:    "CCA-CLI-Access",
}

// pollStep scripts one CreateToken attempt.
type pollStep struct {
	token string
	err   error
}

// fakeFlow scripts the provider side of the device flow.
type fakeFlow struct {
	session   awsclient.DeviceAuthorization
	steps     []pollStep
	calls     int
	roleCreds awsclient.RoleCredentials
	roleErr   error
}

func (f *fakeFlow) RegisterClient(ctx context.Context) (awsclient.ClientRegistration, error) {
	return awsclient.ClientRegistration{ClientID: "client-id", ClientSecret: "client-secret"}, nil
}

func (f *fakeFlow) StartDeviceAuthorization(ctx context.Context, reg awsclient.ClientRegistration, startURL string) (awsclient.DeviceAuthorization, error) {
	return f.session, nil
}

func (f *fakeFlow) CreateToken(ctx context.Context, reg awsclient.ClientRegistration, deviceCode string) (string, error) {
	if f.calls >= len(f.steps) {
		return "", errors.New("unexpected extra poll")
	}
	step := f.steps[f.calls]
	f.calls++
	return step.token, step.err
}

func (f *fakeFlow) GetRoleCredentials(ctx context.Context, accessToken, accountID, roleName string) (awsclient.RoleCredentials, error) {
	if f.roleErr != nil {
		return awsclient.RoleCredentials{}, f.roleErr
	}
	return f.roleCreds, nil
}

// recordingStore captures saves without touching the filesystem.
type recordingStore struct {
	saved   []config.CachedCredential
	cleared int
}

func (s *recordingStore) SaveCredentials(c config.CachedCredential) error {
	s.saved = append(s.saved, c)
	return nil
}

func (s *recordingStore) ClearCredentials() error {
	s.cleared++
	return nil
}

// virtualClock advances only when the authenticator sleeps, so cadence
// tests assert real protocol timing without waiting for it.
type virtualClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *virtualClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestAuthenticator(flow *fakeFlow, store *recordingStore, clock *virtualClock) *Authenticator {
	return New(flow, store, testSettings,
		WithOutput(io.Discard),
		WithSleep(clock.sleep),
		WithNow(func() time.Time { return clock.now }),
		WithBrowserOpener(func(url string) error { return errors.New("no browser in tests") }),
	)
}

func session(interval, window time.Duration) awsclient.DeviceAuthorization {
	return awsclient.DeviceAuthorization{
		DeviceCode:              "device-code",
		UserCode:                "ABCD-EFGH",
		VerificationURI:         "https://device.sso.us-east-1.amazonaws.com/",
		VerificationURIComplete: "https://device.sso.us-east-1.amazonaws.com/?user_code=ABCD-EFGH",
		Interval:                interval,
		ExpiresIn:               window,
	}
}

func TestLoginPollsUntilAuthorized(t *testing.T) {
	flow := &fakeFlow{
		session: session(5*time.Second, 10*time.Minute),
		steps: []pollStep{
			{err: &oidctypes.AuthorizationPendingException{}},
			{err: &oidctypes.AuthorizationPendingException{}},
			{err: &oidctypes.AuthorizationPendingException{}},
			{token: "access-token"},
		},
		roleCreds: awsclient.RoleCredentials{
			AccessKeyID:     "AKIA123",
			SecretAccessKey: "secret",
			SessionToken:    "session",
			Expiration:      time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC).UnixMilli(),
		},
	}
	store := &recordingStore{}
	clock := &virtualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	cached, err := newTestAuthenticator(flow, store, clock).Login(context.Background())
	require.NoError(t, err)

	// Four exchange attempts, each preceded by a full interval sleep.
	assert.Equal(t, 4, flow.calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second, 5 * time.Second}, clock.sleeps)
	assert.GreaterOrEqual(t, clock.now.Sub(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)), 15*time.Second)

	assert.Equal(t, "access-token", cached.AccessToken)
	assert.Equal(t, "AKIA123", cached.Credentials.AccessKeyID)
	assert.Equal(t, testSettings.SSOStartURL, cached.SSOStartURL)
	assert.Equal(t, testSettings.AccountID, cached.AccountID)
	require.Len(t, store.saved, 1)
	assert.Equal(t, cached, store.saved[0])
}

func TestLoginBacksOffOnSlowDown(t *testing.T) {
	flow := &fakeFlow{
		session: session(5*time.Second, 10*time.Minute),
		steps: []pollStep{
			{err: &oidctypes.SlowDownException{}},
			{token: "access-token"},
		},
		roleCreds: awsclient.RoleCredentials{Expiration: time.Now().Add(8 * time.Hour).UnixMilli()},
	}
	store := &recordingStore{}
	clock := &virtualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	_, err := newTestAuthenticator(flow, store, clock).Login(context.Background())
	require.NoError(t, err)

	// The interval grows by 5s after the slow-down signal and stays there.
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, clock.sleeps)
}

func TestLoginTimesOutWhenWindowElapses(t *testing.T) {
	pending := make([]pollStep, 10)
	for i := range pending {
		pending[i] = pollStep{err: &oidctypes.AuthorizationPendingException{}}
	}
	flow := &fakeFlow{
		session: session(5*time.Second, 12*time.Second),
		steps:   pending,
	}
	store := &recordingStore{}
	clock := &virtualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	_, err := newTestAuthenticator(flow, store, clock).Login(context.Background())
	assert.ErrorIs(t, err, ErrLoginTimeout)
	assert.Empty(t, store.saved)
	// 0s, 5s, 10s elapsed at the three checks; the fourth check sees 15s >= 12s.
	assert.Equal(t, 3, flow.calls)
}

func TestLoginTimesOutOnExpiredDeviceCode(t *testing.T) {
	flow := &fakeFlow{
		session: session(5*time.Second, 10*time.Minute),
		steps:   []pollStep{{err: &oidctypes.ExpiredTokenException{}}},
	}
	store := &recordingStore{}
	clock := &virtualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	_, err := newTestAuthenticator(flow, store, clock).Login(context.Background())
	assert.ErrorIs(t, err, ErrLoginTimeout)
	assert.Empty(t, store.saved)
}

func TestLoginSurfacesProviderErrors(t *testing.T) {
	flow := &fakeFlow{
		session: session(5*time.Second, 10*time.Minute),
		steps:   []pollStep{{err: errors.New("access denied by policy")}},
	}
	store := &recordingStore{}
	clock := &virtualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	_, err := newTestAuthenticator(flow, store, clock).Login(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "access denied by policy")
	assert.Empty(t, store.saved)
}

func TestLoginHonorsCancellationBetweenPolls(t *testing.T) {
	flow := &fakeFlow{
		session: session(5*time.Second, 10*time.Minute),
		steps: []pollStep{
			{err: &oidctypes.AuthorizationPendingException{}},
			{token: "never-reached"},
		},
	}
	store := &recordingStore{}
	clock := &virtualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	ctx, cancel := context.WithCancel(context.Background())
	a := New(flow, store, testSettings,
		WithOutput(io.Discard),
		WithNow(func() time.Time { return clock.now }),
		WithBrowserOpener(func(url string) error { return nil }),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			if len(clock.sleeps) == 1 {
				cancel()
			}
			return clock.sleep(ctx, d)
		}),
	)

	_, err := a.Login(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, flow.calls)
	assert.Empty(t, store.saved, "no partial credential may be written on abort")
}

func TestLoginDoesNotCacheOnRoleCredentialFailure(t *testing.T) {
	flow := &fakeFlow{
		session: session(5*time.Second, 10*time.Minute),
		steps:   []pollStep{{token: "access-token"}},
		roleErr: errors.New("role not assigned"),
	}
	store := &recordingStore{}
	clock := &virtualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	_, err := newTestAuthenticator(flow, store, clock).Login(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.saved)
}
