// Package auth drives the device authorization grant end to end: register
// a throwaway OAuth client, open the verification page for the operator,
// poll until the browser login completes, exchange the access token for
// role credentials, and cache the result.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	oidctypes "github.com/aws/aws-sdk-go-v2/service/ssooidc/types"

	awsclient "github.com/andre-2112/cloud-cli-access/aws"
	"github.com/andre-2112/cloud-cli-access/config"
	"github.com/andre-2112/cloud-cli-access/styles"
	"github.com/andre-2112/cloud-cli-access/utils"
)

// slowDownStep is the protocol-mandated back-off increment.
const slowDownStep = 5 * time.Second

// ErrLoginTimeout means the device authorization session ran out before
// the operator finished the browser login.
var ErrLoginTimeout = errors.New("authentication timed out - please try again")

// SSOClient is the slice of the AWS wrapper the authenticator drives.
type SSOClient interface {
	RegisterClient(ctx context.Context) (awsclient.ClientRegistration, error)
	StartDeviceAuthorization(ctx context.Context, reg awsclient.ClientRegistration, startURL string) (awsclient.DeviceAuthorization, error)
	CreateToken(ctx context.Context, reg awsclient.ClientRegistration, deviceCode string) (string, error)
	GetRoleCredentials(ctx context.Context, accessToken, accountID, roleName string) (awsclient.RoleCredentials, error)
}

// CredentialStore is where a successful login lands.
type CredentialStore interface {
	SaveCredentials(c config.CachedCredential) error
	ClearCredentials() error
}

// Authenticator runs one interactive login. The loop is deliberately a
// single blocking goroutine: the operator is authenticating in a browser
// in real time, and the only contract that matters is the poll cadence.
type Authenticator struct {
	client   SSOClient
	store    CredentialStore
	settings config.Settings

	out         io.Writer
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	openBrowser func(url string) error
}

// Option adjusts an Authenticator; tests use these to control time and
// silence output.
type Option func(*Authenticator)

func WithOutput(w io.Writer) Option {
	return func(a *Authenticator) { a.out = w }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Authenticator) { a.sleep = sleep }
}

func WithNow(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

func WithBrowserOpener(open func(url string) error) Option {
	return func(a *Authenticator) { a.openBrowser = open }
}

func New(client SSOClient, store CredentialStore, settings config.Settings, opts ...Option) *Authenticator {
	a := &Authenticator{
		client:      client,
		store:       store,
		settings:    settings,
		out:         os.Stdout,
		sleep:       sleepCtx,
		now:         time.Now,
		openBrowser: utils.OpenBrowser,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login performs the full device flow and caches the resulting
// credentials. Nothing is written on any failure path, so an aborted or
// failed login leaves the previous cache untouched.
func (a *Authenticator) Login(ctx context.Context) (config.CachedCredential, error) {
	fmt.Fprintln(a.out, styles.Highlight("Initiating Cloud CLI Access authentication..."))
	fmt.Fprintln(a.out)

	fmt.Fprintln(a.out, "Registering client...")
	reg, err := a.client.RegisterClient(ctx)
	if err != nil {
		return config.CachedCredential{}, err
	}

	fmt.Fprintln(a.out, "Starting device authorization...")
	session, err := a.client.StartDeviceAuthorization(ctx, reg, a.settings.SSOStartURL)
	if err != nil {
		return config.CachedCredential{}, err
	}

	a.showInstructions(session)

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, styles.Warning("Waiting for authentication..."))
	accessToken, err := a.poll(ctx, reg, session)
	if err != nil {
		return config.CachedCredential{}, err
	}
	fmt.Fprintln(a.out, styles.Success("Authentication successful!"))
	fmt.Fprintln(a.out)

	fmt.Fprintln(a.out, "Fetching role credentials...")
	creds, err := a.client.GetRoleCredentials(ctx, accessToken, a.settings.AccountID, a.settings.RoleName)
	if err != nil {
		return config.CachedCredential{}, err
	}

	cached := config.CachedCredential{
		Credentials: config.RoleCredentials{
			AccessKeyID:     creds.AccessKeyID,
			SecretAccessKey: creds.SecretAccessKey,
			SessionToken:    creds.SessionToken,
			Expiration:      creds.Expiration,
		},
		AccessToken: accessToken,
		CachedAt:    a.now().UTC(),
		SSOStartURL: a.settings.SSOStartURL,
		SSORegion:   a.settings.SSORegion,
		AccountID:   a.settings.AccountID,
		RoleName:    a.settings.RoleName,
	}
	if err := a.store.SaveCredentials(cached); err != nil {
		return config.CachedCredential{}, err
	}

	fmt.Fprintln(a.out, styles.Success("Credentials cached successfully"))
	fmt.Fprintln(a.out, styles.Highlight("Valid until: "+cached.ExpiresAt().Format(time.RFC3339)))
	return cached, nil
}

// Logout clears the credential cache.
func (a *Authenticator) Logout() error {
	return a.store.ClearCredentials()
}

func (a *Authenticator) showInstructions(session awsclient.DeviceAuthorization) {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, styles.VerificationBox(
		"If the browser does not open automatically, visit:\n"+
			session.VerificationURI+
			"\n\nand enter code:\n\n"+
			styles.Code(session.UserCode)))

	if err := a.openBrowser(session.VerificationURIComplete); err != nil {
		// Purely a UX degradation; the printed URL still works.
		fmt.Fprintln(a.out, styles.Warning("Could not open browser automatically: "+err.Error()))
	} else {
		fmt.Fprintln(a.out, styles.Success("Browser opened"))
	}
}

// poll sleeps for the current interval before every exchange attempt. The
// interval only ever grows, by 5s per slow-down signal, and the whole loop
// is bounded by the session's validity window.
func (a *Authenticator) poll(ctx context.Context, reg awsclient.ClientRegistration, session awsclient.DeviceAuthorization) (string, error) {
	start := a.now()
	interval := session.Interval

	for {
		if a.now().Sub(start) >= session.ExpiresIn {
			return "", ErrLoginTimeout
		}

		if err := a.sleep(ctx, interval); err != nil {
			return "", err
		}

		accessToken, err := a.client.CreateToken(ctx, reg, session.DeviceCode)
		if err == nil {
			return accessToken, nil
		}

		var (
			pending  *oidctypes.AuthorizationPendingException
			slowDown *oidctypes.SlowDownException
			expired  *oidctypes.ExpiredTokenException
		)
		switch {
		case errors.As(err, &pending):
			fmt.Fprint(a.out, ".")
		case errors.As(err, &slowDown):
			interval += slowDownStep
		case errors.As(err, &expired):
			return "", ErrLoginTimeout
		default:
			return "", fmt.Errorf("authentication error: %w", err)
		}
	}
}

// sleepCtx waits for d but honors cancellation, so an operator interrupt
// between polls aborts the login immediately.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
