package aws

import "time"

// ClientRegistration identifies one CLI run to the OIDC service. It is
// scoped to a single login and never cached across runs.
type ClientRegistration struct {
	ClientID     string
	ClientSecret string
}

// DeviceAuthorization is the session handed back when device authorization
// starts: what to show the operator and how to poll.
type DeviceAuthorization struct {
	DeviceCode              string
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	Interval                time.Duration // polling cadence requested by the provider
	ExpiresIn               time.Duration // total validity window for the session
	StartedAt               time.Time
}

// RoleCredentials are the short-lived credentials returned for an
// account/role pair. Expiration is epoch milliseconds, as the service
// reports it.
type RoleCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      int64
}

// ExpiresAt converts the epoch-millisecond expiration to a time.
func (c RoleCredentials) ExpiresAt() time.Time {
	return time.UnixMilli(c.Expiration).UTC()
}

// Identity is the caller identity reported by STS.
type Identity struct {
	ARN     string
	Account string
	UserID  string
}
