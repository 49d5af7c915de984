// Package aws wraps the AWS service clients the CLI talks to: SSO OIDC
// for the device authorization grant, SSO for role credentials, and the
// STS/S3/EC2 probes used to verify obtained credentials.
package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sso"
	"github.com/aws/aws-sdk-go-v2/service/ssooidc"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

// deviceGrantType is the OAuth grant used when exchanging a device code.
const deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// clientName is how this tool registers itself with the OIDC service.
const clientName = "ccc-cli"

// OIDCAPI is the subset of the SSO OIDC client driving the device flow.
type OIDCAPI interface {
	RegisterClient(ctx context.Context, params *ssooidc.RegisterClientInput, optFns ...func(*ssooidc.Options)) (*ssooidc.RegisterClientOutput, error)
	StartDeviceAuthorization(ctx context.Context, params *ssooidc.StartDeviceAuthorizationInput, optFns ...func(*ssooidc.Options)) (*ssooidc.StartDeviceAuthorizationOutput, error)
	CreateToken(ctx context.Context, params *ssooidc.CreateTokenInput, optFns ...func(*ssooidc.Options)) (*ssooidc.CreateTokenOutput, error)
}

// SSOAPI is the single SSO portal call we need.
type SSOAPI interface {
	GetRoleCredentials(ctx context.Context, params *sso.GetRoleCredentialsInput, optFns ...func(*sso.Options)) (*sso.GetRoleCredentialsOutput, error)
}

// Client wraps the AWS service clients for one region.
type Client struct {
	cfg  aws.Config
	oidc OIDCAPI
	sso  SSOAPI
	sts  *sts.Client
	s3   *s3.Client
	ec2  *ec2.Client
}

// NewClient initializes service clients using the default ambient
// configuration. The device flow itself needs no credentials.
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return fromConfig(cfg), nil
}

// NewCredentialedClient builds a client bound to explicit static
// credentials, used by the probes that validate a cached login.
func NewCredentialedClient(ctx context.Context, region string, creds RoleCredentials) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return fromConfig(cfg), nil
}

func fromConfig(cfg aws.Config) *Client {
	return &Client{
		cfg:  cfg,
		oidc: ssooidc.NewFromConfig(cfg),
		sso:  sso.NewFromConfig(cfg),
		sts:  sts.NewFromConfig(cfg),
		s3:   s3.NewFromConfig(cfg),
		ec2:  ec2.NewFromConfig(cfg),
	}
}

// Region returns the configured AWS region.
func (c *Client) Region() string {
	return c.cfg.Region
}

// RegisterClient registers this run as a public OAuth client.
func (c *Client) RegisterClient(ctx context.Context) (ClientRegistration, error) {
	out, err := c.oidc.RegisterClient(ctx, &ssooidc.RegisterClientInput{
		ClientName: aws.String(clientName),
		ClientType: aws.String("public"),
	})
	if err != nil {
		return ClientRegistration{}, fmt.Errorf("failed to register OIDC client: %w", err)
	}
	return ClientRegistration{
		ClientID:     aws.ToString(out.ClientId),
		ClientSecret: aws.ToString(out.ClientSecret),
	}, nil
}

// StartDeviceAuthorization opens a device authorization session for the
// given SSO start URL. Provider defaults apply when the response omits the
// interval (5s) or window (10m).
func (c *Client) StartDeviceAuthorization(ctx context.Context, reg ClientRegistration, startURL string) (DeviceAuthorization, error) {
	out, err := c.oidc.StartDeviceAuthorization(ctx, &ssooidc.StartDeviceAuthorizationInput{
		ClientId:     aws.String(reg.ClientID),
		ClientSecret: aws.String(reg.ClientSecret),
		StartUrl:     aws.String(startURL),
	})
	if err != nil {
		return DeviceAuthorization{}, fmt.Errorf("failed to start device authorization: %w", err)
	}

	interval := time.Duration(out.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	window := time.Duration(out.ExpiresIn) * time.Second
	if window <= 0 {
		window = 10 * time.Minute
	}

	auth := DeviceAuthorization{
		DeviceCode:              aws.ToString(out.DeviceCode),
		UserCode:                aws.ToString(out.UserCode),
		VerificationURI:         aws.ToString(out.VerificationUri),
		VerificationURIComplete: aws.ToString(out.VerificationUriComplete),
		Interval:                interval,
		ExpiresIn:               window,
		StartedAt:               time.Now(),
	}
	if auth.VerificationURIComplete == "" {
		auth.VerificationURIComplete = auth.VerificationURI
	}
	return auth, nil
}

// CreateToken attempts one device-code exchange. Errors come back
// unwrapped from the service so the caller can distinguish the protocol's
// pending/slow-down/expired signals.
func (c *Client) CreateToken(ctx context.Context, reg ClientRegistration, deviceCode string) (string, error) {
	out, err := c.oidc.CreateToken(ctx, &ssooidc.CreateTokenInput{
		ClientId:     aws.String(reg.ClientID),
		ClientSecret: aws.String(reg.ClientSecret),
		DeviceCode:   aws.String(deviceCode),
		GrantType:    aws.String(deviceGrantType),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.AccessToken), nil
}

// GetRoleCredentials exchanges an access token for short-lived role
// credentials in the configured account.
func (c *Client) GetRoleCredentials(ctx context.Context, accessToken, accountID, roleName string) (RoleCredentials, error) {
	out, err := c.sso.GetRoleCredentials(ctx, &sso.GetRoleCredentialsInput{
		AccessToken: aws.String(accessToken),
		AccountId:   aws.String(accountID),
		RoleName:    aws.String(roleName),
	})
	if err != nil {
		return RoleCredentials{}, fmt.Errorf("failed to get role credentials: %w", err)
	}

	rc := out.RoleCredentials
	return RoleCredentials{
		AccessKeyID:     aws.ToString(rc.AccessKeyId),
		SecretAccessKey: aws.ToString(rc.SecretAccessKey),
		SessionToken:    aws.ToString(rc.SessionToken),
		Expiration:      rc.Expiration,
	}, nil
}

// CallerIdentity reports who the current credentials belong to.
func (c *Client) CallerIdentity(ctx context.Context) (Identity, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ARN:     aws.ToString(out.Arn),
		Account: aws.ToString(out.Account),
		UserID:  aws.ToString(out.UserId),
	}, nil
}

// BucketCount lists S3 buckets visible to the current credentials.
func (c *Client) BucketCount(ctx context.Context) (int, error) {
	out, err := c.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return 0, err
	}
	return len(out.Buckets), nil
}

// RegionCount counts EC2 regions available to the current credentials.
func (c *Client) RegionCount(ctx context.Context) (int, error) {
	out, err := c.ec2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return 0, err
	}
	return len(out.Regions), nil
}

// ErrorSummary reduces an AWS SDK error to its service error code and
// message, which is all an operator needs from a failed probe.
func ErrorSummary(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	return err.Error()
}
