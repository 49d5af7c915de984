// Package directory provides the user-directory backends for the approval
// flow: AWS IAM Identity Store for real deployments and an in-memory map
// for tests and dry runs.
package directory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/identitystore"
	idstypes "github.com/aws/aws-sdk-go-v2/service/identitystore/types"

	"github.com/andre-2112/cloud-cli-access/token"
)

// IdentityStoreAPI is the subset of the Identity Store client we call.
type IdentityStoreAPI interface {
	ListUsers(ctx context.Context, params *identitystore.ListUsersInput, optFns ...func(*identitystore.Options)) (*identitystore.ListUsersOutput, error)
	CreateUser(ctx context.Context, params *identitystore.CreateUserInput, optFns ...func(*identitystore.Options)) (*identitystore.CreateUserOutput, error)
	CreateGroupMembership(ctx context.Context, params *identitystore.CreateGroupMembershipInput, optFns ...func(*identitystore.Options)) (*identitystore.CreateGroupMembershipOutput, error)
}

// IdentityStore adapts AWS IAM Identity Store to the approval flow's
// Directory interface.
type IdentityStore struct {
	api     IdentityStoreAPI
	storeID string
}

func NewIdentityStore(api IdentityStoreAPI, storeID string) *IdentityStore {
	return &IdentityStore{api: api, storeID: storeID}
}

func (d *IdentityStore) LookupUser(ctx context.Context, username string) (string, bool, error) {
	out, err := d.api.ListUsers(ctx, &identitystore.ListUsersInput{
		IdentityStoreId: aws.String(d.storeID),
		Filters: []idstypes.Filter{
			{
				AttributePath:  aws.String("UserName"),
				AttributeValue: aws.String(username),
			},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("list users: %w", err)
	}

	if len(out.Users) == 0 {
		return "", false, nil
	}
	return aws.ToString(out.Users[0].UserId), true, nil
}

func (d *IdentityStore) CreateUser(ctx context.Context, p token.Payload) (string, error) {
	display := p.DisplayName()

	out, err := d.api.CreateUser(ctx, &identitystore.CreateUserInput{
		IdentityStoreId: aws.String(d.storeID),
		UserName:        aws.String(p.Username),
		DisplayName:     aws.String(display),
		Name: &idstypes.Name{
			GivenName:  aws.String(p.FirstName),
			FamilyName: aws.String(p.LastName),
			Formatted:  aws.String(display),
		},
		Emails: []idstypes.Email{
			{
				Value:   aws.String(p.Email),
				Type:    aws.String("work"),
				Primary: true,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return aws.ToString(out.UserId), nil
}

func (d *IdentityStore) AddToGroup(ctx context.Context, userID, groupID string) error {
	_, err := d.api.CreateGroupMembership(ctx, &identitystore.CreateGroupMembershipInput{
		IdentityStoreId: aws.String(d.storeID),
		GroupId:         aws.String(groupID),
		MemberId:        &idstypes.MemberIdMemberUserId{Value: userID},
	})
	if err != nil {
		return fmt.Errorf("create group membership: %w", err)
	}
	return nil
}
