package registration

import (
	"context"
	"log"

	"github.com/andre-2112/cloud-cli-access/token"
)

// Directory is the external system of record for users and group
// membership. The approval flow only ever looks a user up by username,
// creates one, and attaches a group.
type Directory interface {
	// LookupUser returns the directory ID for username, or found=false.
	LookupUser(ctx context.Context, username string) (userID string, found bool, err error)
	CreateUser(ctx context.Context, p token.Payload) (userID string, err error)
	AddToGroup(ctx context.Context, userID, groupID string) error
}

// Decision is the terminal state of one approval-link click.
type Decision string

const (
	DecisionCreated Decision = "created"
	DecisionExists  Decision = "already_exists"
	DecisionDenied  Decision = "denied"
)

// Outcome reports the decision together with the payload it applied to.
type Outcome struct {
	Decision Decision
	User     token.Payload
}

// ApprovalHandler executes an admin's click. Each call is an independent
// stateless invocation; the token is the only input.
type ApprovalHandler struct {
	codec    *token.Codec
	dir      Directory
	notifier Notifier
	groupID  string
	log      *log.Logger
}

func NewApprovalHandler(codec *token.Codec, dir Directory, notifier Notifier, groupID string, logger *log.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		codec:    codec,
		dir:      dir,
		notifier: notifier,
		groupID:  groupID,
		log:      logger,
	}
}

// Approve verifies an approve token and creates the user. Repeated clicks
// on the same link are safe: an existing user short-circuits to
// DecisionExists. The lookup-then-create pair is not atomic, so two
// simultaneous clicks can race past the lookup; the second create then
// fails with a directory conflict and is reported as such. A welcome-mail
// failure is logged but does not demote a successful create.
//
// If the user is created but the group attach fails, the user is left in
// place and the error is surfaced to the admin for manual cleanup.
func (h *ApprovalHandler) Approve(ctx context.Context, tok string) (Outcome, error) {
	payload, err := h.codec.Decode(tok, token.ActionApprove)
	if err != nil {
		return Outcome{}, err
	}

	_, found, err := h.dir.LookupUser(ctx, payload.Username)
	if err != nil {
		// The lookup only guards idempotency; if it fails we still
		// attempt the create and let the directory be the judge.
		h.log.Printf("approve %q: lookup failed, attempting create anyway: %v", payload.Username, err)
	}
	if found {
		return Outcome{Decision: DecisionExists, User: payload}, nil
	}

	userID, err := h.dir.CreateUser(ctx, payload)
	if err != nil {
		return Outcome{}, &DirectoryError{Op: "create user", Err: err}
	}

	if err := h.dir.AddToGroup(ctx, userID, h.groupID); err != nil {
		return Outcome{}, &DirectoryError{Op: "add group membership", Err: err}
	}

	if err := h.notifier.SendWelcome(ctx, payload); err != nil {
		h.log.Printf("approve %q: welcome mail failed: %v", payload.Username, err)
	}

	return Outcome{Decision: DecisionCreated, User: payload}, nil
}

// Deny verifies a deny token and notifies the requester. The directory is
// never touched; denial is purely a notification.
func (h *ApprovalHandler) Deny(ctx context.Context, tok string) (Outcome, error) {
	payload, err := h.codec.Decode(tok, token.ActionDeny)
	if err != nil {
		return Outcome{}, err
	}

	if err := h.notifier.SendDenial(ctx, payload); err != nil {
		h.log.Printf("deny %q: denial mail failed: %v", payload.Username, err)
	}

	return Outcome{Decision: DecisionDenied, User: payload}, nil
}
