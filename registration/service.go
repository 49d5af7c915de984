// Package registration implements the stateless onboarding flow: a
// submitted request is validated, turned into a signed approve/deny token
// pair, and mailed to an administrator. The approval side verifies an
// inbound token and applies the decision against the external directory.
// No request state is kept anywhere except inside the tokens themselves.
package registration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/andre-2112/cloud-cli-access/token"
)

// PendingTTL is how long an emailed approval link stays valid.
const PendingTTL = 7 * 24 * time.Hour

// StatusPendingApproval is returned to the submitter; the request now
// lives only in the two tokens carried by the admin email.
const StatusPendingApproval = "pending_approval"

// Notifier sends the three onboarding mails. Implementations live in the
// notify package; tests substitute a recorder.
type Notifier interface {
	SendApprovalRequest(ctx context.Context, p token.Payload, approveURL, denyURL string) error
	SendWelcome(ctx context.Context, p token.Payload) error
	SendDenial(ctx context.Context, p token.Payload) error
}

// Request is a registration submission. All fields are required.
type Request struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Result is the outcome of a successful submission. Both tokens embed the
// same payload and differ only in the action they are bound to.
type Result struct {
	Status       string
	ApproveToken string
	DenyToken    string
}

// Service validates submissions and issues the token pair.
type Service struct {
	codec    *token.Codec
	notifier Notifier
	log      *log.Logger
	now      func() time.Time
}

// ServiceOption adjusts a Service.
type ServiceOption func(*Service)

// WithServiceNow pins the submission clock in tests.
func WithServiceNow(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(codec *token.Codec, notifier Notifier, logger *log.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		codec:    codec,
		notifier: notifier,
		log:      logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates req, mints the approve/deny token pair, and asks the
// notifier to put both links in front of an administrator. baseURL is the
// externally reachable root of the approval service. If the notification
// cannot be sent the registration is lost, so that failure is fatal; the
// user resubmits, which is harmless because nothing was persisted.
func (s *Service) Register(ctx context.Context, req Request, baseURL string) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	now := s.now().UTC().Truncate(time.Second)
	payload := token.Payload{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		SubmittedAt: now,
		ExpiresAt:   now.Add(PendingTTL),
	}

	approveTok, err := s.codec.Encode(payload, token.ActionApprove)
	if err != nil {
		return Result{}, fmt.Errorf("mint approve token: %w", err)
	}
	denyTok, err := s.codec.Encode(payload, token.ActionDeny)
	if err != nil {
		return Result{}, fmt.Errorf("mint deny token: %w", err)
	}

	approveURL := fmt.Sprintf("%s/approve?token=%s", baseURL, approveTok)
	denyURL := fmt.Sprintf("%s/deny?token=%s", baseURL, denyTok)

	if err := s.notifier.SendApprovalRequest(ctx, payload, approveURL, denyURL); err != nil {
		s.log.Printf("registration for %q: approval request mail failed: %v", req.Username, err)
		return Result{}, fmt.Errorf("send approval request: %w", err)
	}

	return Result{
		Status:       StatusPendingApproval,
		ApproveToken: approveTok,
		DenyToken:    denyTok,
	}, nil
}

func validate(req Request) error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"username", req.Username},
		{"email", req.Email},
		{"first_name", req.FirstName},
		{"last_name", req.LastName},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	if !govalidator.IsEmail(req.Email) {
		return &ValidationError{Reason: "invalid email address"}
	}

	return nil
}
