package notify

import (
	"context"
	"sync"

	"github.com/andre-2112/cloud-cli-access/token"
)

// Recorder captures sent mail for assertions in tests. Any of the error
// fields, when set, is returned by the matching send.
type Recorder struct {
	mu sync.Mutex

	ApprovalRequests []ApprovalRequest
	Welcomes         []token.Payload
	Denials          []token.Payload

	ApprovalErr error
	WelcomeErr  error
	DenialErr   error
}

// ApprovalRequest is one recorded admin notification.
type ApprovalRequest struct {
	Payload    token.Payload
	ApproveURL string
	DenyURL    string
}

func (r *Recorder) SendApprovalRequest(ctx context.Context, p token.Payload, approveURL, denyURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ApprovalErr != nil {
		return r.ApprovalErr
	}
	r.ApprovalRequests = append(r.ApprovalRequests, ApprovalRequest{Payload: p, ApproveURL: approveURL, DenyURL: denyURL})
	return nil
}

func (r *Recorder) SendWelcome(ctx context.Context, p token.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.WelcomeErr != nil {
		return r.WelcomeErr
	}
	r.Welcomes = append(r.Welcomes, p)
	return nil
}

func (r *Recorder) SendDenial(ctx context.Context, p token.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.DenialErr != nil {
		return r.DenialErr
	}
	r.Denials = append(r.Denials, p)
	return nil
}
