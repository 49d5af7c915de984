package notify

import (
	"context"
	"log"

	"github.com/andre-2112/cloud-cli-access/token"
)

// Log writes mail that would have been sent to the server log. Used when
// the service runs without SES configured (local dry runs).
type Log struct {
	log *log.Logger
}

func NewLog(logger *log.Logger) *Log {
	return &Log{log: logger}
}

func (n *Log) SendApprovalRequest(ctx context.Context, p token.Payload, approveURL, denyURL string) error {
	n.log.Printf("notify (dry run): approval request for %q to admin\n  approve: %s\n  deny:    %s", p.Username, approveURL, denyURL)
	return nil
}

func (n *Log) SendWelcome(ctx context.Context, p token.Payload) error {
	n.log.Printf("notify (dry run): welcome mail to %s", p.Email)
	return nil
}

func (n *Log) SendDenial(ctx context.Context, p token.Payload) error {
	n.log.Printf("notify (dry run): denial mail to %s", p.Email)
	return nil
}
