// Package notify sends the onboarding mails: the admin approval request
// with its approve/deny links, the welcome mail after a create, and the
// denial notice. The SES backend mirrors the production templates; Log is
// a stand-in for dry runs.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/andre-2112/cloud-cli-access/token"
)

// SESAPI is the single SES call the notifier needs.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES sends onboarding mail through Amazon SES.
type SES struct {
	api        SESAPI
	from       string
	adminEmail string
	startURL   string // SSO portal URL shown in the welcome mail
}

func NewSES(api SESAPI, from, adminEmail, startURL string) *SES {
	return &SES{
		api:        api,
		from:       from,
		adminEmail: adminEmail,
		startURL:   startURL,
	}
}

func (n *SES) SendApprovalRequest(ctx context.Context, p token.Payload, approveURL, denyURL string) error {
	subject := fmt.Sprintf("[CCA] New Registration Request: %s", p.Username)

	text := fmt.Sprintf(`New Cloud CLI Access registration request:

Username: %s
Email: %s
Name: %s
Submitted: %s

To approve this request:
%s

To deny this request:
%s

These links will expire in 7 days.
`, p.Username, p.Email, p.DisplayName(), p.SubmittedAt.Format("2006-01-02 15:04:05 UTC"), approveURL, denyURL)

	html := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>New Registration Request</h2>
    <div style="background: #f8f9fa; padding: 20px; border-radius: 5px;">
      <p><strong>Username:</strong> %s</p>
      <p><strong>Email:</strong> %s</p>
      <p><strong>Name:</strong> %s</p>
      <p><strong>Submitted:</strong> %s</p>
    </div>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="display: inline-block; padding: 12px 30px; margin: 10px 5px; background: #28a745; color: white; text-decoration: none; border-radius: 5px; font-weight: bold;">Approve</a>
      <a href="%s" style="display: inline-block; padding: 12px 30px; margin: 10px 5px; background: #dc3545; color: white; text-decoration: none; border-radius: 5px; font-weight: bold;">Deny</a>
    </div>
    <p style="color: #666; font-size: 12px; text-align: center;">These links will expire in 7 days.</p>
  </div>
</body>
</html>`, p.Username, p.Email, p.DisplayName(), p.SubmittedAt.Format("2006-01-02 15:04:05 UTC"), approveURL, denyURL)

	return n.send(ctx, n.adminEmail, subject, text, html)
}

func (n *SES) SendWelcome(ctx context.Context, p token.Payload) error {
	subject := "Welcome to Cloud CLI Access"

	text := fmt.Sprintf(`Welcome to Cloud CLI Access!

Your registration has been approved.

Username: %s
Email: %s

IMPORTANT - Set Your Password:
You will receive a separate email from AWS IAM Identity Center with a link
to set your password. Check your inbox (and spam folder) for an email with
the subject "Invitation to join AWS IAM Identity Center".

After setting your password, log in with the CCC CLI tool:

1. Install the CCC CLI tool (if not already installed)
2. Run: ccc configure
3. Run: ccc login
4. When prompted, authenticate at: %s

For help, contact your administrator.

Best regards,
Cloud CLI Access Team
`, p.Username, p.Email, n.startURL)

	html := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Welcome to Cloud CLI Access!</h1>
    <p>Your registration has been approved.</p>
    <div style="background: #f8f9fa; padding: 15px; border-left: 4px solid #667eea; margin: 20px 0;">
      <strong>Your Account:</strong><br>
      Username: %s<br>
      Email: %s
    </div>
    <div style="background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0;">
      <strong>IMPORTANT - Set Your Password:</strong><br>
      You will receive a separate email from AWS IAM Identity Center with a
      link to set your password. Check your inbox (and spam folder) for an
      email with the subject <em>"Invitation to join AWS IAM Identity Center"</em>.
    </div>
    <h3>Getting Started:</h3>
    <ol>
      <li>Set your password using the link from AWS</li>
      <li>Install the CCC CLI tool</li>
      <li>Run: <code>ccc configure</code></li>
      <li>Run: <code>ccc login</code></li>
      <li>Authenticate at: <a href="%s">%s</a></li>
    </ol>
    <p>For help, contact your administrator.</p>
    <p>Best regards,<br><strong>Cloud CLI Access Team</strong></p>
  </div>
</body>
</html>`, p.Username, p.Email, n.startURL, n.startURL)

	return n.send(ctx, p.Email, subject, text, html)
}

func (n *SES) SendDenial(ctx context.Context, p token.Payload) error {
	subject := "Cloud CLI Access Registration Status"

	text := fmt.Sprintf(`Hello %s,

Thank you for your interest in Cloud CLI Access.

Unfortunately, your registration request has not been approved at this time.

If you believe this is an error or would like more information, please
contact the administrator.

Best regards,
Cloud CLI Access Team
`, p.FirstName)

	html := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Cloud CLI Access Registration</h2>
    <p>Hello %s,</p>
    <p>Thank you for your interest in Cloud CLI Access.</p>
    <p>Unfortunately, your registration request has not been approved at this time.</p>
    <p>If you believe this is an error or would like more information, please contact the administrator.</p>
    <p>Best regards,<br><strong>Cloud CLI Access Team</strong></p>
  </div>
</body>
</html>`, p.FirstName)

	return n.send(ctx, p.Email, subject, text, html)
}

func (n *SES) send(ctx context.Context, to, subject, text, html string) error {
	_, err := n.api.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(text)},
				Html: &sestypes.Content{Data: aws.String(html)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}
