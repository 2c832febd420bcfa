package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier sends email through the Resend API. When no API key is
// configured it degrades to logging the message, so local development does
// not need an account.
type ResendNotifier struct {
	client *resend.Client
	from   string
}

func NewResendNotifier(apiKey, from string) *ResendNotifier {
	n := &ResendNotifier{from: from}
	if apiKey != "" {
		n.client = resend.NewClient(apiKey)
	}
	return n
}

func (n *ResendNotifier) SendWelcome(ctx context.Context, to, name string) error {
	if n.client == nil {
		log.Printf("📧 [Dev Mode] RESEND_API_KEY not set, skipping welcome email to %s", to)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: "Welcome aboard",
		Html: fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">Hi %s 👋</h2>
				<p>Your account has been created. You can log in with your email address any time.</p>
				<p style="color: #aaa; font-size: 12px;">
					If you didn't sign up, you can safely ignore this email.
				</p>
			</div>
		`, name),
	}

	sent, err := n.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("📧 Welcome email sent to %s (ID: %s)", to, sent.Id)
	return nil
}
