// Package notify carries outbound side-channel messages: follow-up email,
// trial-link SMS, and internal Slack alerts. Everything here is
// best-effort; callers log failures and keep going.
package notify

import "context"

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type Alerter interface {
	Alert(ctx context.Context, message string) error
}
