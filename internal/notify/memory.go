package notify

import (
	"context"
	"sync"
)

// Recorder implements every sender by remembering what was sent. Tests use
// it in place of the real transports.
type Recorder struct {
	mu sync.Mutex

	Emails []RecordedEmail
	SMS    []RecordedSMS
	Alerts []string

	// Err, when set, is returned from every send.
	Err error
}

type RecordedEmail struct {
	To      string
	Subject string
	Body    string
}

type RecordedSMS struct {
	To   string
	Body string
}

func (r *Recorder) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Emails = append(r.Emails, RecordedEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (r *Recorder) SendSMS(_ context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.SMS = append(r.SMS, RecordedSMS{To: to, Body: body})
	return nil
}

func (r *Recorder) Alert(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Alerts = append(r.Alerts, message)
	return nil
}
