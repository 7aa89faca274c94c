package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendgridSendURL = "https://api.sendgrid.com/v3/mail/send"

// SendGrid sends mail through the SendGrid v3 REST API.
type SendGrid struct {
	APIKey    string
	FromEmail string
	FromName  string
	ReplyTo   string

	// BaseURL overrides the API endpoint in tests.
	BaseURL string

	HTTPClient *http.Client
}

func (s SendGrid) endpoint() string {
	if s.BaseURL != "" {
		return s.BaseURL + "/v3/mail/send"
	}
	return sendgridSendURL
}

func (s SendGrid) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPayload struct {
	Personalizations []struct {
		To []sendgridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendgridAddress  `json:"from"`
	ReplyTo *sendgridAddress `json:"reply_to,omitempty"`
	Subject string           `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (s SendGrid) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	payload := sendgridPayload{
		From:    sendgridAddress{Email: s.FromEmail, Name: s.FromName},
		Subject: subject,
	}
	payload.Personalizations = make([]struct {
		To []sendgridAddress `json:"to"`
	}, 1)
	payload.Personalizations[0].To = []sendgridAddress{{Email: to}}
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/html", Value: htmlBody}}
	if s.ReplyTo != "" {
		payload.ReplyTo = &sendgridAddress{Email: s.ReplyTo}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return fmt.Errorf("notify: sendgrid request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("notify: sendgrid status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
