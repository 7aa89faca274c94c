package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendGridSendEmail(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := SendGrid{
		APIKey:    "sg-key",
		FromEmail: "noreply@frontdesk.example",
		FromName:  "Front Desk",
		BaseURL:   srv.URL,
	}
	if err := s.SendEmail(context.Background(), "caller@acme.com", "Your appointment", "<p>hi</p>"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotAuth != "Bearer sg-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}

	var payload map[string]any
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if payload["subject"] != "Your appointment" {
		t.Fatalf("unexpected subject %v", payload["subject"])
	}
}

func TestSendGridErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := SendGrid{APIKey: "bad", FromEmail: "x@y.example", BaseURL: srv.URL}
	err := s.SendEmail(context.Background(), "a@b.com", "s", "b")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestTwilioSMSSend(t *testing.T) {
	var gotForm string
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotForm = string(body)
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := TwilioSMS{
		AccountSID: "AC123",
		AuthToken:  "tok",
		FromNumber: "+15550001111",
		BaseURL:    srv.URL,
	}
	if err := c.SendSMS(context.Background(), "+15557654321", "your trial link"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotUser != "AC123" {
		t.Fatalf("expected basic auth user AC123, got %q", gotUser)
	}
	if !strings.Contains(gotForm, "To=%2B15557654321") || !strings.Contains(gotForm, "Body=your+trial+link") {
		t.Fatalf("unexpected form body %q", gotForm)
	}
}

func TestRecorderErr(t *testing.T) {
	r := &Recorder{Err: context.DeadlineExceeded}
	if err := r.SendEmail(context.Background(), "a@b.com", "s", "b"); err == nil {
		t.Fatalf("expected injected error")
	}
	if len(r.Emails) != 0 {
		t.Fatalf("failed send must not record")
	}
}
