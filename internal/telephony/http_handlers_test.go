package telephony

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"receptionist-platform/internal/business"
	"receptionist-platform/internal/calendar"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/finalize"
	"receptionist-platform/internal/notify"
	"receptionist-platform/internal/session"
)

func newTestWorkflow(sessions *session.Store) *finalize.Workflow {
	return &finalize.Workflow{
		Sessions: sessions,
		Calendar: calendar.NewMemory(),
		Email:    &notify.Recorder{},
		Alerts:   &notify.Recorder{},
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newInboundRouter(t *testing.T, h InboundHandler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/twilio/voice", h.HandleInboundCall)
	return router
}

func postForm(t *testing.T, router *gin.Engine, path, form string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInboundCallConnectsConfiguredNumber(t *testing.T) {
	repo := business.NewMemoryRepo()
	repo.Add(business.Profile{
		ID:          "biz-1",
		Name:        "Lakeside Dental",
		PhoneNumber: "+15557654321",
		OwnerEmail:  "owner@lakeside.com",
	})

	sessions := session.NewStore()
	store := callstore.NewMemoryRepo()
	h := InboundHandler{
		Businesses: &business.Service{Repo: repo},
		Sessions:   sessions,
		Store:      store,
		StreamURL:  "wss://example.com/media-stream",
	}
	router := newInboundRouter(t, h)

	w := postForm(t, router, "/webhooks/twilio/voice",
		"CallSid=CA300&From=%2B15551234567&To=%2B15557654321")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); !strings.Contains(got, "xml") {
		t.Fatalf("expected xml content type, got %q", got)
	}
	if !strings.Contains(w.Body.String(), "wss://example.com/media-stream") {
		t.Fatalf("expected stream url in twiml: %s", w.Body.String())
	}

	call, ok := sessions.Get("CA300")
	if !ok {
		t.Fatalf("expected session created")
	}
	if call.Business.ID != "biz-1" || call.CallerPhone != "+15551234567" {
		t.Fatalf("unexpected session %+v", call)
	}
	if call.RecordID == "" {
		t.Fatalf("expected durable call record linked to session")
	}
	if _, err := store.GetCallByProviderID(context.Background(), "CA300"); err != nil {
		t.Fatalf("expected call record, got %v", err)
	}
}

func TestInboundCallRejectsUnconfiguredNumber(t *testing.T) {
	sessions := session.NewStore()
	h := InboundHandler{
		Businesses: &business.Service{Repo: business.NewMemoryRepo()},
		Sessions:   sessions,
		StreamURL:  "wss://example.com/media-stream",
	}
	router := newInboundRouter(t, h)

	w := postForm(t, router, "/webhooks/twilio/voice",
		"CallSid=CA301&From=%2B15551234567&To=%2B15550000000")

	if w.Code != http.StatusOK {
		t.Fatalf("twilio needs 200 with twiml, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Say>") || !strings.Contains(body, "<Hangup>") {
		t.Fatalf("expected say+hangup rejection: %s", body)
	}
	if sessions.Len() != 0 {
		t.Fatalf("no session should exist for rejected call")
	}
}

func TestInboundCallFallbackProfile(t *testing.T) {
	fallback := business.Profile{ID: "default", Name: "Front Desk"}
	sessions := session.NewStore()
	h := InboundHandler{
		Businesses: &business.Service{Repo: business.NewMemoryRepo(), Fallback: &fallback},
		Sessions:   sessions,
		StreamURL:  "wss://example.com/media-stream",
	}
	router := newInboundRouter(t, h)

	w := postForm(t, router, "/webhooks/twilio/voice",
		"CallSid=CA302&From=%2B15551234567&To=%2B15550000000")

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Connect>") {
		t.Fatalf("expected fallback profile to answer: %d %s", w.Code, w.Body.String())
	}
	call, ok := sessions.Get("CA302")
	if !ok || call.Business.ID != "default" {
		t.Fatalf("expected session with fallback profile, got %+v", call)
	}
}

func TestStatusCallbackTriggersFinalization(t *testing.T) {
	sessions := session.NewStore()
	sessions.Put(&session.Call{CallSid: "CA303", Business: business.Profile{ID: "biz-1"}})

	wf := newTestWorkflow(sessions)
	h := StatusHandler{Finalizer: wf}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/twilio/status", h.HandleStatusCallback)

	w := postForm(t, router, "/webhooks/twilio/status", "CallSid=CA303&CallStatus=completed")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if _, ok := sessions.Get("CA303"); ok {
		t.Fatalf("expected session finalized and removed")
	}
}

func TestStatusCallbackIgnoresNonTerminal(t *testing.T) {
	sessions := session.NewStore()
	sessions.Put(&session.Call{CallSid: "CA304"})

	h := StatusHandler{Finalizer: newTestWorkflow(sessions)}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/twilio/status", h.HandleStatusCallback)

	w := postForm(t, router, "/webhooks/twilio/status", "CallSid=CA304&CallStatus=ringing")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if _, ok := sessions.Get("CA304"); !ok {
		t.Fatalf("non-terminal status must not remove the session")
	}
}
